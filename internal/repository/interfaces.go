package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"xclone/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]model.User, error)
	Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHashed string) error
	SetVerifiedUntil(ctx context.Context, id int64, until time.Time) error
	// RandomIDExcept picks one other user for the registration auto-follow.
	RandomIDExcept(ctx context.Context, tx *sqlx.Tx, id int64) (int64, bool, error)
	Delete(ctx context.Context, tx *sqlx.Tx, id int64) error
}

type FollowRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	Delete(ctx context.Context, followerID, followeeID int64) (bool, error)
	GetFollowers(ctx context.Context, userID int64) ([]model.UserSummary, error)
	GetFollowing(ctx context.Context, userID int64) ([]model.UserSummary, error)
}

type BlockRepository interface {
	Create(ctx context.Context, blockerID, blockedID int64) (bool, error)
	Delete(ctx context.Context, blockerID, blockedID int64) (bool, error)
	// ExistsEither reports a block in either direction between a and b.
	ExistsEither(ctx context.Context, a, b int64) (bool, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, postID int64) error
	List(ctx context.Context, limit, offset int) ([]model.Post, error)
	Count(ctx context.Context) (int, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Post, error)
	ListBookmarked(ctx context.Context, userID int64) ([]model.Post, error)
	Search(ctx context.Context, query string, limit int) ([]model.Post, error)
	ImageKeysByUser(ctx context.Context, userID int64) ([]string, error)
	ToggleLike(ctx context.Context, postID, userID int64) (liked bool, likes int, err error)
	ToggleBookmark(ctx context.Context, userID, postID int64) (bool, error)
}

type ReplyRepository interface {
	Create(ctx context.Context, reply *model.Reply) error
	GetByID(ctx context.Context, postID, replyID int64) (*model.Reply, error)
	Update(ctx context.Context, postID, replyID int64, content string) (*model.Reply, error)
	Delete(ctx context.Context, postID, replyID int64) error
	ListByPost(ctx context.Context, postID int64) ([]model.Reply, error)
	ListByPosts(ctx context.Context, postIDs []int64) (map[int64][]model.Reply, error)
	ToggleLike(ctx context.Context, replyID, userID int64) (liked bool, likes int, err error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	ListBetween(ctx context.Context, a, b int64) ([]model.Message, error)
	ListForUser(ctx context.Context, userID int64) ([]model.Message, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListForUser(ctx context.Context, userID int64, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, userID, id int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}
