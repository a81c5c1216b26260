package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Reply is a comment on a post. It always travels with its parent post and
// is addressed through it.
type Reply struct {
	ID        int64         `db:"id" json:"id"`
	PostID    int64         `db:"post_id" json:"post_id"`
	UserID    int64         `db:"user_id" json:"-"`
	Content   string        `db:"content" json:"content"`
	Edited    bool          `db:"edited" json:"edited"`
	Likes     pq.Int64Array `db:"likes" json:"likes"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`

	Author UserSummary `db:"author" json:"user"`
}

type ReplyRequest struct {
	Content string `json:"content"`
}

const (
	MaxReplyLength = 2800
)

var (
	ErrReplyNotFound   = errors.New("comment not found")
	ErrNotReplyOwner   = errors.New("not the owner of this comment")
	ErrContentRequired = errors.New("content is required")
	ErrContentTooLong  = errors.New("content too long")
)
