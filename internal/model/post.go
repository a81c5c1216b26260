package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Post is a piece of content with embedded replies.
type Post struct {
	ID        int64         `db:"id" json:"id"`
	UserID    int64         `db:"user_id" json:"user_id"`
	Content   string        `db:"content" json:"content"`
	ImageURL  *string       `db:"image_url" json:"image"`
	ImageKey  *string       `db:"image_key" json:"-"`
	Likes     pq.Int64Array `db:"likes" json:"likes"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`

	Author  UserSummary `db:"author" json:"user"`
	Replies []Reply     `db:"-" json:"replies"`

	IsLiked      bool `db:"-" json:"is_liked"`
	IsBookmarked bool `db:"-" json:"is_bookmarked"`
}

// LikedBy reports whether userID is in the post's like set.
func (p *Post) LikedBy(userID int64) bool {
	return containsID(p.Likes, userID)
}

// FeedResponse is one page of the reverse-chronological post stream.
type FeedResponse struct {
	Posts       []Post `json:"posts"`
	CurrentPage int    `json:"current_page"`
	TotalPages  int    `json:"total_pages"`
	TotalPosts  int    `json:"total_posts"`
}

type LikeResponse struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

type BookmarkResponse struct {
	Bookmarked bool `json:"bookmarked"`
}

const (
	MaxPostContentLength = 2800
	DefaultFeedPageSize  = 10
	MaxFeedPageSize      = 50
)

var (
	ErrPostNotFound       = errors.New("post not found")
	ErrNotPostOwner       = errors.New("not the owner of this post")
	ErrEmptyPost          = errors.New("post must have content or an image")
	ErrPostContentTooLong = errors.New("post content too long")
)
