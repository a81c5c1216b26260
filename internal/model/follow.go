package model

import (
	"errors"
	"time"
)

// Follow is one directed edge of the social graph. A single row serves both
// the follower's "following" list and the followee's "followers" list.
type Follow struct {
	FollowerID int64     `db:"follower_id" json:"follower_id"`
	FolloweeID int64     `db:"followee_id" json:"followee_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Block is a directed block edge.
type Block struct {
	BlockerID int64     `db:"blocker_id" json:"blocker_id"`
	BlockedID int64     `db:"blocked_id" json:"blocked_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type FollowListResponse struct {
	Users []UserSummary `json:"users"`
}

// BlockListResponse mirrors the actor's updated block lists after a change.
type BlockListResponse struct {
	Message      string  `json:"message"`
	BlockedUsers []int64 `json:"blocked_users"`
	BlockedBy    []int64 `json:"blocked_by"`
}

var (
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
	ErrCannotBlockSelf  = errors.New("cannot block yourself")
	ErrBlocked          = errors.New("you cannot message this user")
)
