package model

import (
	"errors"
	"time"
)

// Notification types
const (
	NotificationTypeFollow  = "follow"
	NotificationTypeLike    = "like"
	NotificationTypeReply   = "reply"
	NotificationTypeMessage = "message"
)

// EventNotification is the realtime event pushed to the recipient's room.
const EventNotification = "notification"

const (
	DefaultNotificationLimit = 20
	MaxNotificationLimit     = 50
)

// Notification records one action another user took toward the recipient.
type Notification struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"-"`
	ActorID   int64     `db:"actor_id" json:"actor_id"`
	Type      string    `db:"type" json:"type"`
	PostID    *int64    `db:"post_id" json:"post_id,omitempty"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	Actor UserSummary `db:"actor" json:"actor"`
}

type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

var ErrNotificationNotFound = errors.New("notification not found")
