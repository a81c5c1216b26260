package model

import (
	"errors"
	"time"
)

// Message is a direct message between two users.
type Message struct {
	ID         int64     `db:"id" json:"id"`
	SenderID   int64     `db:"sender_id" json:"sender"`
	ReceiverID int64     `db:"receiver_id" json:"receiver"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type SendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id"`
	Content    string `json:"content"`
}

// EventNewMessage is the realtime event emitted to both participants.
const EventNewMessage = "newMessage"

var (
	ErrMessageContentRequired = errors.New("content and receiver_id are required")
	ErrCannotMessageSelf      = errors.New("cannot message yourself")
)
