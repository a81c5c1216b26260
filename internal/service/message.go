package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"xclone/internal/logger"
	"xclone/internal/metrics"
	"xclone/internal/model"
	"xclone/internal/realtime"
	"xclone/internal/repository"
)

type MessageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	blockRepo   repository.BlockRepository
	broadcaster realtime.Broadcaster
	notifier    Notifier
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	blockRepo repository.BlockRepository,
	broadcaster realtime.Broadcaster,
	notifier Notifier,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		blockRepo:   blockRepo,
		broadcaster: broadcaster,
		notifier:    notifier,
	}
}

// Send stores a direct message and notifies both participants' rooms.
// A block in either direction forbids it.
func (s *MessageService) Send(ctx context.Context, senderID int64, req model.SendMessageRequest) (*model.Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" || req.ReceiverID == 0 {
		return nil, model.ErrMessageContentRequired
	}
	if req.ReceiverID == senderID {
		return nil, model.ErrCannotMessageSelf
	}

	if _, err := s.userRepo.GetByID(ctx, senderID); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, req.ReceiverID); err != nil {
		return nil, err
	}

	blocked, err := s.blockRepo.ExistsEither(ctx, senderID, req.ReceiverID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, model.ErrBlocked
	}

	msg := &model.Message{SenderID: senderID, ReceiverID: req.ReceiverID, Content: content}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	metrics.MessagesSent.Inc()

	s.emit(ctx, msg)
	if s.notifier != nil {
		s.notifier.Notify(ctx, msg.ReceiverID, senderID, model.NotificationTypeMessage, nil)
	}
	return msg, nil
}

func (s *MessageService) emit(ctx context.Context, msg *model.Message) {
	if s.broadcaster == nil {
		return
	}
	for _, room := range []string{realtime.UserRoom(msg.SenderID), realtime.UserRoom(msg.ReceiverID)} {
		if err := s.broadcaster.Emit(ctx, room, model.EventNewMessage, msg); err != nil {
			logger.Log.Warn("[MessageService] Emit failed",
				zap.String("room", room), zap.Int64("message_id", msg.ID), zap.Error(err))
		}
	}
}

// Conversation lists messages between the two users in either direction, oldest first.
func (s *MessageService) Conversation(ctx context.Context, userID, otherID int64) ([]model.Message, error) {
	return s.messageRepo.ListBetween(ctx, userID, otherID)
}

// Inbox lists every message the user sent or received, oldest first.
func (s *MessageService) Inbox(ctx context.Context, userID int64) ([]model.Message, error) {
	return s.messageRepo.ListForUser(ctx, userID)
}
