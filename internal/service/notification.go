package service

import (
	"context"

	"go.uber.org/zap"

	"xclone/internal/logger"
	"xclone/internal/model"
	"xclone/internal/realtime"
	"xclone/internal/repository"
)

// Notifier records that actorID did something to recipientID. It never fails
// the action that triggered it.
type Notifier interface {
	Notify(ctx context.Context, recipientID, actorID int64, kind string, postID *int64)
}

// NotificationService stores notifications and pushes each one to the
// recipient's realtime room.
type NotificationService struct {
	notifRepo   repository.NotificationRepository
	broadcaster realtime.Broadcaster
}

func NewNotificationService(notifRepo repository.NotificationRepository, broadcaster realtime.Broadcaster) *NotificationService {
	return &NotificationService{
		notifRepo:   notifRepo,
		broadcaster: broadcaster,
	}
}

// Notify persists the notification, then pushes it. Self-actions are skipped.
func (s *NotificationService) Notify(ctx context.Context, recipientID, actorID int64, kind string, postID *int64) {
	if recipientID == actorID {
		return
	}

	n := &model.Notification{UserID: recipientID, ActorID: actorID, Type: kind, PostID: postID}
	if err := s.notifRepo.Create(ctx, n); err != nil {
		logger.Log.Warn("[NotificationService] Failed to store notification",
			zap.String("type", kind), logger.WithUserID(recipientID), zap.Int64("actor_id", actorID), zap.Error(err))
		return
	}

	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Emit(ctx, realtime.UserRoom(recipientID), model.EventNotification, n); err != nil {
		logger.Log.Warn("[NotificationService] Failed to push notification",
			zap.Int64("notification_id", n.ID), logger.WithUserID(recipientID), zap.Error(err))
	}
}

// List returns the newest notifications and the total unread count.
func (s *NotificationService) List(ctx context.Context, userID int64, limit int) (*model.NotificationListResponse, error) {
	if limit <= 0 {
		limit = model.DefaultNotificationLimit
	}
	if limit > model.MaxNotificationLimit {
		limit = model.MaxNotificationLimit
	}

	notifications, err := s.notifRepo.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	unread, err := s.notifRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.NotificationListResponse{Notifications: notifications, UnreadCount: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID int64) error {
	return s.notifRepo.MarkRead(ctx, userID, notificationID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	_, err := s.notifRepo.MarkAllRead(ctx, userID)
	return err
}
