package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"xclone/internal/model"
)

const actorColumns = `
	u.id AS "actor.id", u.username AS "actor.username",
	u.profile_photo_url AS "actor.profile_photo_url",
	(u.verified_until IS NOT NULL AND u.verified_until > NOW()) AS "actor.is_verified"`

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create inserts n and fills in its id, timestamp and expanded actor.
func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		WITH n AS (
			INSERT INTO notifications (user_id, actor_id, type, post_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id, user_id, actor_id, type, post_id, is_read, created_at
		)
		SELECT n.id, n.user_id, n.actor_id, n.type, n.post_id, n.is_read, n.created_at,` + actorColumns + `
		FROM n
		JOIN users u ON u.id = n.actor_id
	`
	err := r.db.QueryRowxContext(ctx, query, n.UserID, n.ActorID, n.Type, n.PostID).StructScan(n)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListForUser returns the user's newest notifications first.
func (r *notificationRepository) ListForUser(ctx context.Context, userID int64, limit int) ([]model.Notification, error) {
	query := `
		SELECT n.id, n.user_id, n.actor_id, n.type, n.post_id, n.is_read, n.created_at,` + actorColumns + `
		FROM notifications n
		JOIN users u ON u.id = n.actor_id
		WHERE n.user_id = $1
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT $2
	`
	notifications := []model.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one of the user's notifications read. Another user's
// notification is reported as not found.
func (r *notificationRepository) MarkRead(ctx context.Context, userID, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireRow(result, model.ErrNotificationNotFound)
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
