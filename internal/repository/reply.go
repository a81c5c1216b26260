package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"xclone/internal/model"
)

const replyColumns = `
	r.id, r.post_id, r.user_id, r.content, r.edited, r.created_at, r.updated_at,
	ARRAY(SELECT l.user_id FROM reply_likes l WHERE l.reply_id = r.id ORDER BY l.created_at) AS likes,` + summaryColumns

const replyFrom = ` FROM replies r JOIN users u ON u.id = r.user_id `

type replyRepository struct {
	db *sqlx.DB
}

func NewReplyRepository(db *sqlx.DB) ReplyRepository {
	return &replyRepository{db: db}
}

func (r *replyRepository) Create(ctx context.Context, reply *model.Reply) error {
	query := `
		INSERT INTO replies (post_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, edited, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, reply.PostID, reply.UserID, reply.Content).
		Scan(&reply.ID, &reply.Edited, &reply.CreatedAt, &reply.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert reply: %w", err)
	}
	reply.Likes = []int64{}
	return nil
}

// GetByID looks the reply up through its parent post.
func (r *replyRepository) GetByID(ctx context.Context, postID, replyID int64) (*model.Reply, error) {
	query := `SELECT ` + replyColumns + replyFrom + `WHERE r.post_id = $1 AND r.id = $2`

	var reply model.Reply
	err := r.db.GetContext(ctx, &reply, query, postID, replyID)
	if err == sql.ErrNoRows {
		return nil, model.ErrReplyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reply: %w", err)
	}
	return &reply, nil
}

// Update replaces the content and marks the reply as edited.
func (r *replyRepository) Update(ctx context.Context, postID, replyID int64, content string) (*model.Reply, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE replies SET content = $1, edited = TRUE, updated_at = NOW()
		WHERE post_id = $2 AND id = $3
	`, content, postID, replyID)
	if err != nil {
		return nil, fmt.Errorf("update reply: %w", err)
	}
	if err := requireRow(result, model.ErrReplyNotFound); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, postID, replyID)
}

func (r *replyRepository) Delete(ctx context.Context, postID, replyID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM replies WHERE post_id = $1 AND id = $2`, postID, replyID)
	if err != nil {
		return fmt.Errorf("delete reply: %w", err)
	}
	return requireRow(result, model.ErrReplyNotFound)
}

// ListByPost returns a post's replies in chronological order.
func (r *replyRepository) ListByPost(ctx context.Context, postID int64) ([]model.Reply, error) {
	query := `SELECT ` + replyColumns + replyFrom + `
		WHERE r.post_id = $1
		ORDER BY r.created_at, r.id`

	replies := []model.Reply{}
	if err := r.db.SelectContext(ctx, &replies, query, postID); err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	return replies, nil
}

// ListByPosts batch-loads replies for embedding, keyed by post id.
func (r *replyRepository) ListByPosts(ctx context.Context, postIDs []int64) (map[int64][]model.Reply, error) {
	result := make(map[int64][]model.Reply, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	query := `SELECT ` + replyColumns + replyFrom + `
		WHERE r.post_id = ANY($1)
		ORDER BY r.created_at, r.id`

	var replies []model.Reply
	if err := r.db.SelectContext(ctx, &replies, query, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("list replies for posts: %w", err)
	}

	for _, reply := range replies {
		result[reply.PostID] = append(result[reply.PostID], reply)
	}
	return result, nil
}

func (r *replyRepository) ToggleLike(ctx context.Context, replyID, userID int64) (bool, int, error) {
	query := `
		WITH removed AS (
			DELETE FROM reply_likes WHERE reply_id = $1 AND user_id = $2 RETURNING 1
		), added AS (
			INSERT INTO reply_likes (reply_id, user_id)
			SELECT $1, $2 WHERE NOT EXISTS (SELECT 1 FROM removed)
			ON CONFLICT DO NOTHING
			RETURNING 1
		)
		SELECT EXISTS(SELECT 1 FROM added) AS liked
	`
	var liked bool
	if err := r.db.GetContext(ctx, &liked, query, replyID, userID); err != nil {
		return false, 0, fmt.Errorf("toggle reply like: %w", err)
	}

	var likes int
	if err := r.db.GetContext(ctx, &likes, `SELECT COUNT(*) FROM reply_likes WHERE reply_id = $1`, replyID); err != nil {
		return false, 0, fmt.Errorf("count reply likes: %w", err)
	}
	return liked, likes, nil
}
