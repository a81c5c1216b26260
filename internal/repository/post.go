package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"xclone/internal/model"
)

// postColumns selects a post with its like set and expanded author.
const postColumns = `
	p.id, p.user_id, p.content, p.image_url, p.image_key, p.created_at, p.updated_at,
	ARRAY(SELECT l.user_id FROM post_likes l WHERE l.post_id = p.id ORDER BY l.created_at) AS likes,` + summaryColumns

const postFrom = ` FROM posts p JOIN users u ON u.id = p.user_id `

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	query := `
		INSERT INTO posts (user_id, content, image_url, image_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, p.UserID, p.Content, p.ImageURL, p.ImageKey).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	p.Likes = []int64{}
	p.Replies = []model.Reply{}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	query := `SELECT ` + postColumns + postFrom + `WHERE p.id = $1`

	var post model.Post
	err := r.db.GetContext(ctx, &post, query, postID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, p *model.Post) error {
	query := `
		UPDATE posts SET content = $1, image_url = $2, image_key = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, p.Content, p.ImageURL, p.ImageKey, p.ID).Scan(&p.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// Delete removes the post; replies, likes and bookmarks cascade.
func (r *postRepository) Delete(ctx context.Context, postID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return requireRow(result, model.ErrPostNotFound)
}

// List returns one page of posts, newest first. id breaks created_at ties so
// paging is stable.
func (r *postRepository) List(ctx context.Context, limit, offset int) ([]model.Post, error) {
	query := `SELECT ` + postColumns + postFrom + `
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1 OFFSET $2`

	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, limit, offset); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM posts`); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID int64) ([]model.Post, error) {
	query := `SELECT ` + postColumns + postFrom + `
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC, p.id DESC`

	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, userID); err != nil {
		return nil, fmt.Errorf("list user posts: %w", err)
	}
	return posts, nil
}

// ListBookmarked returns the user's bookmarked posts, most recently saved first.
func (r *postRepository) ListBookmarked(ctx context.Context, userID int64) ([]model.Post, error) {
	query := `SELECT ` + postColumns + postFrom + `
		JOIN bookmarks bm ON bm.post_id = p.id
		WHERE bm.user_id = $1
		ORDER BY bm.created_at DESC`

	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, userID); err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return posts, nil
}

func (r *postRepository) Search(ctx context.Context, query string, limit int) ([]model.Post, error) {
	q := `SELECT ` + postColumns + postFrom + `
		WHERE p.content ILIKE $1 ESCAPE '\'
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2`

	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, q, containsPattern(query), limit); err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) ImageKeysByUser(ctx context.Context, userID int64) ([]string, error) {
	keys := []string{}
	err := r.db.SelectContext(ctx, &keys,
		`SELECT image_key FROM posts WHERE user_id = $1 AND image_key IS NOT NULL AND image_key <> ''`, userID)
	if err != nil {
		return nil, fmt.Errorf("list post image keys: %w", err)
	}
	return keys, nil
}

// ToggleLike flips userID's membership in the post's like set in a single
// statement and returns the new state and like count.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID int64) (bool, int, error) {
	query := `
		WITH removed AS (
			DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2 RETURNING 1
		), added AS (
			INSERT INTO post_likes (post_id, user_id)
			SELECT $1, $2 WHERE NOT EXISTS (SELECT 1 FROM removed)
			ON CONFLICT DO NOTHING
			RETURNING 1
		)
		SELECT EXISTS(SELECT 1 FROM added) AS liked
	`
	var liked bool
	if err := r.db.GetContext(ctx, &liked, query, postID, userID); err != nil {
		return false, 0, fmt.Errorf("toggle like: %w", err)
	}

	var likes int
	if err := r.db.GetContext(ctx, &likes, `SELECT COUNT(*) FROM post_likes WHERE post_id = $1`, postID); err != nil {
		return false, 0, fmt.Errorf("count likes: %w", err)
	}
	return liked, likes, nil
}

func (r *postRepository) ToggleBookmark(ctx context.Context, userID, postID int64) (bool, error) {
	query := `
		WITH removed AS (
			DELETE FROM bookmarks WHERE user_id = $1 AND post_id = $2 RETURNING 1
		), added AS (
			INSERT INTO bookmarks (user_id, post_id)
			SELECT $1, $2 WHERE NOT EXISTS (SELECT 1 FROM removed)
			ON CONFLICT DO NOTHING
			RETURNING 1
		)
		SELECT EXISTS(SELECT 1 FROM added) AS bookmarked
	`
	var bookmarked bool
	if err := r.db.GetContext(ctx, &bookmarked, query, userID, postID); err != nil {
		return false, fmt.Errorf("toggle bookmark: %w", err)
	}
	return bookmarked, nil
}
