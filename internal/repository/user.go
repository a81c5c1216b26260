package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"xclone/internal/model"
)

// userColumns selects a full user row plus its materialised id lists.
const userColumns = `
	u.id, u.username, u.email, u.password_hashed,
	u.profile_photo_url, u.profile_photo_key, u.cover_photo_url, u.cover_photo_key,
	u.verified_until, (u.verified_until IS NOT NULL AND u.verified_until > NOW()) AS is_verified,
	u.created_at, u.updated_at,
	ARRAY(SELECT f.follower_id FROM follows f WHERE f.followee_id = u.id ORDER BY f.created_at) AS followers,
	ARRAY(SELECT f.followee_id FROM follows f WHERE f.follower_id = u.id ORDER BY f.created_at) AS following,
	ARRAY(SELECT b.blocked_id FROM blocks b WHERE b.blocker_id = u.id ORDER BY b.created_at) AS blocked_users,
	ARRAY(SELECT b.blocker_id FROM blocks b WHERE b.blocked_id = u.id ORDER BY b.created_at) AS blocked_by,
	ARRAY(SELECT bm.post_id FROM bookmarks bm WHERE bm.user_id = u.id ORDER BY bm.created_at) AS bookmarks`

// summaryColumns selects the author fields embedded in posts and replies.
const summaryColumns = `
	u.id AS "author.id", u.username AS "author.username",
	u.profile_photo_url AS "author.profile_photo_url",
	(u.verified_until IS NOT NULL AND u.verified_until > NOW()) AS "author.is_verified"`

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, tx *sqlx.Tx, u *model.User) error {
	query := `
		INSERT INTO users (username, email, password_hashed, profile_photo_url, profile_photo_key,
		                   cover_photo_url, cover_photo_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRowxContext(ctx, query,
		u.Username,
		u.Email,
		u.PasswordHashed,
		u.ProfilePhotoURL,
		u.ProfilePhotoKey,
		u.CoverPhotoURL,
		u.CoverPhotoKey,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if dup := duplicateUserField(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	u.Followers = []int64{}
	u.Following = []int64{}
	u.BlockedUsers = []int64{}
	u.BlockedBy = []int64{}
	u.Bookmarks = []int64{}
	return nil
}

func (r *userRepository) getOne(ctx context.Context, where string, arg interface{}) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE ` + where

	var u model.User
	err := r.db.GetContext(ctx, &u, query, arg)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `u.id = $1`, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, `u.username = $1`, username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `LOWER(u.email) = LOWER($1)`, email)
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return exists, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u ORDER BY u.created_at DESC, u.id DESC`

	users := []model.User{}
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	searchQuery := `
		SELECT id, username, profile_photo_url,
		       (verified_until IS NOT NULL AND verified_until > NOW()) AS is_verified
		FROM users
		WHERE username ILIKE $1 ESCAPE '\'
		ORDER BY username
		LIMIT $2
	`

	users := []model.UserSummary{}
	if err := r.db.SelectContext(ctx, &users, searchQuery, containsPattern(query), limit); err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, u *model.User) error {
	query := `
		UPDATE users
		SET username = $1, email = $2,
		    profile_photo_url = $3, profile_photo_key = $4,
		    cover_photo_url = $5, cover_photo_key = $6,
		    updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		u.Username, u.Email,
		u.ProfilePhotoURL, u.ProfilePhotoKey,
		u.CoverPhotoURL, u.CoverPhotoKey,
		u.ID,
	).Scan(&u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.ErrUserNotFound
	}
	if err != nil {
		if dup := duplicateUserField(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHashed string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hashed = $1, updated_at = NOW() WHERE id = $2`, passwordHashed, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireRow(result, model.ErrUserNotFound)
}

func (r *userRepository) SetVerifiedUntil(ctx context.Context, id int64, until time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET verified_until = $1, updated_at = NOW() WHERE id = $2`, until, id)
	if err != nil {
		return fmt.Errorf("failed to set verification: %w", err)
	}
	return requireRow(result, model.ErrUserNotFound)
}

func (r *userRepository) RandomIDExcept(ctx context.Context, tx *sqlx.Tx, id int64) (int64, bool, error) {
	var other int64
	err := tx.GetContext(ctx, &other, `SELECT id FROM users WHERE id <> $1 ORDER BY random() LIMIT 1`, id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to pick random user: %w", err)
	}
	return other, true, nil
}

// Delete removes the user row. Posts, replies, likes, bookmarks, follows,
// blocks and messages go with it through ON DELETE CASCADE.
func (r *userRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireRow(result, model.ErrUserNotFound)
}

func requireRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

// duplicateUserField maps a unique violation on username or email to its
// sentinel, or returns nil.
func duplicateUserField(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return nil
	}
	switch pqErr.Constraint {
	case "users_username_key":
		return model.ErrUsernameExists
	case "users_email_key":
		return model.ErrEmailExists
	}
	return nil
}

const uniqueViolation = "23505"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching q literally anywhere.
// Queries using it must declare ESCAPE '\'.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
