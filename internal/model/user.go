package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// User represents an account. The id lists are materialised from the
// follows, blocks and bookmarks tables on read.
type User struct {
	ID              int64      `db:"id" json:"id"`
	Username        string     `db:"username" json:"username"`
	Email           string     `db:"email" json:"email"`
	PasswordHashed  string     `db:"password_hashed" json:"-"`
	ProfilePhotoURL string     `db:"profile_photo_url" json:"profile_photo"`
	ProfilePhotoKey string     `db:"profile_photo_key" json:"-"`
	CoverPhotoURL   string     `db:"cover_photo_url" json:"cover_photo"`
	CoverPhotoKey   string     `db:"cover_photo_key" json:"-"`
	VerifiedUntil   *time.Time `db:"verified_until" json:"verification_expires_at"`
	IsVerified      bool       `db:"is_verified" json:"is_verified"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`

	Followers    pq.Int64Array `db:"followers" json:"followers"`
	Following    pq.Int64Array `db:"following" json:"following"`
	BlockedUsers pq.Int64Array `db:"blocked_users" json:"blocked_users"`
	BlockedBy    pq.Int64Array `db:"blocked_by" json:"blocked_by"`
	Bookmarks    pq.Int64Array `db:"bookmarks" json:"bookmarks"`
}

// VerifiedAt reports whether the verification window is still open at now.
func (u *User) VerifiedAt(now time.Time) bool {
	return u.VerifiedUntil != nil && u.VerifiedUntil.After(now)
}

// HasBookmarked reports whether postID is in the user's bookmarks.
func (u *User) HasBookmarked(postID int64) bool {
	return containsID(u.Bookmarks, postID)
}

// UserSummary is the expanded author shape embedded in posts, replies and lists.
type UserSummary struct {
	ID              int64  `db:"id" json:"id"`
	Username        string `db:"username" json:"username"`
	ProfilePhotoURL string `db:"profile_photo_url" json:"profile_photo"`
	IsVerified      bool   `db:"is_verified" json:"is_verified"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// UpdateProfileRequest carries the optional text fields of a profile edit.
// Images arrive separately as multipart parts.
type UpdateProfileRequest struct {
	Username *string
	Email    *string
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// ProfileResponse is a user with their posts, newest first.
type ProfileResponse struct {
	User  *User  `json:"user"`
	Posts []Post `json:"posts"`
}

// VerificationStatus is the premium status view.
type VerificationStatus struct {
	IsVerified            bool       `json:"is_verified"`
	VerificationExpiresAt *time.Time `json:"verification_expires_at"`
}

type SearchResponse struct {
	Users []UserSummary `json:"users"`
	Posts []Post        `json:"posts"`
}

const (
	MinPasswordLength = 6
	MaxUsernameLength = 50
	SearchLimit       = 10
)

var (
	ErrUserNotFound = errors.New("user not found")

	ErrUsernameExists = errors.New("username already exists")

	ErrEmailExists = errors.New("email already exists")

	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrInvalidEmail = errors.New("a valid email is required")

	ErrUsernameRequired = errors.New("username is required")

	ErrUsernameTooLong = errors.New("username must be at most 50 characters")

	ErrPasswordTooShort = errors.New("password must be at least 6 characters")

	ErrNotAccountOwner = errors.New("you can only modify your own account")
)

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
