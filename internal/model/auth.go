package model

import "errors"

// TokenClaims is the identity carried by a bearer token.
type TokenClaims struct {
	UserID   int64
	Username string
	Email    string
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

const (
	SessionCookieName = "sid"
	ResetTokenBytes   = 32
)

const CodeTokenInvalid = "TOKEN_INVALID"

var (
	ErrTokenInvalid      = errors.New("invalid or expired token")
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidResetToken = errors.New("invalid or expired reset link")
	ErrPasswordMismatch  = errors.New("passwords do not match")
)
