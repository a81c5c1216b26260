package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"xclone/internal/cache"
	"xclone/internal/config"
	"xclone/internal/logger"
	"xclone/internal/mail"
	"xclone/internal/model"
	"xclone/internal/repository"
)

// PasswordService runs the forgot/reset password flow.
type PasswordService struct {
	userRepo repository.UserRepository
	tokens   cache.ResetTokenStore
	mailer   mail.Mailer
	config   *config.Config
}

func NewPasswordService(
	userRepo repository.UserRepository,
	tokens cache.ResetTokenStore,
	mailer mail.Mailer,
	cfg *config.Config,
) *PasswordService {
	return &PasswordService{
		userRepo: userRepo,
		tokens:   tokens,
		mailer:   mailer,
		config:   cfg,
	}
}

// RequestReset mails a one-time reset link. Unknown emails return ErrUserNotFound.
func (s *PasswordService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.ErrInvalidEmail
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	raw := make([]byte, model.ResetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)

	if err := s.tokens.Save(ctx, hashToken(token), user.ID, s.config.ResetTokenTTL); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link := strings.TrimSuffix(s.config.AppBaseURL, "/") + "/reset-password/" + token
	if err := s.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		return err
	}

	logger.Log.Info("[PasswordService] Reset link sent", logger.WithUserID(user.ID))
	return nil
}

// CheckReset reports whether token is still redeemable without consuming it.
func (s *PasswordService) CheckReset(ctx context.Context, token string) error {
	if token == "" {
		return model.ErrInvalidResetToken
	}
	_, err := s.tokens.Peek(ctx, hashToken(token))
	if errors.Is(err, cache.ErrMiss) {
		return model.ErrInvalidResetToken
	}
	return err
}

// ResetPassword consumes token and sets the new password. Validation happens
// before consumption so a typo does not burn the link.
func (s *PasswordService) ResetPassword(ctx context.Context, token string, req *model.ResetPasswordRequest) error {
	if req.Password != req.ConfirmPassword {
		return model.ErrPasswordMismatch
	}
	if len(req.Password) < model.MinPasswordLength {
		return model.ErrPasswordTooShort
	}
	if token == "" {
		return model.ErrInvalidResetToken
	}

	userID, err := s.tokens.Consume(ctx, hashToken(token))
	if errors.Is(err, cache.ErrMiss) {
		return model.ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return err
	}

	logger.Log.Info("[PasswordService] Password reset", zap.Int64("user_id", userID))
	return nil
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
