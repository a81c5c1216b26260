package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"xclone/internal/cache"
	"xclone/internal/config"
	"xclone/internal/model"
)

// AuthService issues bearer tokens and manages server-side sessions.
type AuthService struct {
	sessions cache.SessionStore
	config   *config.Config
}

func NewAuthService(sessions cache.SessionStore, cfg *config.Config) *AuthService {
	return &AuthService{
		sessions: sessions,
		config:   cfg,
	}
}

// GenerateToken signs an HS256 token carrying the user's id, username and email.
func (s *AuthService) GenerateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"email":    user.Email,
		"exp":      now.Add(time.Duration(s.config.TokenMaxAge) * time.Second).Unix(),
		"iat":      now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies signature and expiry. Any failure is ErrTokenInvalid.
func (s *AuthService) ParseToken(tokenString string) (*model.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, model.ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrTokenInvalid
	}

	// JSON numbers decode as float64
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok || userIDFloat <= 0 {
		return nil, model.ErrTokenInvalid
	}

	username, _ := claims["username"].(string)
	email, _ := claims["email"].(string)

	return &model.TokenClaims{
		UserID:   int64(userIDFloat),
		Username: username,
		Email:    email,
	}, nil
}

// CreateSession stores a session for userID and returns its id with the
// cookie max-age in seconds. remember selects the long lifetime.
func (s *AuthService) CreateSession(ctx context.Context, userID int64, remember bool) (string, int, error) {
	maxAge := s.config.SessionMaxAge
	if remember {
		maxAge = s.config.SessionRememberMaxAge
	}

	id, err := s.sessions.Create(ctx, userID, time.Duration(maxAge)*time.Second)
	if err != nil {
		return "", 0, fmt.Errorf("create session: %w", err)
	}
	return id, maxAge, nil
}

func (s *AuthService) ResolveSession(ctx context.Context, sessionID string) (int64, error) {
	userID, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, cache.ErrMiss) {
		return 0, model.ErrSessionNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("resolve session: %w", err)
	}
	return userID, nil
}

func (s *AuthService) DestroySession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}
