package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"xclone/internal/logger"
)

const (
	// SessionPrefix is the key prefix for session id -> user id entries.
	SessionPrefix = "session:"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache: key not found")

// SessionStore keeps server-side sessions referenced by the sid cookie.
type SessionStore interface {
	// Create stores a fresh session for userID and returns its id.
	Create(ctx context.Context, userID int64, ttl time.Duration) (string, error)

	// Get resolves a session id. Returns ErrMiss when absent or expired.
	Get(ctx context.Context, sessionID string) (int64, error)

	// Delete destroys a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error
}

type RedisSessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) SessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(id string) string {
	return SessionPrefix + id
}

func (s *RedisSessionStore) Create(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	id := uuid.NewString()
	if err := s.client.Set(ctx, sessionKey(id), userID, ttl).Err(); err != nil {
		logger.Log.Warn("[SessionStore] Create FAILED", logger.WithUserID(userID), zap.Error(err))
		return "", fmt.Errorf("store session: %w", err)
	}
	return id, nil
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (int64, error) {
	if sessionID == "" {
		return 0, ErrMiss
	}

	val, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return 0, ErrMiss
	}
	if err != nil {
		return 0, fmt.Errorf("get session: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse session value: %w", err)
	}
	return userID, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
