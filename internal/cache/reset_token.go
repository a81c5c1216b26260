package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// ResetTokenPrefix is the key prefix for hashed password-reset tokens.
	ResetTokenPrefix = "pwreset:"
)

// ResetTokenStore holds hashed password-reset tokens until they expire or
// are consumed. Only the hash is ever stored.
type ResetTokenStore interface {
	Save(ctx context.Context, tokenHash string, userID int64, ttl time.Duration) error

	// Peek resolves the token without consuming it.
	Peek(ctx context.Context, tokenHash string) (int64, error)

	// Consume resolves and deletes the token atomically, so a token can be
	// redeemed at most once.
	Consume(ctx context.Context, tokenHash string) (int64, error)
}

type RedisResetTokenStore struct {
	client *redis.Client
}

func NewResetTokenStore(client *redis.Client) ResetTokenStore {
	return &RedisResetTokenStore{client: client}
}

func resetKey(hash string) string {
	return ResetTokenPrefix + hash
}

func (s *RedisResetTokenStore) Save(ctx context.Context, tokenHash string, userID int64, ttl time.Duration) error {
	if err := s.client.Set(ctx, resetKey(tokenHash), userID, ttl).Err(); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	return nil
}

func (s *RedisResetTokenStore) Peek(ctx context.Context, tokenHash string) (int64, error) {
	return parseUserID(s.client.Get(ctx, resetKey(tokenHash)).Result())
}

func (s *RedisResetTokenStore) Consume(ctx context.Context, tokenHash string) (int64, error) {
	return parseUserID(s.client.GetDel(ctx, resetKey(tokenHash)).Result())
}

func parseUserID(val string, err error) (int64, error) {
	if err == redis.Nil {
		return 0, ErrMiss
	}
	if err != nil {
		return 0, fmt.Errorf("read reset token: %w", err)
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse reset token value: %w", err)
	}
	return id, nil
}
