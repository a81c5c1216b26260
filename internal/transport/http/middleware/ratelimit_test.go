package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func hit(h http.Handler, ip string) int {
	r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	r.RemoteAddr = ip + ":5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec.Code
}

func TestRateLimiter_BlocksOverLimitPerIP(t *testing.T) {
	_, client := setupRedis(t)
	h := NewRateLimiter(client, 3, time.Minute).Middleware(okHandler)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, hit(h, "10.0.0.1"), "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2"), "other clients are unaffected")
}

func TestRateLimiter_RecoversAfterWindow(t *testing.T) {
	_, client := setupRedis(t)
	limiter := NewRateLimiter(client, 2, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, allowed)
	}
	allowed, _ := limiter.Allow(ctx, "1.2.3.4")
	assert.False(t, allowed)

	now = now.Add(time.Minute + time.Second)
	allowed, err := limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_SetsExpiry(t *testing.T) {
	mr, client := setupRedis(t)
	limiter := NewRateLimiter(client, 5, time.Minute)

	_, err := limiter.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL(RateLimitPrefix+"1.2.3.4"))
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	mr, client := setupRedis(t)
	h := NewRateLimiter(client, 1, time.Minute).Middleware(okHandler)
	mr.Close()

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1"))
}

func TestRateLimit_DisabledIsPassThrough(t *testing.T) {
	_, client := setupRedis(t)
	h := RateLimit(client, 1, time.Minute, true)(okHandler)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1"))
	}
}
