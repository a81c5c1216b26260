package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"xclone/internal/httputil"
	"xclone/internal/logger"
	"xclone/internal/metrics"
)

// RateLimitPrefix is the key prefix of the per-client sorted sets.
const RateLimitPrefix = "rl:"

// RateLimiter is a sliding-window limiter over a Redis sorted set per client.
// Each request is a member scored by its timestamp.
type RateLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(rdb *redis.Client, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, max: max, window: window, now: time.Now}
}

// Allow records one request for client and reports whether it is within the limit.
func (l *RateLimiter) Allow(ctx context.Context, client string) (bool, error) {
	now := l.now()
	key := RateLimitPrefix + client
	windowStart := now.Add(-l.window).UnixMilli()

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()),
	})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit pipeline: %w", err)
	}
	return count.Val() <= int64(l.max), nil
}

// Middleware rejects clients over the limit with 429. Redis errors let the
// request through.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		allowed, err := l.Allow(r.Context(), ip)
		if err != nil {
			logger.Log.Warn("[RateLimit] Check failed, allowing request", zap.String("ip", ip), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			metrics.RateLimited.Inc()
			httputil.WriteTooManyRequests(w, "Too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit builds the limiter middleware, or a pass-through when disabled.
func RateLimit(rdb *redis.Client, max int, window time.Duration, disabled bool) func(http.Handler) http.Handler {
	if disabled || rdb == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return NewRateLimiter(rdb, max, window).Middleware
}

// clientIP strips the port from RemoteAddr, which chi's RealIP has already
// rewritten from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
