package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("TOKEN_MAX_AGE", "")
	t.Setenv("RATE_LIMIT_MAX", "")
	t.Setenv("RATE_LIMIT_WINDOW", "")
	t.Setenv("VERIFICATION_DURATION", "")
	t.Setenv("RESET_TOKEN_TTL", "")
	t.Setenv("UPLOAD_MAX_BYTES", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 604800, cfg.TokenMaxAge)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 2*time.Minute, cfg.VerificationDuration)
	assert.Equal(t, time.Hour, cfg.ResetTokenTTL)
	assert.Equal(t, int64(5*1024*1024), cfg.UploadMaxBytes)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("VERIFICATION_DURATION", "30")
	t.Setenv("TOKEN_MAX_AGE", "-1")
	t.Setenv("APP_ENV", "test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.RateLimitMax)
	assert.Equal(t, 30*time.Second, cfg.VerificationDuration)
	assert.Equal(t, 604800, cfg.TokenMaxAge, "non-positive values fall back to the default")
	assert.True(t, cfg.IsTest())
}

func TestProtectedAssetKeys(t *testing.T) {
	cfg := &Config{DefaultProfilePhotoKey: "profile_images", DefaultCoverPhotoKey: ""}
	assert.Equal(t, []string{"profile_images"}, cfg.ProtectedAssetKeys())
}
