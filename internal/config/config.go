package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	ServerPort  string
	FrontendURL string
	AppBaseURL  string

	RedisURL string

	JWTSecret string

	TokenMaxAge           int
	SessionMaxAge         int
	SessionRememberMaxAge int
	CookieSecure          bool

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	UploadMaxBytes int64
	UploadTimeout  time.Duration

	DefaultProfilePhotoURL string
	DefaultProfilePhotoKey string
	DefaultCoverPhotoURL   string
	DefaultCoverPhotoKey   string

	SESRegion    string
	MailFrom     string
	MailFromName string

	ResetTokenTTL        time.Duration
	VerificationDuration time.Duration

	RateLimitMax    int
	RateLimitWindow time.Duration

	AssetWorkers int

	LogLevel string
	LogFile  string
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	appBaseURL := strings.TrimSuffix(os.Getenv("APP_BASE_URL"), "/")
	if appBaseURL == "" {
		appBaseURL = "http://localhost:" + serverPort
	}

	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "require"
	}

	return &Config{
		AppEnv: os.Getenv("APP_ENV"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      os.Getenv("DB_PORT"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		DBSSLMode:   sslMode,

		ServerPort:  serverPort,
		FrontendURL: os.Getenv("FRONTEND_URL"),
		AppBaseURL:  appBaseURL,

		RedisURL: redisURL,

		JWTSecret: os.Getenv("JWT_SECRET"),

		TokenMaxAge:           intEnv("TOKEN_MAX_AGE", 604800),
		SessionMaxAge:         intEnv("SESSION_MAX_AGE", 604800),
		SessionRememberMaxAge: intEnv("SESSION_REMEMBER_MAX_AGE", 2592000),
		CookieSecure:          os.Getenv("COOKIE_SECURE") == "true",

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),

		UploadMaxBytes: int64(intEnv("UPLOAD_MAX_BYTES", 5*1024*1024)),
		UploadTimeout:  secondsEnv("UPLOAD_TIMEOUT", 60),

		DefaultProfilePhotoURL: os.Getenv("DEFAULT_PROFILE_PHOTO_URL"),
		DefaultProfilePhotoKey: os.Getenv("DEFAULT_PROFILE_PHOTO_KEY"),
		DefaultCoverPhotoURL:   os.Getenv("DEFAULT_COVER_PHOTO_URL"),
		DefaultCoverPhotoKey:   os.Getenv("DEFAULT_COVER_PHOTO_KEY"),

		SESRegion:    os.Getenv("SES_REGION"),
		MailFrom:     os.Getenv("MAIL_FROM"),
		MailFromName: os.Getenv("MAIL_FROM_NAME"),

		ResetTokenTTL:        secondsEnv("RESET_TOKEN_TTL", 3600),
		VerificationDuration: secondsEnv("VERIFICATION_DURATION", 120),

		RateLimitMax:    intEnv("RATE_LIMIT_MAX", 100),
		RateLimitWindow: secondsEnv("RATE_LIMIT_WINDOW", 900),

		AssetWorkers: intEnv("ASSET_WORKERS", 2),

		LogLevel: os.Getenv("LOG_LEVEL"),
		LogFile:  os.Getenv("LOG_FILE"),
	}, nil
}

// ProtectedAssetKeys lists storage keys that must never be deleted.
func (c *Config) ProtectedAssetKeys() []string {
	var keys []string
	for _, k := range []string{c.DefaultProfilePhotoKey, c.DefaultCoverPhotoKey} {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func (c *Config) IsTest() bool {
	return c.AppEnv == "test"
}

func intEnv(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func secondsEnv(key string, fallback int) time.Duration {
	return time.Duration(intEnv(key, fallback)) * time.Second
}
