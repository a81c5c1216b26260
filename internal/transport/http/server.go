package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"xclone/internal/cache"
	"xclone/internal/config"
	"xclone/internal/database"
	"xclone/internal/handler"
	"xclone/internal/logger"
	"xclone/internal/mail"
	"xclone/internal/queue"
	"xclone/internal/realtime"
	"xclone/internal/redis"
	"xclone/internal/repository"
	"xclone/internal/service"
	"xclone/internal/transport/http/middleware"
	"xclone/internal/worker"
)

const shutdownTimeout = 15 * time.Second

// Server owns the process-wide resources behind the HTTP API.
type Server struct {
	cfg     *config.Config
	db      *sqlx.DB
	rdb     *redis.Client
	hub     *realtime.Hub
	workers *worker.Manager
	http    *stdhttp.Server
}

// NewServer connects to PostgreSQL and Redis and wires every layer.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	rdb, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	s := &Server{cfg: cfg, db: db, rdb: rdb}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	postRepo := repository.NewPostRepository(db)
	replyRepo := repository.NewReplyRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Storage and the janitor that cleans it up. Without storage credentials
	// uploads fail and nothing is queued for deletion.
	var (
		assets    service.AssetStore
		deleter   worker.AssetDeleter
		publisher queue.Publisher
	)
	media, err := service.NewMediaService(ctx, cfg)
	if err != nil {
		logger.Log.Warn("[Server] Object storage disabled", zap.Error(err))
	} else {
		assets, deleter = media, media
		publisher = queue.NewPublisher(rdb.Client)
		s.workers = worker.NewManager(
			queue.NewConsumer(rdb.Client),
			worker.NewHandler(media, cfg.ProtectedAssetKeys()...),
			worker.ManagerConfig{WorkerCount: cfg.AssetWorkers},
		)
	}
	janitor := service.NewAssetJanitor(publisher, deleter, cfg.ProtectedAssetKeys()...)

	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.SESRegion != "" && cfg.MailFrom != "" {
		ses, err := mail.NewSESMailerFromRegion(cfg.SESRegion, cfg.MailFrom, cfg.MailFromName)
		if err != nil {
			logger.Log.Warn("[Server] SES disabled, reset links will be logged", zap.Error(err))
		} else {
			mailer = ses
		}
	}

	s.hub = realtime.NewHub(rdb.Client)

	// Services
	authService := service.NewAuthService(cache.NewSessionStore(rdb.Client), cfg)
	passwordService := service.NewPasswordService(userRepo, cache.NewResetTokenStore(rdb.Client), mailer, cfg)
	notificationService := service.NewNotificationService(notificationRepo, s.hub)
	postService := service.NewPostService(postRepo, replyRepo, userRepo, assets, janitor, notificationService)
	userService := service.NewUserService(db, userRepo, followRepo, postRepo, postService, assets, janitor, cfg)
	followService := service.NewFollowService(followRepo, blockRepo, userRepo, notificationService)
	replyService := service.NewReplyService(replyRepo, postRepo, notificationService)
	messageService := service.NewMessageService(messageRepo, userRepo, blockRepo, s.hub, notificationService)

	router := NewRouter(RouterConfig{
		AuthHandler:         handler.NewAuthHandler(userService, authService, passwordService, cfg),
		UserHandler:         handler.NewUserHandler(userService, postService, authService, cfg),
		FollowHandler:       handler.NewFollowHandler(followService),
		PostHandler:         handler.NewPostHandler(postService, cfg.UploadMaxBytes),
		ReplyHandler:        handler.NewReplyHandler(replyService),
		MessageHandler:      handler.NewMessageHandler(messageService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		RealtimeHandler:     handler.NewRealtimeHandler(s.hub, cfg.FrontendURL),
		Authenticator:       authService,
		RateLimit:           middleware.RateLimit(rdb.Client, cfg.RateLimitMax, cfg.RateLimitWindow, cfg.IsTest()),
		HealthCheck:         s.healthCheck,
	})

	s.http = &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) healthCheck(r *stdhttp.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return err
	}
	return s.rdb.Ping(ctx)
}

// Run serves until ctx is cancelled, then drains connections and stops the
// background workers.
func (s *Server) Run(ctx context.Context) error {
	if s.workers != nil {
		if err := s.workers.Start(ctx); err != nil {
			return fmt.Errorf("start asset workers: %w", err)
		}
	}

	if err := s.hub.Listen(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("[Server] Listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Log.Info("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.hub.Shutdown()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases connections. Call after Run returns.
func (s *Server) Close() {
	if s.workers != nil {
		s.workers.Stop()
	}
	if err := s.rdb.Close(); err != nil {
		logger.Log.Warn("[Server] Redis close failed", zap.Error(err))
	}
	if err := s.db.Close(); err != nil {
		logger.Log.Warn("[Server] Database close failed", zap.Error(err))
	}
}
