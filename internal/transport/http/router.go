package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"xclone/internal/handler"
	"xclone/internal/httputil"
	"xclone/internal/metrics"
	authmw "xclone/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	FollowHandler       *handler.FollowHandler
	PostHandler         *handler.PostHandler
	ReplyHandler        *handler.ReplyHandler
	MessageHandler      *handler.MessageHandler
	NotificationHandler *handler.NotificationHandler
	RealtimeHandler     *handler.RealtimeHandler

	Authenticator authmw.Authenticator
	RateLimit     func(http.Handler) http.Handler
	HealthCheck   func(r *http.Request) error
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(authmw.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(authmw.Metrics)

	authenticate := authmw.Authenticate(cfg.Authenticator)
	requireToken := authmw.RequireToken(cfg.Authenticator)
	optionalAuth := authmw.OptionalAuth(cfg.Authenticator)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.HealthCheck != nil {
			if err := cfg.HealthCheck(r); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	// Public auth pages and actions
	r.Group(func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}

		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/logout", cfg.AuthHandler.Logout)
		r.Get("/forgot-password", cfg.AuthHandler.ForgotPasswordForm)
		r.Post("/forgot-password", cfg.AuthHandler.ForgotPassword)
		r.Get("/reset-password/{token}", cfg.AuthHandler.ResetPasswordForm)
		r.Post("/reset-password/{token}", cfg.AuthHandler.ResetPassword)
	})

	r.With(authenticate).Get("/ws", cfg.RealtimeHandler.Serve)
	r.With(authenticate).Get("/ws/stats", cfg.RealtimeHandler.Stats)

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}

		r.With(optionalAuth).Get("/search", cfg.UserHandler.Search)

		r.Route("/users", func(r chi.Router) {
			r.With(authenticate).Get("/", cfg.UserHandler.List)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Get("/me", cfg.UserHandler.Me)
				r.Get("/me/bookmarks", cfg.UserHandler.Bookmarks)
				r.Get("/me/premium", cfg.UserHandler.Premium)
				r.Post("/me/premium", cfg.UserHandler.Verify)
			})

			// {user} is a username on reads and follow routes, an id on
			// account and block routes.
			r.With(optionalAuth).Get("/{user}", cfg.UserHandler.GetProfile)
			r.With(optionalAuth).Get("/{user}/followers", cfg.FollowHandler.GetFollowers)
			r.With(optionalAuth).Get("/{user}/following", cfg.FollowHandler.GetFollowing)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/{user}/follow", cfg.FollowHandler.Follow)
				r.Post("/{user}/unfollow", cfg.FollowHandler.Unfollow)
				r.Put("/{user}", cfg.UserHandler.Update)
				r.Delete("/{user}", cfg.UserHandler.Delete)
				r.Post("/{user}/block", cfg.FollowHandler.Block)
				r.Post("/{user}/unblock", cfg.FollowHandler.Unblock)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.With(optionalAuth).Get("/", cfg.PostHandler.Feed)
			r.With(optionalAuth).Get("/{id}", cfg.PostHandler.GetByID)
			r.With(optionalAuth).Get("/{id}/comments", cfg.ReplyHandler.List)

			// Content writes accept bearer tokens only.
			r.Group(func(r chi.Router) {
				r.Use(requireToken)
				r.Post("/", cfg.PostHandler.Create)
				r.Put("/{id}", cfg.PostHandler.Update)
				r.Delete("/{id}", cfg.PostHandler.Delete)
				r.Post("/{id}/like", cfg.PostHandler.Like)
				r.Post("/{id}/bookmark", cfg.PostHandler.Bookmark)
				r.Post("/{id}/reply", cfg.ReplyHandler.Create)
				r.Post("/{id}/comments/{commentId}/like", cfg.ReplyHandler.Like)
				r.Put("/{id}/comments/{commentId}", cfg.ReplyHandler.Update)
				r.Delete("/{id}/comments/{commentId}", cfg.ReplyHandler.Delete)
			})
		})

		r.Route("/messages", func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", cfg.MessageHandler.Send)
			r.Get("/", cfg.MessageHandler.Inbox)
			r.Get("/{userId}", cfg.MessageHandler.Conversation)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", cfg.NotificationHandler.List)
			r.Post("/read-all", cfg.NotificationHandler.MarkAllRead)
			r.Post("/{id}/read", cfg.NotificationHandler.MarkRead)
		})
	})

	return r
}
