package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"xclone/internal/config"
	"xclone/internal/httputil"
	"xclone/internal/model"
	"xclone/internal/service"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService     *service.UserService
	authService     *service.AuthService
	passwordService *service.PasswordService
	config          *config.Config
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, authService *service.AuthService, passwordService *service.PasswordService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService:     userService,
		authService:     authService,
		passwordService: passwordService,
		config:          cfg,
	}
}

// Register handles POST /register
// Creates the account, opens a session and returns the user with a token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "Username, email and password are required")
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, "Register")
		return
	}

	h.startSession(w, r, user, false, http.StatusCreated)
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Email == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "Email and password are required")
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, "Login")
		return
	}

	h.startSession(w, r, user, req.Remember, http.StatusOK)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *model.User, remember bool, status int) {
	sessionID, maxAge, err := h.authService.CreateSession(r.Context(), user.ID, remember)
	if err != nil {
		writeServiceError(w, r, err, "Create session")
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		writeServiceError(w, r, err, "Generate token")
		return
	}

	setSessionCookie(w, h.config, sessionID, maxAge)
	httputil.WriteJSON(w, status, model.AuthResponse{User: user, Token: token})
}

// Logout handles POST /logout
// Destroys the server-side session. Bearer tokens simply expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(model.SessionCookieName); err == nil {
		if err := h.authService.DestroySession(r.Context(), cookie.Value); err != nil {
			writeServiceError(w, r, err, "Logout")
			return
		}
	}

	clearSessionCookie(w, h.config)
	httputil.WriteMessage(w, http.StatusOK, "Logged out successfully")
}

// ForgotPasswordForm handles GET /forgot-password
func (h *AuthHandler) ForgotPasswordForm(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Submit your account email to receive a reset link",
		"fields":  []string{"email"},
	})
}

// ForgotPassword handles POST /forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.passwordService.RequestReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err, "Send reset link")
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "Password reset link sent to your email")
}

// ResetPasswordForm handles GET /reset-password/{token}
// Reports whether the link is still usable without consuming it.
func (h *AuthHandler) ResetPasswordForm(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if err := h.passwordService.CheckReset(r.Context(), token); err != nil {
		writeServiceError(w, r, err, "Check reset link")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"valid": true,
		"token": token,
	})
}

// ResetPassword handles POST /reset-password/{token}
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.passwordService.ResetPassword(r.Context(), chi.URLParam(r, "token"), &req); err != nil {
		writeServiceError(w, r, err, "Reset password")
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "Password has been reset successfully")
}

// sameSite is Lax for same-origin deployments and None when the cookie must
// cross origins, which browsers only accept together with Secure.
func sameSite(cfg *config.Config) http.SameSite {
	if cfg.CookieSecure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func setSessionCookie(w http.ResponseWriter, cfg *config.Config, sessionID string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     model.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: sameSite(cfg),
	})
}

func clearSessionCookie(w http.ResponseWriter, cfg *config.Config) {
	http.SetCookie(w, &http.Cookie{
		Name:     model.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: sameSite(cfg),
	})
}
