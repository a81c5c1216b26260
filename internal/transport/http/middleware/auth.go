package middleware

import (
	"context"
	"net/http"
	"strings"

	"xclone/internal/httputil"
	"xclone/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user's ID
	UserIDKey   contextKey = "user_id"
	UsernameKey contextKey = "username"
)

// Authenticator resolves bearer tokens and session ids to an identity.
type Authenticator interface {
	ParseToken(token string) (*model.TokenClaims, error)
	ResolveSession(ctx context.Context, sessionID string) (int64, error)
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", true
	}
	return parts[1], true
}

// identify tries the bearer token, then the session cookie.
func identify(auth Authenticator, r *http.Request) (*model.TokenClaims, bool) {
	if token, ok := bearerToken(r); ok && token != "" {
		if claims, err := auth.ParseToken(token); err == nil {
			return claims, true
		}
	}

	cookie, err := r.Cookie(model.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	userID, err := auth.ResolveSession(r.Context(), cookie.Value)
	if err != nil {
		return nil, false
	}
	return &model.TokenClaims{UserID: userID}, true
}

// wantsJSON reports whether the client is an API caller rather than a browser page load.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "json") ||
		r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

// Authenticate accepts a valid bearer token or, failing that, a live session
// cookie. Unauthenticated JSON clients get 401; page loads are redirected to
// /login.
func Authenticate(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := identify(auth, r)
			if !ok {
				if wantsJSON(r) {
					httputil.WriteUnauthorized(w, "Authentication required")
					return
				}
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), claims)))
		})
	}
}

// RequireToken accepts bearer tokens only. A missing header is 401, a bad or
// expired token is 403.
func RequireToken(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present := bearerToken(r)
			if !present {
				httputil.WriteUnauthorized(w, "No token provided")
				return
			}
			if token == "" {
				httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid token format")
				return
			}

			claims, err := auth.ParseToken(token)
			if err != nil {
				httputil.WriteError(w, http.StatusForbidden, model.CodeTokenInvalid, "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), claims)))
		})
	}
}

// OptionalAuth attaches an identity when one resolves and never rejects.
func OptionalAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, ok := identify(auth, r); ok {
				r = r.WithContext(ContextWithIdentity(r.Context(), claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithIdentity stores the caller's identity. Session identities carry
// only the user id.
func ContextWithIdentity(ctx context.Context, claims *model.TokenClaims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	return context.WithValue(ctx, UsernameKey, claims.Username)
}

// GetUserIDFromContext extracts the user ID from the request context
// Returns the user ID and true if found, or 0 and false if not found
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

func GetUsernameFromContext(ctx context.Context) string {
	username, _ := ctx.Value(UsernameKey).(string)
	return username
}
