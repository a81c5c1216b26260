package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"xclone/internal/model"
)

// fakeAuthenticator accepts the token "good" and the session "live".
type fakeAuthenticator struct{}

func (fakeAuthenticator) ParseToken(token string) (*model.TokenClaims, error) {
	if token != "good" {
		return nil, model.ErrTokenInvalid
	}
	return &model.TokenClaims{UserID: 7, Username: "alice", Email: "alice@example.com"}, nil
}

func (fakeAuthenticator) ResolveSession(ctx context.Context, sessionID string) (int64, error) {
	if sessionID != "live" {
		return 0, model.ErrSessionNotFound
	}
	return 9, nil
}

// echoIdentity writes the user id it sees, or "anon".
var echoIdentity = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if id, ok := GetUserIDFromContext(r.Context()); ok {
		w.Header().Set("X-User", GetUsernameFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte{byte('0' + id)})
		return
	}
	_, _ = w.Write([]byte("anon"))
})

func request(bearer, session, accept string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	if bearer != "" {
		r.Header.Set("Authorization", "Bearer "+bearer)
	}
	if session != "" {
		r.AddCookie(&http.Cookie{Name: model.SessionCookieName, Value: session})
	}
	if accept != "" {
		r.Header.Set("Accept", accept)
	}
	return r
}

func TestAuthenticate(t *testing.T) {
	h := Authenticate(fakeAuthenticator{})(echoIdentity)

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
		wantBody   string
	}{
		{"bearer token", request("good", "", ""), http.StatusOK, "7"},
		{"session cookie", request("", "live", ""), http.StatusOK, "9"},
		{"bad token falls back to session", request("bad", "live", ""), http.StatusOK, "9"},
		{"token wins over session", request("good", "live", ""), http.StatusOK, "7"},
		{"json client rejected", request("", "", "application/json"), http.StatusUnauthorized, ""},
		{"page load redirected", request("", "dead", "text/html"), http.StatusFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tt.req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
			if tt.wantStatus == http.StatusFound {
				assert.Equal(t, "/login", rec.Header().Get("Location"))
			}
		})
	}
}

func TestAuthenticate_XHRGetsJSON(t *testing.T) {
	r := request("", "", "")
	r.Header.Set("X-Requested-With", "XMLHttpRequest")
	rec := httptest.NewRecorder()

	Authenticate(fakeAuthenticator{})(echoIdentity).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"UNAUTHORIZED"`)
}

func TestRequireToken(t *testing.T) {
	h := RequireToken(fakeAuthenticator{})(echoIdentity)

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
	}{
		{"valid", request("good", "", ""), http.StatusOK},
		{"missing header", request("", "live", ""), http.StatusUnauthorized},
		{"invalid token", request("bad", "", ""), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tt.req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request("good", "", ""))
	assert.Equal(t, "alice", rec.Header().Get("X-User"))
}

// Expired and malformed tokens are not told apart.
func TestRequireToken_RejectionsUseInvalidCode(t *testing.T) {
	h := RequireToken(fakeAuthenticator{})(echoIdentity)

	for _, token := range []string{"bad", "expired"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request(token, "", ""))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"`+model.CodeTokenInvalid+`"`)
	}
}

func TestContextWithIdentity(t *testing.T) {
	ctx := ContextWithIdentity(context.Background(), &model.TokenClaims{UserID: 3, Username: "bo", Email: "bo@example.com"})

	id, ok := GetUserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
	assert.Equal(t, "bo", GetUsernameFromContext(ctx))

	_, ok = GetUserIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestOptionalAuth(t *testing.T) {
	h := OptionalAuth(fakeAuthenticator{})(echoIdentity)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request("bad", "", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anon", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request("", "live", ""))
	assert.Equal(t, "9", rec.Body.String())
}
