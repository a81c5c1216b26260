package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"xclone/internal/config"
	"xclone/internal/httputil"
	"xclone/internal/model"
	"xclone/internal/service"
)

type UserHandler struct {
	userService *service.UserService
	postService *service.PostService
	authService *service.AuthService
	config      *config.Config
}

func NewUserHandler(userService *service.UserService, postService *service.PostService, authService *service.AuthService, cfg *config.Config) *UserHandler {
	return &UserHandler{
		userService: userService,
		postService: postService,
		authService: authService,
		config:      cfg,
	}
}

// Me handles GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]*model.User{"user": user})
}

// List handles GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "List users")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

// GetProfile handles GET /api/users/{user}, where {user} is a username.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userService.GetProfile(r.Context(), chi.URLParam(r, "user"), viewerID(r))
	if err != nil {
		writeServiceError(w, r, err, "Get profile")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// Update handles PUT /api/users/{user}, where {user} is a numeric id.
// Multipart fields: username, email, Image (profile photo), cover.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}
	targetID, ok := idParam(w, r, "user", "user ID")
	if !ok {
		return
	}

	if !parseForm(w, r, 2*h.config.UploadMaxBytes) {
		return
	}

	profileImage, ok := formFile(w, r, "Image")
	if !ok {
		return
	}
	defer closeUpload(profileImage)

	coverImage, ok := formFile(w, r, "cover")
	if !ok {
		return
	}
	defer closeUpload(coverImage)

	req := &model.UpdateProfileRequest{
		Username: optionalField(r, "username"),
		Email:    optionalField(r, "email"),
	}

	user, err := h.userService.UpdateProfile(r.Context(), actorID, targetID, req, profileImage, coverImage)
	if err != nil {
		writeServiceError(w, r, err, "Update profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// Delete handles DELETE /api/users/{user}
// Removes the account and everything it owns, then ends the session.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}
	targetID, ok := idParam(w, r, "user", "user ID")
	if !ok {
		return
	}

	if err := h.userService.DeleteAccount(r.Context(), actorID, targetID); err != nil {
		writeServiceError(w, r, err, "Delete account")
		return
	}

	if cookie, err := r.Cookie(model.SessionCookieName); err == nil {
		_ = h.authService.DestroySession(r.Context(), cookie.Value)
	}
	clearSessionCookie(w, h.config)

	httputil.WriteMessage(w, http.StatusOK, "Account deleted successfully")
}

// Bookmarks handles GET /api/users/me/bookmarks
func (h *UserHandler) Bookmarks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	posts, err := h.postService.ListBookmarks(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "List bookmarks")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

// Premium handles GET /api/users/me/premium
func (h *UserHandler) Premium(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	status, err := h.userService.GetVerification(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Get verification")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

// Verify handles POST /api/users/me/premium
func (h *UserHandler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	status, err := h.userService.Verify(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Verify")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

// Search handles GET /api/search?q=
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.userService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err, "Search")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, results)
}
