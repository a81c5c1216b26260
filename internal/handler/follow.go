package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"xclone/internal/httputil"
	"xclone/internal/service"
)

type FollowHandler struct {
	followService *service.FollowService
}

func NewFollowHandler(followService *service.FollowService) *FollowHandler {
	return &FollowHandler{
		followService: followService,
	}
}

// Follow handles POST /api/users/{user}/follow
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.followService.Follow(r.Context(), followerID, chi.URLParam(r, "user")); err != nil {
		writeServiceError(w, r, err, "Follow user")
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "Successfully followed user")
}

// Unfollow handles POST /api/users/{user}/unfollow
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.followService.Unfollow(r.Context(), followerID, chi.URLParam(r, "user")); err != nil {
		writeServiceError(w, r, err, "Unfollow user")
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "Successfully unfollowed user")
}

// GetFollowers handles GET /api/users/{user}/followers
func (h *FollowHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	res, err := h.followService.GetFollowers(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		writeServiceError(w, r, err, "Get followers")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// GetFollowing handles GET /api/users/{user}/following
func (h *FollowHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	res, err := h.followService.GetFollowing(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		writeServiceError(w, r, err, "Get following")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// Block handles POST /api/users/{user}/block, where {user} is a numeric id.
func (h *FollowHandler) Block(w http.ResponseWriter, r *http.Request) {
	blockerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	targetID, ok := idParam(w, r, "user", "user ID")
	if !ok {
		return
	}

	res, err := h.followService.Block(r.Context(), blockerID, targetID)
	if err != nil {
		writeServiceError(w, r, err, "Block user")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// Unblock handles POST /api/users/{user}/unblock
func (h *FollowHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	blockerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	targetID, ok := idParam(w, r, "user", "user ID")
	if !ok {
		return
	}

	res, err := h.followService.Unblock(r.Context(), blockerID, targetID)
	if err != nil {
		writeServiceError(w, r, err, "Unblock user")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
