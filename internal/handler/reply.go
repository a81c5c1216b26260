package handler

import (
	"net/http"

	"xclone/internal/httputil"
	"xclone/internal/model"
	"xclone/internal/service"
)

// ReplyHandler serves the comment routes nested under a post.
type ReplyHandler struct {
	replyService *service.ReplyService
}

func NewReplyHandler(replyService *service.ReplyService) *ReplyHandler {
	return &ReplyHandler{
		replyService: replyService,
	}
}

// Create handles POST /api/posts/{id}/reply
func (h *ReplyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := idParam(w, r, "id", "post ID")
	if !ok {
		return
	}

	var req model.ReplyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.replyService.Create(r.Context(), postID, userID, req)
	if err != nil {
		writeServiceError(w, r, err, "Add comment")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, reply)
}

// List handles GET /api/posts/{id}/comments
func (h *ReplyHandler) List(w http.ResponseWriter, r *http.Request) {
	postID, ok := idParam(w, r, "id", "post ID")
	if !ok {
		return
	}

	replies, err := h.replyService.List(r.Context(), postID)
	if err != nil {
		writeServiceError(w, r, err, "Get comments")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, replies)
}

// Like handles POST /api/posts/{id}/comments/{commentId}/like
func (h *ReplyHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, postID, replyID, ok := replyTarget(w, r)
	if !ok {
		return
	}

	res, err := h.replyService.ToggleLike(r.Context(), postID, replyID, userID)
	if err != nil {
		writeServiceError(w, r, err, "Like comment")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// Update handles PUT /api/posts/{id}/comments/{commentId}
func (h *ReplyHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, postID, replyID, ok := replyTarget(w, r)
	if !ok {
		return
	}

	var req model.ReplyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.replyService.Update(r.Context(), postID, replyID, userID, req)
	if err != nil {
		writeServiceError(w, r, err, "Edit comment")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reply)
}

// Delete handles DELETE /api/posts/{id}/comments/{commentId}
func (h *ReplyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, postID, replyID, ok := replyTarget(w, r)
	if !ok {
		return
	}

	if err := h.replyService.Delete(r.Context(), postID, replyID, userID); err != nil {
		writeServiceError(w, r, err, "Delete comment")
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "Comment deleted successfully")
}

func replyTarget(w http.ResponseWriter, r *http.Request) (userID, postID, replyID int64, ok bool) {
	if userID, ok = requireUser(w, r); !ok {
		return
	}
	if postID, ok = idParam(w, r, "id", "post ID"); !ok {
		return
	}
	replyID, ok = idParam(w, r, "commentId", "comment ID")
	return
}
