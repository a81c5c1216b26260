package handler

import (
	"net/http"
	"strconv"

	"xclone/internal/httputil"
	"xclone/internal/model"
	"xclone/internal/service"
)

type PostHandler struct {
	postService *service.PostService
	maxUpload   int64
}

func NewPostHandler(postService *service.PostService, maxUpload int64) *PostHandler {
	if maxUpload <= 0 {
		maxUpload = model.DefaultMaxUploadBytes
	}
	return &PostHandler{
		postService: postService,
		maxUpload:   maxUpload,
	}
}

// postInput is the content and image of a create or edit request. Content is
// nil when the field was not sent.
type postInput struct {
	content *string
	image   *service.Upload
}

// readPostInput accepts a JSON body or a multipart/urlencoded form with
// "content" and an optional "image" part.
func (h *PostHandler) readPostInput(w http.ResponseWriter, r *http.Request) (*postInput, bool) {
	if isJSON(r) {
		var body struct {
			Content *string `json:"content"`
		}
		if !decodeJSON(w, r, &body) {
			return nil, false
		}
		return &postInput{content: body.Content}, true
	}

	if !parseForm(w, r, h.maxUpload) {
		return nil, false
	}
	image, ok := formFile(w, r, "image")
	if !ok {
		return nil, false
	}
	return &postInput{content: optionalField(r, "content"), image: image}, true
}

// Create handles POST /api/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	in, ok := h.readPostInput(w, r)
	if !ok {
		return
	}
	defer closeUpload(in.image)

	var content string
	if in.content != nil {
		content = *in.content
	}

	post, err := h.postService.Create(r.Context(), userID, content, in.image)
	if err != nil {
		writeServiceError(w, r, err, "Create post")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// Feed handles GET /api/posts?page=&limit=
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(w, r, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", model.DefaultFeedPageSize)
	if !ok {
		return
	}

	feed, err := h.postService.Feed(r.Context(), page, limit, viewerID(r))
	if err != nil {
		writeServiceError(w, r, err, "Get feed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, feed)
}

// GetByID handles GET /api/posts/{id}
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	postID, ok := idParam(w, r, "id", "post ID")
	if !ok {
		return
	}

	post, err := h.postService.Get(r.Context(), postID, viewerID(r))
	if err != nil {
		writeServiceError(w, r, err, "Get post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Update handles PUT /api/posts/{id}
// Only the author can edit.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := idParam(w, r, "id", "post ID")
	if !ok {
		return
	}

	in, ok := h.readPostInput(w, r)
	if !ok {
		return
	}
	defer closeUpload(in.image)

	post, err := h.postService.Update(r.Context(), userID, postID, in.content, in.image)
	if err != nil {
		writeServiceError(w, r, err, "Update post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /api/posts/{id}
// Only the author can delete.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := idParam(w, r, "id", "post ID")
	if !ok {
		return
	}

	if err := h.postService.Delete(r.Context(), userID, postID); err != nil {
		writeServiceError(w, r, err, "Delete post")
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "Post deleted successfully")
}

// Like handles POST /api/posts/{id}/like
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := idParam(w, r, "id", "post ID")
	if !ok {
		return
	}

	res, err := h.postService.ToggleLike(r.Context(), userID, postID)
	if err != nil {
		writeServiceError(w, r, err, "Like post")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// Bookmark handles POST /api/posts/{id}/bookmark
func (h *PostHandler) Bookmark(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := idParam(w, r, "id", "post ID")
	if !ok {
		return
	}

	res, err := h.postService.ToggleBookmark(r.Context(), userID, postID)
	if err != nil {
		writeServiceError(w, r, err, "Bookmark post")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func queryInt(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		httputil.WriteBadRequest(w, "Invalid "+name+" parameter")
		return 0, false
	}
	return v, true
}
