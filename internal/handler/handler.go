package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"xclone/internal/httputil"
	"xclone/internal/logger"
	"xclone/internal/model"
	"xclone/internal/service"
	"xclone/internal/transport/http/middleware"
)

// formOverhead is the allowance for non-file multipart fields.
const formOverhead = 1 << 20

// errorStatus maps domain errors to a status and envelope code. Errors that
// are not listed are internal.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{model.ErrUserNotFound, http.StatusNotFound, httputil.ErrCodeNotFound},
	{model.ErrPostNotFound, http.StatusNotFound, httputil.ErrCodeNotFound},
	{model.ErrReplyNotFound, http.StatusNotFound, httputil.ErrCodeNotFound},
	{model.ErrNotificationNotFound, http.StatusNotFound, httputil.ErrCodeNotFound},

	{model.ErrUsernameExists, http.StatusConflict, httputil.ErrCodeConflict},
	{model.ErrEmailExists, http.StatusConflict, httputil.ErrCodeConflict},

	{model.ErrNotAccountOwner, http.StatusForbidden, httputil.ErrCodeForbidden},
	{model.ErrNotPostOwner, http.StatusForbidden, httputil.ErrCodeForbidden},
	{model.ErrNotReplyOwner, http.StatusForbidden, httputil.ErrCodeForbidden},
	{model.ErrBlocked, http.StatusForbidden, httputil.ErrCodeForbidden},

	{model.ErrInvalidCredentials, http.StatusUnauthorized, httputil.ErrCodeUnauthorized},

	{model.ErrFileTooLarge, http.StatusBadRequest, model.CodeFileTooLarge},
	{model.ErrInvalidImageType, http.StatusBadRequest, model.CodeInvalidImageType},
	{model.ErrUploadFailed, http.StatusBadRequest, model.CodeUploadFailed},

	{model.ErrUsernameRequired, http.StatusBadRequest, httputil.ErrCodeBadRequest},
	{model.ErrUsernameTooLong, http.StatusBadRequest, httputil.ErrCodeBadRequest},
	{model.ErrInvalidEmail, http.StatusBadRequest, httputil.ErrCodeBadRequest},
	{model.ErrPasswordTooShort, http.StatusBadRequest, httputil.ErrCodeBadRequest},
	{model.ErrPasswordMismatch, http.StatusBadRequest, httputil.ErrCodeBadRequest},
	{model.ErrInvalidResetToken, http.StatusBadRequest, httputil.ErrCodeBadRequest},
	{model.ErrCannotFollowSelf, http.StatusBadRequest, httputil.ErrCodeBadRequest},
	{model.ErrCannotBlockSelf, http.StatusBadRequest, httputil.ErrCodeBadRequest},
	{model.ErrCannotMessageSelf, http.StatusBadRequest, httputil.ErrCodeBadRequest},
	{model.ErrMessageContentRequired, http.StatusBadRequest, httputil.ErrCodeBadRequest},
	{model.ErrEmptyPost, http.StatusBadRequest, httputil.ErrCodeBadRequest},
	{model.ErrPostContentTooLong, http.StatusBadRequest, httputil.ErrCodeBadRequest},
	{model.ErrContentRequired, http.StatusBadRequest, httputil.ErrCodeBadRequest},
	{model.ErrContentTooLong, http.StatusBadRequest, httputil.ErrCodeBadRequest},
}

// writeServiceError answers with the mapped status, or logs err and answers
// 500 with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			message := e.err.Error()
			if e.err == model.ErrBlocked {
				message = "You cannot message this user."
			}
			httputil.WriteError(w, e.status, e.code, message)
			return
		}
	}

	logger.Log.Error("[Handler] "+action+" failed",
		zap.String("path", r.URL.Path),
		logger.WithRequestID(chimw.GetReqID(r.Context())),
		zap.Error(err))
	httputil.WriteInternalError(w, "Failed to "+strings.ToLower(action))
}

// requireUser returns the caller's id or writes 401.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return 0, false
	}
	return userID, true
}

// viewerID is the caller's id when authenticated, else nil.
func viewerID(r *http.Request) *int64 {
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		return &id
	}
	return nil
}

// idParam parses a numeric path parameter or writes 400.
func idParam(w http.ResponseWriter, r *http.Request, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteBadRequest(w, "Invalid "+label)
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

func isJSON(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

// parseForm reads a multipart or urlencoded body capped at maxBytes.
func parseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+formOverhead)

	err := r.ParseMultipartForm(maxBytes + formOverhead)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "File too large")
			return false
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return false
	}
	return true
}

// formFile returns the named upload, nil when the part is absent. The caller
// closes the returned file.
func formFile(w http.ResponseWriter, r *http.Request, field string) (*service.Upload, bool) {
	if r.MultipartForm == nil {
		return nil, true
	}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid "+field+" upload")
		return nil, false
	}
	return &service.Upload{File: file, Header: header}, true
}

func closeUpload(u *service.Upload) {
	if u != nil && u.File != nil {
		_ = u.File.Close()
	}
}

// optionalField returns a pointer to a form value only when the field was sent.
func optionalField(r *http.Request, name string) *string {
	if r.MultipartForm != nil {
		if vs, ok := r.MultipartForm.Value[name]; ok && len(vs) > 0 {
			return &vs[0]
		}
		return nil
	}
	if vs, ok := r.PostForm[name]; ok && len(vs) > 0 {
		return &vs[0]
	}
	return nil
}
