package handler

import (
	"net/http"

	"xclone/internal/httputil"
	"xclone/internal/model"
	"xclone/internal/service"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", model.DefaultNotificationLimit)
	if !ok {
		return
	}

	resp, err := h.notificationService.List(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, r, err, "Get notifications")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// MarkRead handles POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	notificationID, ok := idParam(w, r, "id", "notification ID")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), userID, notificationID); err != nil {
		writeServiceError(w, r, err, "Mark notification read")
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "Notification marked as read")
}

// MarkAllRead handles POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAllRead(r.Context(), userID); err != nil {
		writeServiceError(w, r, err, "Mark notifications read")
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "All notifications marked as read")
}
