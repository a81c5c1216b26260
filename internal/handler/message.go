package handler

import (
	"net/http"

	"xclone/internal/httputil"
	"xclone/internal/model"
	"xclone/internal/service"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// Send handles POST /api/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	senderID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messageService.Send(r.Context(), senderID, req)
	if err != nil {
		writeServiceError(w, r, err, "Send message")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, msg)
}

// Inbox handles GET /api/messages
func (h *MessageHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	msgs, err := h.messageService.Inbox(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Get messages")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, msgs)
}

// Conversation handles GET /api/messages/{userId}
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	otherID, ok := idParam(w, r, "userId", "user ID")
	if !ok {
		return
	}

	msgs, err := h.messageService.Conversation(r.Context(), userID, otherID)
	if err != nil {
		writeServiceError(w, r, err, "Get conversation")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, msgs)
}
