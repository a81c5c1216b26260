package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"xclone/internal/httputil"
	"xclone/internal/logger"
	"xclone/internal/realtime"
)

type RealtimeHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewRealtimeHandler accepts websocket upgrades from allowedOrigin, or from
// any origin when it is empty.
func NewRealtimeHandler(hub *realtime.Hub, allowedOrigin string) *RealtimeHandler {
	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// Serve handles GET /ws
// The connection joins the caller's own room and receives its events.
func (h *RealtimeHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logger.Log.Warn("[Realtime] Upgrade failed", logger.WithUserID(userID), zap.Error(err))
		return
	}

	client := realtime.NewClient(h.hub, conn, userID)
	if err := h.hub.Register(client); err != nil {
		if errors.Is(err, realtime.ErrTooManyConnections) {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
		}
		_ = conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump()
}

// Stats handles GET /ws/stats for the caller's own room.
func (h *RealtimeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{
		"connections": h.hub.RoomSize(realtime.UserRoom(userID)),
	})
}
