package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"xclone/internal/logger"
	"xclone/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// inbound is the only frame clients may send.
type inbound struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

// Client is one WebSocket connection owned by an authenticated user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	UserID int64

	// guarded by hub.mu
	rooms map[string]struct{}

	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		UserID: userID,
		rooms:  make(map[string]struct{}),
	}
}

// TrySend queues a frame, dropping it when the client is too slow.
func (c *Client) TrySend(frame []byte) {
	defer func() {
		// send is closed
		_ = recover()
	}()

	select {
	case c.send <- frame:
	default:
		metrics.RealtimeDrops.Inc()
		logger.Log.Warn("[Realtime] Send buffer full, dropped frame", zap.Int64("user_id", c.UserID))
	}
}

// Close stops the write pump, which then closes the connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// handleInbound processes a client frame. Joining any room other than the
// caller's own is refused.
func (c *Client) handleInbound(raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if msg.Type != "join" {
		return
	}
	if msg.Room != UserRoom(c.UserID) {
		logger.Log.Warn("[Realtime] Refused join to foreign room",
			zap.Int64("user_id", c.UserID), zap.String("room", msg.Room))
		return
	}
	c.hub.Join(c, msg.Room)
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Debug("[Realtime] Read error", zap.Int64("user_id", c.UserID), zap.Error(err))
			}
			return
		}
		c.handleInbound(message)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
