package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"xclone/internal/logger"
	"xclone/internal/metrics"
)

const (
	// ChannelPrefix + room is the Redis pub/sub channel for a room.
	ChannelPrefix = "rt:room:"

	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

var ErrTooManyConnections = errors.New("connection limit reached")

// Broadcaster emits an event to every client currently in a room.
type Broadcaster interface {
	Emit(ctx context.Context, room, event string, payload any) error
}

// Frame is what clients receive.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// UserRoom is the room every connection of a user joins.
func UserRoom(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Hub tracks local clients per room. With a Redis client, emits are published
// and delivered by whichever instance holds the room's connections.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]map[*Client]struct{}
	totalConns int

	rdb *redis.Client
}

func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		rdb:   rdb,
	}
}

// Register adds a client and joins it to its own user room.
func (h *Hub) Register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return ErrTooManyConnections
	}
	room := UserRoom(c.UserID)
	if len(h.rooms[room]) >= maxConnsPerUser {
		return ErrTooManyConnections
	}

	h.totalConns++
	h.joinLocked(c, room)
	metrics.RealtimeConnections.Inc()
	return nil
}

// Join puts a registered client into another room.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joinLocked(c, room)
}

func (h *Hub) joinLocked(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

// Unregister removes a client from every room it joined. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(c.rooms) == 0 {
		return
	}
	for room := range c.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	c.rooms = make(map[string]struct{})
	h.totalConns--
	metrics.RealtimeConnections.Dec()
}

// RoomSize returns the number of local clients in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) Emit(ctx context.Context, room, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	frame, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	if h.rdb == nil {
		h.deliver(room, frame)
		return nil
	}
	if err := h.rdb.Publish(ctx, ChannelPrefix+room, frame).Err(); err != nil {
		return fmt.Errorf("publish to room %s: %w", room, err)
	}
	return nil
}

func (h *Hub) deliver(room string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		c.TrySend(frame)
	}
}

// Listen pattern-subscribes to every room channel and delivers frames to local
// clients until ctx is done. It is a no-op without Redis.
func (h *Hub) Listen(ctx context.Context) error {
	if h.rdb == nil {
		return nil
	}

	sub := h.rdb.PSubscribe(ctx, ChannelPrefix+"*")
	// Wait for the subscription so emits issued right after Listen are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe to rooms: %w", err)
	}

	ch := sub.Channel()
	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				room := strings.TrimPrefix(msg.Channel, ChannelPrefix)
				h.deliver(room, []byte(msg.Payload))
			}
		}
	}()

	logger.Log.Info("[Realtime] Listening for room events", zap.String("pattern", ChannelPrefix+"*"))
	return nil
}

// Shutdown closes every local connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make(map[*Client]struct{})
	for _, members := range h.rooms {
		for c := range members {
			clients[c] = struct{}{}
		}
	}
	h.mu.Unlock()

	for c := range clients {
		c.Close()
	}
}
