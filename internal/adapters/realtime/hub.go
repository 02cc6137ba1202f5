package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const defaultSendBuffer = 32

// Frame is the JSON envelope of every real-time message.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// InboundFrame is a client frame whose data is decoded by the handler.
type InboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Client is one live connection of an authenticated user. A connection is
// in at most one room at a time.
type Client struct {
	ID     string
	UserID string
	send   chan []byte
	room   string
	closed bool
}

// Outbound returns the channel the connection writer drains.
func (c *Client) Outbound() <-chan []byte { return c.send }

// Hub tracks connections, their rooms, and every user's connection set.
// Delivery is at-most-once: a push to a client whose buffer is full is dropped.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client
	byUser     map[string]map[string]*Client
	rooms      map[string]map[string]*Client
	sendBuffer int
	logger     *slog.Logger
}

// NewHub returns an empty hub. sendBuffer is the per-connection queue length.
func NewHub(logger *slog.Logger, sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Hub{
		clients:    make(map[string]*Client),
		byUser:     make(map[string]map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		sendBuffer: sendBuffer,
		logger:     logger,
	}
}

// Register adds a new connection for userID.
func (h *Hub) Register(userID string) *Client {
	c := &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		send:   make(chan []byte, h.sendBuffer),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
	if h.byUser[userID] == nil {
		h.byUser[userID] = make(map[string]*Client)
	}
	h.byUser[userID][c.ID] = c
	return c
}

// Unregister removes the connection from its room and closes its queue.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	delete(h.clients, c.ID)
	if conns := h.byUser[c.UserID]; conns != nil {
		delete(conns, c.ID)
		if len(conns) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
	h.leaveLocked(c)
	close(c.send)
}

// Join moves the connection into the event's room, leaving any room it was in.
func (h *Hub) Join(c *Client, eventID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	h.leaveLocked(c)
	if h.rooms[eventID] == nil {
		h.rooms[eventID] = make(map[string]*Client)
	}
	h.rooms[eventID][c.ID] = c
	c.room = eventID
}

// Leave takes the connection out of its room and returns the room it left,
// or "" when it was in none.
func (h *Hub) Leave(c *Client) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.leaveLocked(c)
}

// leaveLocked must be called with h.mu held.
func (h *Hub) leaveLocked(c *Client) string {
	eventID := c.room
	if eventID == "" {
		return ""
	}
	if room := h.rooms[eventID]; room != nil {
		delete(room, c.ID)
		if len(room) == 0 {
			delete(h.rooms, eventID)
		}
	}
	c.room = ""
	return eventID
}

// InRoom reports whether userID has a connection joined to the event's room.
func (h *Hub) InRoom(eventID, userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[eventID] {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// Online reports whether userID has any live connection.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID]) > 0
}

// Broadcast sends a frame to every connection in the event's room.
func (h *Hub) Broadcast(eventID, frameType string, data any) {
	payload, ok := h.encode(frameType, data)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[eventID] {
		h.enqueue(c, payload)
	}
}

// PushToUser sends a frame to every connection of userID.
func (h *Hub) PushToUser(userID, frameType string, data any) {
	payload, ok := h.encode(frameType, data)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.byUser[userID] {
		h.enqueue(c, payload)
	}
}

// Send delivers a frame to a single connection.
func (h *Hub) Send(c *Client, frameType string, data any) {
	payload, ok := h.encode(frameType, data)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !c.closed {
		h.enqueue(c, payload)
	}
}

func (h *Hub) encode(frameType string, data any) ([]byte, bool) {
	payload, err := json.Marshal(Frame{Type: frameType, Data: data})
	if err != nil {
		h.logger.Error("encode frame", "type", frameType, "err", err)
		return nil, false
	}
	return payload, true
}

// enqueue must be called with h.mu held.
func (h *Hub) enqueue(c *Client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		h.logger.Warn("dropping frame for slow connection", "conn_id", c.ID, "user_id", c.UserID)
	}
}
