package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event types pushed to members over the websocket
const (
	EventMutualMatch  = "mutual_match"
	EventMatchUpdated = "match_updated"
	EventMatchActive  = "match_active"
	EventNewMessage   = "new_message"
	EventReported     = "match_reported"
	EventError        = "error"
	EventPong         = "pong"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
	MatchID   string      `json:"match_id,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Notifier delivers async match events to a member
type Notifier interface {
	Notify(memberID string, msg WSMessage)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, WSMessage) {}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections, one per member
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*wsClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*wsClient),
	}
}

// Register registers a new WebSocket connection for a member, replacing any older one
func (h *WSHub) Register(memberID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, exists := h.connections[memberID]; exists {
		existing.conn.Close()
	}
	h.connections[memberID] = &wsClient{conn: conn}

	log.Info().Str("member_id", memberID).Msg("WebSocket connection registered")
}

// Unregister removes conn if it is still the member's registered connection
func (h *WSHub) Unregister(memberID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.connections[memberID]; exists && client.conn == conn {
		client.conn.Close()
		delete(h.connections, memberID)
		log.Info().Str("member_id", memberID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends a message to a specific member
func (h *WSHub) SendToUser(memberID string, message WSMessage) error {
	h.mu.RLock()
	client, exists := h.connections[memberID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("member %s is not connected", memberID)
	}

	if message.Timestamp == 0 {
		message.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.write(data); err != nil {
		h.Unregister(memberID, client.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// IsOnline checks if a member is online
func (h *WSHub) IsOnline(memberID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[memberID]
	return exists
}

// Notify pushes msg to the member when online. Offline members simply miss it;
// the same state is always readable over HTTP.
func (h *WSHub) Notify(memberID string, msg WSMessage) {
	if !h.IsOnline(memberID) {
		return
	}
	if err := h.SendToUser(memberID, msg); err != nil {
		log.Error().
			Err(err).
			Str("member_id", memberID).
			Str("type", msg.Type).
			Msg("Failed to push match event")
	}
}
