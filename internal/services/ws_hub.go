package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Chetan6969/Testing-r/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const wsWriteWait = 10 * time.Second

// Event names pushed to clients
const (
	EventNewRide       = "new-ride"
	EventRideConfirmed = "ride-confirmed"
	EventRideStarted   = "ride-started"
	EventRideEnded     = "ride-ended"
	EventError         = "error"
)

// WSMessage is the envelope exchanged over a websocket
type WSMessage struct {
	Event string          `json:"event"`
	Data  interface{}     `json:"data,omitempty"`
	Raw   json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the data of inbound messages undecoded until the
// event is known.
func (m *WSMessage) UnmarshalJSON(b []byte) error {
	var in struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	m.Event = in.Event
	m.Raw = in.Data
	return nil
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections, keyed by a connection id that is
// stored on the owning user or captain record.
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

// Register adds a connection and returns its new connection id
func (h *WSHub) Register(conn *websocket.Conn) string {
	id := uuid.New().String()

	h.mu.Lock()
	h.connections[id] = &wsClient{conn: conn}
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	log.Info().Str("connection_id", id).Msg("WebSocket connection registered")
	return id
}

// Unregister closes and removes a connection
func (h *WSHub) Unregister(connID string) {
	h.mu.Lock()
	client, exists := h.connections[connID]
	if exists {
		delete(h.connections, connID)
	}
	h.mu.Unlock()

	if exists {
		client.conn.Close()
		metrics.WSConnections.Dec()
		log.Info().Str("connection_id", connID).Msg("WebSocket connection unregistered")
	}
}

// CloseAll drops every connection
func (h *WSHub) CloseAll() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.connections))
	for id := range h.connections {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.Unregister(id)
	}
}

// IsOnline checks if a connection id has a live channel
func (h *WSHub) IsOnline(connID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[connID]
	return exists
}

// Send pushes an event to the connection. Unknown ids are ignored; a failed
// write drops the connection.
func (h *WSHub) Send(connID, event string, payload interface{}) {
	h.mu.RLock()
	client, exists := h.connections[connID]
	h.mu.RUnlock()

	if !exists {
		metrics.NotificationsTotal.WithLabelValues(event, "offline").Inc()
		return
	}

	data, err := json.Marshal(WSMessage{Event: event, Data: payload})
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(event, "error").Inc()
		log.Error().Err(err).Str("event", event).Msg("Failed to marshal message")
		return
	}

	if err := client.write(data); err != nil {
		metrics.NotificationsTotal.WithLabelValues(event, "error").Inc()
		log.Error().
			Err(fmt.Errorf("failed to send message: %w", err)).
			Str("connection_id", connID).
			Str("event", event).
			Msg("Dropping websocket connection")
		h.Unregister(connID)
		return
	}
	metrics.NotificationsTotal.WithLabelValues(event, "sent").Inc()
}

// SendTo pushes an event to an optional connection id, as stored on user and
// captain records.
func (h *WSHub) SendTo(socketID *string, event string, payload interface{}) {
	if socketID == nil || *socketID == "" {
		metrics.NotificationsTotal.WithLabelValues(event, "offline").Inc()
		return
	}
	h.Send(*socketID, event, payload)
}
