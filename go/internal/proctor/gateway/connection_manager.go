// Package gateway carries environment signals from the browser into a
// session and pushes session events back out over WebSockets.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/proctor/go/internal/proctor/events"
)

// Audience separates a student's own socket from admin monitoring sockets.
type Audience string

const (
	AudienceStudent Audience = "student"
	AudienceMonitor Audience = "monitor"
)

// monitorKey groups every admin monitoring connection.
const monitorKey = "*monitor*"

// ConnectionManager manages WebSocket connections for proctoring sessions
type ConnectionManager struct {
	// Connection pools organized by student ID
	connections map[string]map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	clock    clockwork.Clock

	broadcastCh chan BroadcastMessage
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID        string
	StudentID string
	// SessionID binds a student socket to one session; empty for monitors.
	SessionID string
	Audience  Audience
	Conn      *websocket.Conn
	Manager   *ConnectionManager

	// OnMessage handles inbound frames. Nil means frames are ignored.
	OnMessage func(c *Connection, message []byte)

	ConnectedAt time.Time

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
	// MonitorViaBus leaves the admin feed to the JetStream consumer instead
	// of forwarding events in process.
	MonitorViaBus bool
}

// BroadcastMessage represents a message to broadcast to connections
type BroadcastMessage struct {
	Key   string
	Event *events.Event
	// CloseSession closes the key's sockets bound to Event's session once
	// Event is queued to them.
	CloseSession bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig, clock clockwork.Clock) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		clock:       clock,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
}

// Start begins processing broadcast messages
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("Connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// Publish routes a session event to the student's sockets and, for events
// the admin dashboard cares about, to the monitoring sockets.
func (cm *ConnectionManager) Publish(_ context.Context, event *events.Event) error {
	cm.enqueue(BroadcastMessage{
		Key:          event.StudentID,
		Event:        event,
		CloseSession: event.Type == events.EventTypeSessionEnded,
	})
	if !cm.config.MonitorViaBus && MonitorEvent(event.Type) {
		cm.BroadcastToMonitors(event)
	}
	return nil
}

// MonitorEvent reports whether admins see events of type t.
func MonitorEvent(t events.EventType) bool {
	switch t {
	case events.EventTypeTimerTick, events.EventTypeSignalOutcome,
		events.EventTypeNotificationExpired, events.EventTypeStateSync:
		return false
	}
	return true
}

// BroadcastToMonitors sends an event to every admin monitoring socket.
func (cm *ConnectionManager) BroadcastToMonitors(event *events.Event) {
	cm.enqueue(BroadcastMessage{Key: monitorKey, Event: event})
}

func (cm *ConnectionManager) enqueue(message BroadcastMessage) {
	select {
	case cm.broadcastCh <- message:
	default:
		log.Warn().Str("key", message.Key).Msg("Broadcast channel full, dropping message")
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket. first, when
// set, is queued before the connection receives any broadcast, and its
// session ID binds the connection to that session.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, studentID string, audience Audience, first *events.Event, onMessage func(*Connection, []byte)) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		StudentID:   studentID,
		Audience:    audience,
		Conn:        conn,
		Manager:     cm,
		OnMessage:   onMessage,
		ConnectedAt: cm.clock.Now(),
		send:        make(chan []byte, 256),
	}
	if first != nil {
		connection.SessionID = first.SessionID
		connection.SendEvent(first)
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("student_id", studentID).
		Str("audience", string(audience)).
		Msg("WebSocket connection established")
	return connection, nil
}

func (c *Connection) key() string {
	if c.Audience == AudienceMonitor {
		return monitorKey
	}
	return c.StudentID
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	key := conn.key()
	if cm.connections[key] == nil {
		cm.connections[key] = make(map[*Connection]bool)
	}
	cm.connections[key][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("key", key).
		Int("total_connections", len(cm.connections[key])).
		Msg("Connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	key := conn.key()
	connections, exists := cm.connections[key]
	if exists && connections[conn] {
		delete(connections, conn)
		if len(connections) == 0 {
			delete(cm.connections, key)
		}
	} else {
		exists = false
	}
	cm.mu.Unlock()

	if exists {
		conn.closeSend()
		log.Info().
			Str("connection_id", conn.ID).
			Str("student_id", conn.StudentID).
			Msg("Connection unregistered")
	}
}

func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	cm.mu.RLock()
	connections, exists := cm.connections[message.Key]
	if !exists {
		cm.mu.RUnlock()
		return
	}
	targets := make([]*Connection, 0, len(connections))
	for conn := range connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	data, err := json.Marshal(message.Event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		if !conn.enqueue(data) {
			log.Warn().
				Str("connection_id", conn.ID).
				Str("student_id", conn.StudentID).
				Msg("Connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	if message.CloseSession {
		for _, conn := range targets {
			if conn.SessionID == message.Event.SessionID {
				// The write pump flushes queued frames before the close frame.
				cm.unregisterConnection(conn)
			}
		}
	}

	log.Debug().
		Str("event_type", string(message.Event.Type)).
		Str("key", message.Key).
		Int("connections", len(targets)).
		Msg("Event broadcasted")
}

// ConnectionStats summarizes active connections
type ConnectionStats struct {
	TotalConnections   int            `json:"total_connections"`
	MonitorConnections int            `json:"monitor_connections"`
	StudentConnections map[string]int `json:"student_connections"`
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{StudentConnections: make(map[string]int)}
	for key, connections := range cm.connections {
		stats.TotalConnections += len(connections)
		if key == monitorKey {
			stats.MonitorConnections = len(connections)
			continue
		}
		stats.StudentConnections[key] = len(connections)
	}
	return stats
}

// SendEvent queues an event for this connection only.
func (c *Connection) SendEvent(event *events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("Failed to marshal event")
		return
	}
	c.enqueue(data)
}

// enqueue reports false only when the buffer is full.
func (c *Connection) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Connection) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("Failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("Failed to send ping")
				return
			}
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("Unexpected WebSocket close error")
			}
			return
		}

		if c.OnMessage != nil {
			c.OnMessage(c, message)
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
