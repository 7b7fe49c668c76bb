package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/proctor/go/internal/proctor/detector"
	"github.com/mcdev12/proctor/go/internal/proctor/events"
	"github.com/mcdev12/proctor/go/internal/proctor/session"
)

// SessionLookup finds a student's live session.
type SessionLookup interface {
	Get(studentID string) (*session.State, error)
}

// WebSocketHandler handles WebSocket upgrade requests
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	sessions          SessionLookup
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, sessions SessionLookup) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		sessions:          sessions,
	}
}

// HandleSessionConnection attaches a student's browser to their session.
// The first frame is always a StateSync.
func (h *WebSocketHandler) HandleSessionConnection(w http.ResponseWriter, r *http.Request) {
	studentID := r.URL.Query().Get("student_id")
	if studentID == "" {
		http.Error(w, "student_id is required", http.StatusBadRequest)
		return
	}

	state, err := h.sessions.Get(studentID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "no active session", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	onMessage := func(c *Connection, message []byte) {
		h.handleSignal(c, state, message)
	}
	if _, err := h.connectionManager.UpgradeConnection(w, r, studentID, AudienceStudent, state.StateSync(), onMessage); err != nil {
		// Upgrade has already replied to the client.
		log.Error().Err(err).Str("student_id", studentID).Msg("Failed to upgrade WebSocket connection")
	}
}

// handleSignal dispatches one environment signal and answers it.
func (h *WebSocketHandler) handleSignal(c *Connection, state *session.State, message []byte) {
	sig, err := detector.Decode(message)
	if err != nil {
		log.Debug().Err(err).Str("connection_id", c.ID).Msg("Ignoring malformed signal")
		return
	}

	out, applied := state.Dispatch(sig)
	payload := events.SignalOutcomePayload{
		Signal:          detector.Name(sig),
		Violation:       applied && out.Violation,
		SuppressDefault: out.SuppressDefault,
		Inert:           !applied,
		WarningCount:    state.WarningCount(),
		TabSwitchCount:  state.TabSwitchCount(),
	}
	if out.Violation {
		payload.Kind = out.Kind.String()
	}
	if !applied {
		// A locked editor still swallows the context menu and devtools keys.
		payload.SuppressDefault = detector.Classify(sig).SuppressDefault
	}

	evt, err := events.New(state.ID(), c.StudentID, events.EventTypeSignalOutcome, h.connectionManager.clock.Now(), payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build signal outcome")
		return
	}
	c.SendEvent(evt)
}

// HandleMonitorConnection attaches an admin dashboard to the live feed.
func (h *WebSocketHandler) HandleMonitorConnection(w http.ResponseWriter, r *http.Request) {
	if _, err := h.connectionManager.UpgradeConnection(w, r, "", AudienceMonitor, nil, nil); err != nil {
		log.Error().Err(err).Msg("Failed to upgrade monitor connection")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.GetConnectionStats()); err != nil {
		log.Error().Err(err).Msg("Failed to encode connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/session", h.HandleSessionConnection)
	mux.HandleFunc("/ws/monitor", h.HandleMonitorConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
