package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/proctor/go/internal/models"
	"github.com/mcdev12/proctor/go/internal/proctor/events"
)

// End reasons recorded on SessionEnded.
const (
	EndReasonLogout   = "logout"
	EndReasonShutdown = "shutdown"
)

type entry struct {
	state  *State
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager owns the live sessions, one per student, and their runners.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	clock     clockwork.Clock
	cfg       Config
	publisher events.Publisher
	submitter AutoSubmitter
}

// NewManager creates a session manager.
func NewManager(clock clockwork.Clock, cfg Config, publisher events.Publisher) *Manager {
	if publisher == nil {
		publisher = events.Discard
	}
	return &Manager{
		sessions:  make(map[string]*entry),
		clock:     clock,
		cfg:       cfg.withDefaults(),
		publisher: publisher,
	}
}

// SetAutoSubmitter installs the hook run when a session expires. It must be
// called before the first Start.
func (m *Manager) SetAutoSubmitter(submitter AutoSubmitter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitter = submitter
}

// Start creates a session for student counting down to endTime and starts its
// runner. A student who already has a live session gets it back unchanged.
func (m *Manager) Start(student models.Student, endTime time.Time) *State {
	m.mu.Lock()
	if e, ok := m.sessions[student.ID]; ok {
		m.mu.Unlock()
		return e.state
	}

	state := NewState(student, endTime, m.clock, m.cfg, m.publisher)
	ctx, cancel := context.WithCancel(context.Background())
	e := &entry{state: state, cancel: cancel, done: make(chan struct{})}
	m.sessions[student.ID] = e
	runner := NewRunner(state, m.clock, m.cfg.TickInterval, m.submitter)
	m.mu.Unlock()

	go func() {
		defer close(e.done)
		runner.Run(ctx)
	}()

	log.Info().
		Str("session_id", state.ID().String()).
		Str("student_id", student.ID).
		Time("contest_end_time", endTime).
		Msg("Session started")
	state.Started()
	return state
}

// End tears down a student's session. The runner is stopped and the state is
// closed even if the session ended abnormally.
func (m *Manager) End(studentID, reason string) error {
	m.mu.Lock()
	e, ok := m.sessions[studentID]
	if ok {
		delete(m.sessions, studentID)
	}
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	m.teardown(e, reason)
	return nil
}

func (m *Manager) teardown(e *entry, reason string) {
	defer e.state.Close(reason)
	e.cancel()
	<-e.done
}

// Get returns a student's live session.
func (m *Manager) Get(studentID string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[studentID]
	if !ok {
		return nil, ErrNotFound
	}
	return e.state, nil
}

// List returns snapshots of every live session ordered by student ID.
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	states := make([]*State, 0, len(m.sessions))
	for _, e := range m.sessions {
		states = append(states, e.state)
	}
	m.mu.RUnlock()

	out := make([]Snapshot, 0, len(states))
	for _, s := range states {
		out = append(out, s.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Student.ID < out[j].Student.ID })
	return out
}

// ContestEndTimeChanged pushes a new end time to every live session at once.
func (m *Manager) ContestEndTimeChanged(endTime time.Time) {
	m.mu.RLock()
	states := make([]*State, 0, len(m.sessions))
	for _, e := range m.sessions {
		states = append(states, e.state)
	}
	m.mu.RUnlock()

	for _, s := range states {
		s.UpdateContestEndTime(endTime)
	}
	log.Info().Int("sessions", len(states)).Time("contest_end_time", endTime).Msg("Propagated contest end time")
}

// Shutdown ends every live session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	entries := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range entries {
		m.teardown(e, EndReasonShutdown)
	}
}
