// Package session owns the per-student proctoring state: the violation
// ledger, the contest countdown, the submission lock and the editor buffer.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/proctor/go/internal/models"
	"github.com/mcdev12/proctor/go/internal/proctor/detector"
	"github.com/mcdev12/proctor/go/internal/proctor/events"
	"github.com/mcdev12/proctor/go/internal/proctor/ledger"
	"github.com/mcdev12/proctor/go/internal/proctor/timer"
)

// LockReason records why the submission lock was set.
type LockReason string

const (
	LockReasonManual LockReason = "manual"
	LockReasonAuto   LockReason = "auto"
	LockReasonAdmin  LockReason = "admin"
)

// Activity statuses shown on the monitoring table.
const (
	ActivityCoding    = "Coding"
	ActivityIdle      = "Idle"
	ActivitySubmitted = "Submitted"
)

// Config holds the tunables of a session.
type Config struct {
	IdleThreshold    time.Duration
	NotificationTTL  time.Duration
	MaxNotifications int
	TickInterval     time.Duration
	// IdleStatusAfter is when the monitoring status flips to Idle.
	IdleStatusAfter time.Duration
	Templates       map[models.Language]string
}

// DefaultConfig returns the standard contest tunables.
func DefaultConfig() Config {
	return Config{
		IdleThreshold:    detector.DefaultIdleThreshold,
		NotificationTTL:  5 * time.Second,
		MaxNotifications: 3,
		TickInterval:     time.Second,
		IdleStatusAfter:  60 * time.Second,
		Templates:        models.DefaultTemplates,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.IdleThreshold <= 0 {
		c.IdleThreshold = d.IdleThreshold
	}
	if c.NotificationTTL <= 0 {
		c.NotificationTTL = d.NotificationTTL
	}
	if c.MaxNotifications <= 0 {
		c.MaxNotifications = d.MaxNotifications
	}
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.IdleStatusAfter <= 0 {
		c.IdleStatusAfter = d.IdleStatusAfter
	}
	if c.Templates == nil {
		c.Templates = d.Templates
	}
	return c
}

// Snapshot is a consistent read of a session.
type Snapshot struct {
	SessionID        uuid.UUID                `json:"session_id"`
	Student          models.Student           `json:"student"`
	StartedAt        time.Time                `json:"started_at"`
	Violations       []models.ViolationRecord `json:"violations"`
	TabSwitchCount   int                      `json:"tab_switch_count"`
	WarningCount     int                      `json:"warning_count"`
	WarningLevel     ledger.WarningLevel      `json:"warning_level"`
	SecondsRemaining int                      `json:"seconds_remaining"`
	Urgency          timer.Urgency            `json:"urgency"`
	ContestEndTime   time.Time                `json:"contest_end_time"`
	SubmissionLocked bool                     `json:"submission_locked"`
	LockReason       LockReason               `json:"lock_reason,omitempty"`
	LockedAt         *time.Time               `json:"locked_at,omitempty"`
	Notifications    []Notification           `json:"notifications"`
	IdleSeconds      int                      `json:"idle_seconds"`
	LastActivity     time.Time                `json:"last_activity"`
	Language         models.Language          `json:"language"`
	CodeLength       int                      `json:"code_length"`
	Activity         string                   `json:"activity"`
}

// FinalState is what a session looked like at the moment it locked.
type FinalState struct {
	Snapshot Snapshot
	Code     string
	Language models.Language
}

// TickResult is the outcome of one scheduler tick.
type TickResult struct {
	SecondsRemaining int
	Urgency          timer.Urgency
	Expired          bool
	// AutoLocked is set when this tick locked the session; Final carries
	// the buffer at that instant.
	AutoLocked bool
	Final      *FinalState
	Inactivity bool
	Closed     bool
}

// State is the single owner of one student's session. Every mutation goes
// through its methods under one mutex; events are published after the mutex
// is released.
type State struct {
	mu sync.Mutex

	id        uuid.UUID
	student   models.Student
	startedAt time.Time
	cfg       Config
	clock     clockwork.Clock
	publisher events.Publisher

	ledger        *ledger.Ledger
	timer         *timer.Timer
	detector      *detector.Detector
	notifications *notificationStack

	locked     bool
	lockReason LockReason
	lockedAt   time.Time
	closed     bool

	code         string
	language     models.Language
	lastActivity time.Time
}

// NewState creates the session for a student who just passed the passkey.
func NewState(student models.Student, endTime time.Time, clock clockwork.Clock, cfg Config, publisher events.Publisher) *State {
	cfg = cfg.withDefaults()
	if publisher == nil {
		publisher = events.Discard
	}
	now := clock.Now()
	return &State{
		id:            uuid.New(),
		student:       student,
		startedAt:     now,
		cfg:           cfg,
		clock:         clock,
		publisher:     publisher,
		ledger:        ledger.New(clock),
		timer:         timer.New(clock, endTime),
		detector:      detector.New(cfg.IdleThreshold),
		notifications: newNotificationStack(clock, cfg.NotificationTTL, cfg.MaxNotifications),
		code:          cfg.Templates[models.DefaultLanguage],
		language:      models.DefaultLanguage,
		lastActivity:  now,
	}
}

// ID returns the session ID.
func (s *State) ID() uuid.UUID {
	return s.id
}

// Student returns the student the session belongs to.
func (s *State) Student() models.Student {
	return s.student
}

// Started publishes the SessionStarted event.
func (s *State) Started() {
	s.mu.Lock()
	remaining := s.timer.Remaining()
	evt := s.newEvent(events.EventTypeSessionStarted, events.SessionStartedPayload{
		StudentID:        s.student.ID,
		StudentName:      s.student.Name,
		QuestionID:       s.student.AssignedQuestionID,
		StartedAt:        s.startedAt,
		ContestEndTime:   s.timer.EndTime(),
		SecondsRemaining: remaining,
	})
	s.mu.Unlock()
	s.publish(evt)
}

// AddViolation records a violation of kind. It is a no-op once the session is
// locked or closed, and reports whether the violation was recorded.
func (s *State) AddViolation(kind models.ViolationKind) bool {
	if !kind.IsValid() {
		return false
	}
	s.mu.Lock()
	if s.locked || s.closed {
		s.mu.Unlock()
		return false
	}
	evts := s.recordLocked(kind, messageFor(kind), "")
	s.mu.Unlock()
	s.publish(evts...)
	return true
}

// Dispatch runs one environment signal through the detector. A locked or
// closed session is inert: the returned bool is false and nothing changes.
func (s *State) Dispatch(sig detector.Signal) (detector.Outcome, bool) {
	if _, ok := sig.(detector.IdleTick); ok {
		// Idle ticks come from the session's own scheduler.
		return detector.Outcome{}, false
	}

	s.mu.Lock()
	if s.locked || s.closed {
		s.mu.Unlock()
		return detector.Outcome{}, false
	}

	out := s.detector.Dispatch(sig)
	switch sig.(type) {
	case detector.PointerMoved, detector.Clicked, detector.KeyPressed:
		s.lastActivity = s.clock.Now()
	}

	var evts []*events.Event
	if out.Violation {
		evts = s.recordLocked(out.Kind, out.Message, detector.Name(sig))
	}
	s.mu.Unlock()

	s.publish(evts...)
	return out, true
}

// recordLocked applies a violation to the ledger before pushing its popup.
// Callers hold s.mu.
func (s *State) recordLocked(kind models.ViolationKind, msg, signal string) []*events.Event {
	rec := s.ledger.Record(kind)
	warnings := s.ledger.Total()
	n := s.notifications.push(kind, msg, warnings, s.expireNotification)

	log.Warn().
		Str("session_id", s.id.String()).
		Str("student_id", s.student.ID).
		Str("kind", kind.String()).
		Int("count", rec.Count).
		Int("warning_count", warnings).
		Msg("Violation recorded")

	evt := s.newEvent(events.EventTypeViolationRecorded, events.ViolationRecordedPayload{
		Record:         rec,
		Signal:         signal,
		Message:        msg,
		NotificationID: n.ID.String(),
		WarningCount:   warnings,
		TabSwitchCount: s.ledger.Count(models.ViolationTabSwitch),
		ExpiresAt:      n.ExpiresAt,
	})
	return []*events.Event{evt}
}

func (s *State) expireNotification(id uuid.UUID) {
	s.mu.Lock()
	if s.closed || !s.notifications.remove(id) {
		s.mu.Unlock()
		return
	}
	evt := s.newEvent(events.EventTypeNotificationExpired, events.NotificationExpiredPayload{
		NotificationID: id.String(),
	})
	s.mu.Unlock()
	s.publish(evt)
}

// LockSubmission sets the irreversible submission lock. The first call
// returns the final state and true; later calls return false and change
// nothing.
func (s *State) LockSubmission(reason LockReason) (FinalState, bool) {
	s.mu.Lock()
	if s.locked || s.closed {
		s.mu.Unlock()
		return FinalState{}, false
	}
	final, evt := s.lockLocked(reason)
	s.mu.Unlock()
	s.publish(evt)
	return final, true
}

// Submit validates the buffer and locks the session in one step, so the code
// that passed validation is the code that is submitted.
func (s *State) Submit(validate func(code string, lang models.Language) error) (FinalState, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return FinalState{}, ErrClosed
	}
	if s.locked {
		s.mu.Unlock()
		return FinalState{}, ErrLocked
	}
	if validate != nil {
		if err := validate(s.code, s.language); err != nil {
			s.mu.Unlock()
			return FinalState{}, err
		}
	}
	final, evt := s.lockLocked(LockReasonManual)
	s.mu.Unlock()
	s.publish(evt)
	return final, nil
}

func (s *State) lockLocked(reason LockReason) (FinalState, *events.Event) {
	s.locked = true
	s.lockReason = reason
	s.lockedAt = s.clock.Now()
	s.notifications.clear()

	log.Info().
		Str("session_id", s.id.String()).
		Str("student_id", s.student.ID).
		Str("reason", string(reason)).
		Msg("Submission locked")

	snap := s.snapshotLocked()
	evt := s.newEvent(events.EventTypeSubmissionLocked, events.SubmissionLockedPayload{
		Reason:       string(reason),
		LockedAt:     s.lockedAt,
		Violations:   snap.Violations,
		WarningCount: snap.WarningCount,
	})
	return FinalState{Snapshot: snap, Code: s.code, Language: s.language}, evt
}

// UpdateContestEndTime replaces the contest end time and returns the
// recomputed remainder immediately.
func (s *State) UpdateContestEndTime(endTime time.Time) int {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0
	}
	remaining := s.timer.SetEndTime(endTime)
	evt := s.newEvent(events.EventTypeContestEndTimeChanged, events.ContestEndTimeChangedPayload{
		ContestEndTime:   endTime,
		SecondsRemaining: remaining,
	})
	s.mu.Unlock()

	log.Info().
		Str("session_id", s.id.String()).
		Time("contest_end_time", endTime).
		Int("seconds_remaining", remaining).
		Msg("Contest end time updated")
	s.publish(evt)
	return remaining
}

// Tick advances the session by one scheduler interval: the contest timer is
// evaluated first, expiry locks the session, then the idle counter advances.
func (s *State) Tick() TickResult {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return TickResult{Closed: true}
	}

	reading := s.timer.Tick()
	res := TickResult{
		SecondsRemaining: reading.SecondsRemaining,
		Urgency:          reading.Urgency,
		Expired:          reading.Expired,
	}

	var evts []*events.Event
	if reading.Expired && !s.locked {
		final, evt := s.lockLocked(LockReasonAuto)
		res.AutoLocked = true
		res.Final = &final
		evts = append(evts, evt)
	}

	if !s.locked {
		out := s.detector.Dispatch(detector.IdleTick{})
		if out.Violation {
			res.Inactivity = true
			evts = append(evts, s.recordLocked(out.Kind, out.Message, detector.Name(detector.IdleTick{}))...)
		}
	}

	evts = append(evts, s.newEvent(events.EventTypeTimerTick, events.TimerTickPayload{
		SecondsRemaining: reading.SecondsRemaining,
		Urgency:          string(reading.Urgency),
		IdleSeconds:      s.detector.IdleSeconds(),
		TickedAt:         s.clock.Now(),
	}))
	s.mu.Unlock()

	s.publish(evts...)
	return res
}

// UpdateCode replaces the editor buffer.
func (s *State) UpdateCode(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	s.code = code
	s.lastActivity = s.clock.Now()
	return nil
}

// SetLanguage switches the editor language and loads its template.
func (s *State) SetLanguage(lang models.Language) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	s.language = lang
	s.code = s.cfg.Templates[lang]
	s.lastActivity = s.clock.Now()
	return nil
}

// CheckEditable returns ErrLocked or ErrClosed when the editor is read-only.
func (s *State) CheckEditable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editableLocked()
}

func (s *State) editableLocked() error {
	if s.closed {
		return ErrClosed
	}
	if s.locked {
		return ErrLocked
	}
	return nil
}

// Code returns the editor buffer and its language.
func (s *State) Code() (string, models.Language) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code, s.language
}

// Violations returns the ledger, first-observed first.
func (s *State) Violations() []models.ViolationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Snapshot()
}

// TabSwitchCount mirrors the ledger's tab switch count.
func (s *State) TabSwitchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Count(models.ViolationTabSwitch)
}

// WarningCount is the sum of all ledger counts.
func (s *State) WarningCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Total()
}

// SecondsRemaining reads the countdown at the current instant.
func (s *State) SecondsRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer.Remaining()
}

// ContestEndTime returns the end time the session counts down to.
func (s *State) ContestEndTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer.EndTime()
}

// SubmissionLocked reports whether the lock is set.
func (s *State) SubmissionLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Notifications returns the popups still on screen.
func (s *State) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notifications.active()
}

// IdleSeconds returns the current idle span.
func (s *State) IdleSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detector.IdleSeconds()
}

// Closed reports whether the session has been torn down.
func (s *State) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Snapshot returns a consistent view of the session.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	remaining := s.timer.Remaining()
	warnings := s.ledger.Total()
	snap := Snapshot{
		SessionID:        s.id,
		Student:          s.student,
		StartedAt:        s.startedAt,
		Violations:       s.ledger.Snapshot(),
		TabSwitchCount:   s.ledger.Count(models.ViolationTabSwitch),
		WarningCount:     warnings,
		WarningLevel:     ledger.LevelFor(warnings),
		SecondsRemaining: remaining,
		Urgency:          timer.UrgencyFor(remaining),
		ContestEndTime:   s.timer.EndTime(),
		SubmissionLocked: s.locked,
		LockReason:       s.lockReason,
		Notifications:    s.notifications.active(),
		IdleSeconds:      s.detector.IdleSeconds(),
		LastActivity:     s.lastActivity,
		Language:         s.language,
		CodeLength:       len(s.code),
	}
	if s.locked {
		at := s.lockedAt
		snap.LockedAt = &at
	}

	switch {
	case s.locked:
		snap.Activity = ActivitySubmitted
	case time.Duration(snap.IdleSeconds)*time.Second >= s.cfg.IdleStatusAfter:
		snap.Activity = ActivityIdle
	default:
		snap.Activity = ActivityCoding
	}
	return snap
}

// Close detaches the session. It is safe to call more than once; every
// later mutation is a no-op.
func (s *State) Close(reason string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.notifications.clear()
	evt := s.newEvent(events.EventTypeSessionEnded, events.SessionEndedPayload{
		EndedAt: s.clock.Now(),
		Reason:  reason,
	})
	s.mu.Unlock()

	log.Info().
		Str("session_id", s.id.String()).
		Str("student_id", s.student.ID).
		Str("reason", reason).
		Msg("Session closed")
	s.publish(evt)
}

// StateSync builds the event a freshly connected client receives first.
func (s *State) StateSync() *events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newEvent(events.EventTypeStateSync, s.snapshotLocked())
}

func (s *State) newEvent(typ events.EventType, payload any) *events.Event {
	evt, err := events.New(s.id, s.student.ID, typ, s.clock.Now(), payload)
	if err != nil {
		log.Error().Err(err).Str("session_id", s.id.String()).Str("event_type", string(typ)).Msg("Failed to build event")
		return nil
	}
	return evt
}

func (s *State) publish(evts ...*events.Event) {
	for _, evt := range evts {
		if evt == nil {
			continue
		}
		if err := s.publisher.Publish(context.Background(), evt); err != nil {
			log.Error().
				Err(err).
				Str("session_id", s.id.String()).
				Str("event_type", string(evt.Type)).
				Msg("Failed to publish session event")
		}
	}
}

func messageFor(kind models.ViolationKind) string {
	switch kind {
	case models.ViolationTabSwitch:
		return detector.MsgTabSwitch
	case models.ViolationFocusLoss:
		return detector.MsgFocusLoss
	case models.ViolationInactivity:
		return detector.MsgInactivity
	case models.ViolationCopyPaste:
		return detector.MsgCopyPaste
	default:
		return detector.MsgRightClick
	}
}
