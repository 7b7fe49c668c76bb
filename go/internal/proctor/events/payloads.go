package events

import (
	"time"

	"github.com/mcdev12/proctor/go/internal/models"
)

// SessionStartedPayload is the payload for a SessionStarted event
type SessionStartedPayload struct {
	StudentID        string    `json:"student_id"`
	StudentName      string    `json:"student_name"`
	QuestionID       string    `json:"question_id"`
	StartedAt        time.Time `json:"started_at"`
	ContestEndTime   time.Time `json:"contest_end_time"`
	SecondsRemaining int       `json:"seconds_remaining"`
}

// SessionEndedPayload is the payload for a SessionEnded event
type SessionEndedPayload struct {
	EndedAt time.Time `json:"ended_at"`
	Reason  string    `json:"reason"`
}

// ViolationRecordedPayload is the payload for a ViolationRecorded event
type ViolationRecordedPayload struct {
	Record         models.ViolationRecord `json:"record"`
	Signal         string                 `json:"signal,omitempty"`
	Message        string                 `json:"message"`
	NotificationID string                 `json:"notification_id"`
	WarningCount   int                    `json:"warning_count"`
	TabSwitchCount int                    `json:"tab_switch_count"`
	ExpiresAt      time.Time              `json:"expires_at"`
}

// NotificationExpiredPayload is the payload for a NotificationExpired event
type NotificationExpiredPayload struct {
	NotificationID string `json:"notification_id"`
}

// TimerTickPayload contains the per-second countdown
type TimerTickPayload struct {
	SecondsRemaining int       `json:"seconds_remaining"`
	Urgency          string    `json:"urgency"`
	IdleSeconds      int       `json:"idle_seconds"`
	TickedAt         time.Time `json:"ticked_at"`
}

// SubmissionLockedPayload is the payload for a SubmissionLocked event
type SubmissionLockedPayload struct {
	Reason       string                   `json:"reason"`
	LockedAt     time.Time                `json:"locked_at"`
	Violations   []models.ViolationRecord `json:"violations"`
	WarningCount int                      `json:"warning_count"`
}

// ContestEndTimeChangedPayload is the payload for a ContestEndTimeChanged event
type ContestEndTimeChangedPayload struct {
	ContestEndTime   time.Time `json:"contest_end_time"`
	SecondsRemaining int       `json:"seconds_remaining"`
}

// SignalOutcomePayload answers one client signal
type SignalOutcomePayload struct {
	Signal          string `json:"signal"`
	Violation       bool   `json:"violation"`
	Kind            string `json:"kind,omitempty"`
	SuppressDefault bool   `json:"suppress_default"`
	Inert           bool   `json:"inert"`
	// Counts as of this signal, so the client need not wait for the
	// matching ViolationRecorded.
	WarningCount   int `json:"warning_count"`
	TabSwitchCount int `json:"tab_switch_count"`
}
