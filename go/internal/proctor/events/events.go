// Package events defines the session events shared by the container, the
// websocket gateway and the outbox.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of session event
type EventType string

const (
	EventTypeSessionStarted        EventType = "SessionStarted"
	EventTypeSessionEnded          EventType = "SessionEnded"
	EventTypeStateSync             EventType = "StateSync"
	EventTypeViolationRecorded     EventType = "ViolationRecorded"
	EventTypeNotificationExpired   EventType = "NotificationExpired"
	EventTypeTimerTick             EventType = "TimerTick"
	EventTypeSubmissionLocked      EventType = "SubmissionLocked"
	EventTypeContestEndTimeChanged EventType = "ContestEndTimeChanged"
	EventTypeSignalOutcome         EventType = "SignalOutcome"
)

// Event is the envelope for every session event.
type Event struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	StudentID string          `json:"student_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New wraps payload in an envelope.
func New(sessionID uuid.UUID, studentID string, typ EventType, at time.Time, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", typ, err)
	}
	return &Event{
		ID:        uuid.New().String(),
		SessionID: sessionID.String(),
		StudentID: studentID,
		Type:      typ,
		Timestamp: at,
		Data:      data,
	}, nil
}

// Publisher delivers events somewhere: websocket clients, a message bus, logs.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event *Event) error

func (f PublisherFunc) Publish(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, *Event) error { return nil })
