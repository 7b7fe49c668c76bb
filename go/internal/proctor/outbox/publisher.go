package outbox

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/mcdev12/proctor/go/internal/proctor/events"
)

// LogPublisher writes every event to a zerolog logger.
type LogPublisher struct {
	logger zerolog.Logger
	level  zerolog.Level
}

func NewLogPublisher(logger zerolog.Logger, level zerolog.Level) *LogPublisher {
	return &LogPublisher{logger: logger, level: level}
}

func (p *LogPublisher) Publish(_ context.Context, event *events.Event) error {
	p.logger.WithLevel(p.level).
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Str("session_id", event.SessionID).
		Str("student_id", event.StudentID).
		RawJSON("data", event.Data).
		Msg("Session event")
	return nil
}

// Filter forwards only the listed event types.
type Filter struct {
	next  events.Publisher
	types map[events.EventType]struct{}
}

func NewFilter(next events.Publisher, types ...events.EventType) *Filter {
	f := &Filter{next: next, types: make(map[events.EventType]struct{}, len(types))}
	for _, t := range types {
		f.types[t] = struct{}{}
	}
	return f
}

func (f *Filter) Publish(ctx context.Context, event *events.Event) error {
	if _, ok := f.types[event.Type]; !ok {
		return nil
	}
	return f.next.Publish(ctx, event)
}

// DurableTypes are the events worth keeping on the bus. Timer ticks,
// popup expiry and per-signal replies only matter to the live socket.
var DurableTypes = []events.EventType{
	events.EventTypeSessionStarted,
	events.EventTypeSessionEnded,
	events.EventTypeViolationRecorded,
	events.EventTypeSubmissionLocked,
	events.EventTypeContestEndTimeChanged,
}

// Fanout publishes to every sink and joins their errors.
type Fanout []events.Publisher

func (f Fanout) Publish(ctx context.Context, event *events.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
