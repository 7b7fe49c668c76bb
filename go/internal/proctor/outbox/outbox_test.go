package outbox

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mcdev12/proctor/go/internal/proctor/events"
)

type sink struct {
	mu       sync.Mutex
	got      []*events.Event
	failures int
}

func (s *sink) Publish(_ context.Context, e *events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("broker unavailable")
	}
	s.got = append(s.got, e)
	return nil
}

func (s *sink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func newEvent(t *testing.T, typ events.EventType) *events.Event {
	t.Helper()
	e, err := events.New(uuid.New(), "s1", typ, time.Now(), map[string]int{"n": 1})
	if err != nil {
		t.Fatalf("events.New() error = %v", err)
	}
	return e
}

func TestWorker_PublishesAndRetries(t *testing.T) {
	down := &sink{failures: 2}
	w := NewWorker(down, Config{QueueSize: 8, MaxRetries: 3, RetryDelay: time.Millisecond}, clockwork.NewRealClock())
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := w.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := w.Publish(context.Background(), newEvent(t, events.EventTypeViolationRecorded)); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if got := down.len(); got != 3 {
		t.Errorf("delivered = %d, want 3", got)
	}
	stats := w.Stats()
	if stats.Processed != 3 || stats.Failed != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
	if err := w.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestWorker_GivesUpAfterMaxRetries(t *testing.T) {
	down := &sink{failures: 10}
	w := NewWorker(down, Config{QueueSize: 1, MaxRetries: 1, RetryDelay: time.Millisecond}, clockwork.NewRealClock())
	_ = w.Publish(context.Background(), newEvent(t, events.EventTypeSubmissionLocked))
	if err := w.Publish(context.Background(), newEvent(t, events.EventTypeSubmissionLocked)); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Publish() on full queue error = %v, want ErrQueueFull", err)
	}

	_ = w.Start(context.Background())
	_ = w.Stop()

	stats := w.Stats()
	if stats.Failed != 1 || stats.Dropped != 1 || stats.Processed != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestWorker_DeliversEventsQueuedAfterCancel(t *testing.T) {
	down := &sink{}
	w := NewWorker(down, Config{QueueSize: 8, MaxRetries: 1, RetryDelay: time.Millisecond}, clockwork.NewRealClock())
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	if err := w.Publish(context.Background(), newEvent(t, events.EventTypeSessionEnded)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if got := down.len(); got != 1 {
		t.Errorf("delivered = %d, want 1", got)
	}
	if stats := w.Stats(); stats.Pending != 0 || stats.Processed != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestFilter(t *testing.T) {
	down := &sink{}
	f := NewFilter(down, DurableTypes...)

	_ = f.Publish(context.Background(), newEvent(t, events.EventTypeTimerTick))
	_ = f.Publish(context.Background(), newEvent(t, events.EventTypeSignalOutcome))
	_ = f.Publish(context.Background(), newEvent(t, events.EventTypeViolationRecorded))

	if got := down.len(); got != 1 {
		t.Errorf("forwarded = %d, want 1", got)
	}
}

func TestFanout_JoinsErrors(t *testing.T) {
	ok := &sink{}
	bad := &sink{failures: 1}
	err := Fanout{ok, bad}.Publish(context.Background(), newEvent(t, events.EventTypeSessionStarted))
	if err == nil {
		t.Fatal("Fanout should report the failing sink")
	}
	if ok.len() != 1 {
		t.Error("healthy sink should still receive the event")
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(zerolog.New(&buf), zerolog.InfoLevel)
	if err := p.Publish(context.Background(), newEvent(t, events.EventTypeViolationRecorded)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"event_type":"ViolationRecorded"`, `"student_id":"s1"`, `"data":{"n":1}`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %s missing %s", out, want)
		}
	}
}

func TestSubject(t *testing.T) {
	e := newEvent(t, events.EventTypeSubmissionLocked)
	e.StudentID = "dyn.a b"
	if got, want := Subject("proctor.events", e), "proctor.events.dyn_a_b.SubmissionLocked"; got != want {
		t.Errorf("Subject() = %q, want %q", got, want)
	}
}

func TestHealthChecker(t *testing.T) {
	w := NewWorker(&sink{}, DefaultConfig(), clockwork.NewRealClock())
	h := NewHealthChecker(w, nil, 10)
	if h.Check().Healthy {
		t.Error("stopped worker should be unhealthy")
	}
	_ = w.Start(context.Background())
	defer w.Stop()
	if st := h.Check(); !st.Healthy || st.NATSEnabled {
		t.Errorf("Check() = %+v", st)
	}
}
