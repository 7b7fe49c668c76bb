// Package outbox moves session events from the hot path to slower sinks.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/proctor/go/internal/proctor/events"
)

var (
	ErrNotRunning     = errors.New("outbox worker not running")
	ErrAlreadyRunning = errors.New("outbox worker already running")
	ErrQueueFull      = errors.New("outbox queue full")
)

type Config struct {
	QueueSize  int
	MaxRetries int
	RetryDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		QueueSize:  1024,
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// Worker queues events and publishes them to a downstream publisher on its
// own goroutine so a slow broker never stalls a session.
type Worker struct {
	publisher events.Publisher
	config    Config
	clock     clockwork.Clock
	queue     chan *events.Event

	mu            sync.Mutex
	running       bool
	stopChan      chan struct{}
	wg            sync.WaitGroup
	processed     uint64
	failed        uint64
	dropped       uint64
	lastEventTime time.Time
}

func NewWorker(publisher events.Publisher, cfg Config, clock clockwork.Clock) *Worker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	return &Worker{
		publisher: publisher,
		config:    cfg,
		clock:     clock,
		queue:     make(chan *events.Event, cfg.QueueSize),
		stopChan:  make(chan struct{}),
	}
}

// Publish enqueues event without blocking.
func (w *Worker) Publish(_ context.Context, event *events.Event) error {
	select {
	case w.queue <- event:
		return nil
	default:
		w.mu.Lock()
		w.dropped++
		w.mu.Unlock()
		log.Warn().
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Msg("Outbox queue full, dropping event")
		return ErrQueueFull
	}
}

// Start launches the publish loop. The loop outlives ctx cancellation so
// events enqueued during shutdown still go out; only Stop ends it.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyRunning
	}
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(context.WithoutCancel(ctx))

	log.Info().
		Int("queue_size", w.config.QueueSize).
		Int("max_retries", w.config.MaxRetries).
		Msg("Outbox worker started")
	return nil
}

// Stop drains whatever is already queued and waits for the worker to exit.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return ErrNotRunning
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()

	log.Info().Msg("Outbox worker stopped")
	return nil
}

// Running reports whether the worker loop is active.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Stats returns counters for the health endpoint.
func (w *Worker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		Processed:     w.processed,
		Failed:        w.failed,
		Dropped:       w.dropped,
		Pending:       len(w.queue),
		LastEventTime: w.lastEventTime,
	}
}

// Stats are the worker's counters.
type Stats struct {
	Processed     uint64    `json:"processed"`
	Failed        uint64    `json:"failed"`
	Dropped       uint64    `json:"dropped"`
	Pending       int       `json:"pending"`
	LastEventTime time.Time `json:"last_event_time"`
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			w.drain(ctx)
			return
		case event := <-w.queue:
			w.process(ctx, event)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		select {
		case event := <-w.queue:
			w.process(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) process(ctx context.Context, event *events.Event) {
	err := w.publishWithRetry(ctx, event)

	w.mu.Lock()
	if err != nil {
		w.failed++
	} else {
		w.processed++
		w.lastEventTime = w.clock.Now()
	}
	w.mu.Unlock()

	if err != nil {
		log.Error().
			Err(err).
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Msg("Failed to publish event")
	}
}

func (w *Worker) publishWithRetry(ctx context.Context, event *events.Event) error {
	var lastErr error

	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-w.clock.After(w.config.RetryDelay * time.Duration(attempt)):
			}
		}

		if err := w.publisher.Publish(ctx, event); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Str("event_id", event.ID).
				Int("attempt", attempt+1).
				Msg("Failed to publish event, retrying")
			continue
		}
		return nil
	}

	return fmt.Errorf("failed after %d attempts: %w", w.config.MaxRetries+1, lastErr)
}
