package latency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestSimulator_WaitsOnClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock, true)

	done := make(chan error, 1)
	go func() { done <- s.Wait(context.Background(), Login) }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatal(err)
	}
	clock.Advance(Login)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not return after advancing the clock")
	}
}

func TestSimulator_Cancelled(t *testing.T) {
	s := New(clockwork.NewFakeClock(), true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Wait(ctx, Submit); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestSimulator_Off(t *testing.T) {
	if err := Off().Wait(context.Background(), time.Hour); err != nil {
		t.Errorf("Off().Wait() error = %v", err)
	}
}
