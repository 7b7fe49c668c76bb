// Package latency simulates the network delays of the contest front end.
package latency

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Delays observed on the student flows.
const (
	Login   = 800 * time.Millisecond
	Passkey = 600 * time.Millisecond
	Submit  = 1800 * time.Millisecond
	Run     = 1500 * time.Millisecond
	Rerun   = 2000 * time.Millisecond
)

// Simulator waits on a clock. A disabled simulator returns immediately.
type Simulator struct {
	clock   clockwork.Clock
	enabled bool
}

func New(clock clockwork.Clock, enabled bool) *Simulator {
	return &Simulator{clock: clock, enabled: enabled}
}

// Off is a simulator that never waits.
func Off() *Simulator {
	return &Simulator{}
}

// Wait blocks for d or until ctx is done. Other requests keep being served
// while one caller waits.
func (s *Simulator) Wait(ctx context.Context, d time.Duration) error {
	if s == nil || !s.enabled || d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.clock.After(d):
		return nil
	}
}
