package session

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Runner drives one session's one-second scheduling primitive: the contest
// countdown and the idle counter share a single ticker.
type Runner struct {
	state     *State
	clock     clockwork.Clock
	interval  time.Duration
	submitter AutoSubmitter

	// onTick is invoked after every tick. Tests use it to step the loop.
	onTick func(TickResult)
}

// NewRunner creates a runner for state.
func NewRunner(state *State, clock clockwork.Clock, interval time.Duration, submitter AutoSubmitter) *Runner {
	if interval <= 0 {
		interval = time.Second
	}
	return &Runner{
		state:     state,
		clock:     clock,
		interval:  interval,
		submitter: submitter,
	}
}

// Run ticks until ctx is cancelled or the session closes.
func (r *Runner) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	log.Debug().Str("session_id", r.state.ID().String()).Msg("Session runner started")
	defer log.Debug().Str("session_id", r.state.ID().String()).Msg("Session runner stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			res := r.state.Tick()
			if res.Closed {
				return
			}
			if res.AutoLocked && res.Final != nil {
				fireAutoSubmit(ctx, r.submitter, *res.Final)
			}
			if r.onTick != nil {
				r.onTick(res)
			}
		}
	}
}
