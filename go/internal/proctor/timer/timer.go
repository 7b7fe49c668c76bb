// Package timer derives the contest countdown from a fixed end time and a clock.
package timer

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// Remaining returns whole seconds left until endTime, clamped at zero.
func Remaining(endTime, now time.Time) int {
	d := endTime.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

// Urgency is the display tier of the remaining time.
type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyWarning  Urgency = "warning"
	UrgencyCritical Urgency = "critical"
)

// UrgencyFor classifies secondsRemaining: critical under 5 minutes, warning
// under 15 minutes.
func UrgencyFor(secondsRemaining int) Urgency {
	switch {
	case secondsRemaining < 300:
		return UrgencyCritical
	case secondsRemaining < 900:
		return UrgencyWarning
	default:
		return UrgencyNormal
	}
}

// Format renders seconds as HH:MM:SS.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// Progress returns the elapsed share of total in percent, clamped to [0, 100].
func Progress(total time.Duration, secondsRemaining int) float64 {
	totalSec := total.Seconds()
	if totalSec <= 0 {
		return 100
	}
	pct := (totalSec - float64(secondsRemaining)) / totalSec * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// Reading is the result of one timer evaluation.
type Reading struct {
	SecondsRemaining int
	Urgency          Urgency
	// Expired is true only on the evaluation that first observed zero.
	Expired bool
}

// Timer evaluates the countdown and reports the expiry edge exactly once.
type Timer struct {
	clock    clockwork.Clock
	endTime  time.Time
	signaled bool
}

// New creates a timer counting down to endTime.
func New(clock clockwork.Clock, endTime time.Time) *Timer {
	return &Timer{
		clock:   clock,
		endTime: endTime,
	}
}

// EndTime returns the current end time.
func (t *Timer) EndTime() time.Time {
	return t.endTime
}

// SetEndTime replaces the end time and returns the recomputed remainder
// without waiting for the next tick. Moving the end time back into the future
// re-arms the expiry edge.
func (t *Timer) SetEndTime(endTime time.Time) int {
	t.endTime = endTime
	remaining := t.Remaining()
	if remaining > 0 {
		t.signaled = false
	}
	return remaining
}

// Remaining reads the remainder at the clock's current time.
func (t *Timer) Remaining() int {
	return Remaining(t.endTime, t.clock.Now())
}

// Tick evaluates the timer. Expired is edge-triggered: subsequent ticks at
// zero do not signal again.
func (t *Timer) Tick() Reading {
	remaining := t.Remaining()
	r := Reading{
		SecondsRemaining: remaining,
		Urgency:          UrgencyFor(remaining),
	}
	if remaining == 0 && !t.signaled {
		t.signaled = true
		r.Expired = true
	}
	return r
}
