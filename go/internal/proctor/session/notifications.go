package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/proctor/go/internal/models"
)

// Notification is a transient warning popup.
type Notification struct {
	ID            uuid.UUID            `json:"id"`
	Kind          models.ViolationKind `json:"kind"`
	Message       string               `json:"message"`
	WarningNumber int                  `json:"warning_number"`
	CreatedAt     time.Time            `json:"created_at"`
	ExpiresAt     time.Time            `json:"expires_at"`
}

type stackEntry struct {
	n     Notification
	timer clockwork.Timer
}

// notificationStack holds the most recent popups. Each popup expires on its
// own timer; later popups never extend earlier ones.
type notificationStack struct {
	clock clockwork.Clock
	ttl   time.Duration
	max   int
	items []stackEntry
}

func newNotificationStack(clock clockwork.Clock, ttl time.Duration, max int) *notificationStack {
	return &notificationStack{clock: clock, ttl: ttl, max: max}
}

// push adds a popup, dropping the oldest beyond the cap. onExpire runs on the
// clock's timer goroutine when the popup's TTL elapses.
func (ns *notificationStack) push(kind models.ViolationKind, msg string, warningNumber int, onExpire func(uuid.UUID)) Notification {
	now := ns.clock.Now()
	n := Notification{
		ID:            uuid.New(),
		Kind:          kind,
		Message:       msg,
		WarningNumber: warningNumber,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ns.ttl),
	}

	id := n.ID
	entry := stackEntry{n: n, timer: ns.clock.AfterFunc(ns.ttl, func() { onExpire(id) })}
	ns.items = append(ns.items, entry)
	for len(ns.items) > ns.max {
		ns.items[0].timer.Stop()
		ns.items = ns.items[1:]
	}
	return n
}

// remove drops a popup by ID, reporting whether it was present.
func (ns *notificationStack) remove(id uuid.UUID) bool {
	for i, e := range ns.items {
		if e.n.ID == id {
			e.timer.Stop()
			ns.items = append(ns.items[:i], ns.items[i+1:]...)
			return true
		}
	}
	return false
}

// active returns the popups whose TTL has not elapsed, oldest first.
func (ns *notificationStack) active() []Notification {
	now := ns.clock.Now()
	out := make([]Notification, 0, len(ns.items))
	for _, e := range ns.items {
		if now.Before(e.n.ExpiresAt) {
			out = append(out, e.n)
		}
	}
	return out
}

func (ns *notificationStack) clear() {
	for _, e := range ns.items {
		e.timer.Stop()
	}
	ns.items = nil
}
