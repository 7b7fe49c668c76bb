// Package ledger keeps the per-kind violation counters for one contest session.
package ledger

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/proctor/go/internal/models"
)

// Ledger maps each violation kind to a single counted record. Repeated kinds
// coalesce into the existing record; they never add entries.
//
// A Ledger is not safe for concurrent use. The session container serializes
// access to it.
type Ledger struct {
	clock   clockwork.Clock
	records map[models.ViolationKind]*models.ViolationRecord
	order   []models.ViolationKind // first-observed first
}

// New creates an empty ledger stamped by clock.
func New(clock clockwork.Clock) *Ledger {
	return &Ledger{
		clock:   clock,
		records: make(map[models.ViolationKind]*models.ViolationRecord),
	}
}

// Record counts one occurrence of kind. The zero kind is ignored.
func (l *Ledger) Record(kind models.ViolationKind) models.ViolationRecord {
	if !kind.IsValid() {
		return models.ViolationRecord{}
	}

	now := l.clock.Now()
	rec, ok := l.records[kind]
	if !ok {
		rec = &models.ViolationRecord{Kind: kind}
		l.records[kind] = rec
		l.order = append(l.order, kind)
	}
	rec.Count++
	rec.LastObservedAt = now
	return *rec
}

// Snapshot returns a copy of the records, first-observed first.
func (l *Ledger) Snapshot() []models.ViolationRecord {
	out := make([]models.ViolationRecord, 0, len(l.order))
	for _, kind := range l.order {
		out = append(out, *l.records[kind])
	}
	return out
}

// Count returns the count for kind, or 0 if it was never recorded.
func (l *Ledger) Count(kind models.ViolationKind) int {
	if rec, ok := l.records[kind]; ok {
		return rec.Count
	}
	return 0
}

// Total is the sum of every record's count.
func (l *Ledger) Total() int {
	total := 0
	for _, rec := range l.records {
		total += rec.Count
	}
	return total
}

// Len is the number of distinct kinds observed.
func (l *Ledger) Len() int {
	return len(l.order)
}

// LastObserved returns the most recent timestamp across all kinds.
func (l *Ledger) LastObserved() (time.Time, bool) {
	var latest time.Time
	for _, rec := range l.records {
		if rec.LastObservedAt.After(latest) {
			latest = rec.LastObservedAt
		}
	}
	return latest, !latest.IsZero()
}

// WarningLevel buckets a warning count for the status strip.
type WarningLevel string

const (
	WarningLevelNormal   WarningLevel = "normal"
	WarningLevelElevated WarningLevel = "elevated"
	WarningLevelHigh     WarningLevel = "high"
)

// LevelFor classifies a total warning count.
func LevelFor(warnings int) WarningLevel {
	switch {
	case warnings > 5:
		return WarningLevelHigh
	case warnings > 2:
		return WarningLevelElevated
	default:
		return WarningLevelNormal
	}
}
