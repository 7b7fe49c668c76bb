package ledger

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/proctor/go/internal/models"
)

func TestLedger_RecordCountsExactly(t *testing.T) {
	for _, n := range []int{0, 1, 5, 100} {
		l := New(clockwork.NewFakeClock())
		for i := 0; i < n; i++ {
			l.Record(models.ViolationTabSwitch)
		}

		if got := l.Count(models.ViolationTabSwitch); got != n {
			t.Errorf("n=%d: Count(TabSwitch) = %d", n, got)
		}
		if got := l.Total(); got != n {
			t.Errorf("n=%d: Total() = %d", n, got)
		}
		wantLen := 0
		if n > 0 {
			wantLen = 1
		}
		if l.Len() != wantLen {
			t.Errorf("n=%d: Len() = %d, want %d", n, l.Len(), wantLen)
		}
	}
}

func TestLedger_SingleEntryPerKind(t *testing.T) {
	orders := [][]models.ViolationKind{
		{models.ViolationTabSwitch, models.ViolationFocusLoss},
		{models.ViolationFocusLoss, models.ViolationTabSwitch},
	}
	for _, order := range orders {
		l := New(clockwork.NewFakeClock())
		for _, k := range order {
			l.Record(k)
		}
		snap := l.Snapshot()
		if len(snap) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(snap))
		}
		if snap[0].Kind != order[0] || snap[1].Kind != order[1] {
			t.Errorf("snapshot order = [%s %s], want [%s %s]", snap[0].Kind, snap[1].Kind, order[0], order[1])
		}
	}
}

func TestLedger_SnapshotIsFirstObservedFirst(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(clock)

	start := clock.Now()
	l.Record(models.ViolationFocusLoss)
	clock.Advance(time.Second)
	l.Record(models.ViolationTabSwitch)
	clock.Advance(time.Second)
	l.Record(models.ViolationFocusLoss)

	want := []models.ViolationRecord{
		{Kind: models.ViolationFocusLoss, Count: 2, LastObservedAt: start.Add(2 * time.Second)},
		{Kind: models.ViolationTabSwitch, Count: 1, LastObservedAt: start.Add(time.Second)},
	}
	if diff := cmp.Diff(want, l.Snapshot(), cmp.AllowUnexported(models.ViolationKind{})); diff != "" {
		t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
	}

	last, ok := l.LastObserved()
	if !ok || !last.Equal(start.Add(2*time.Second)) {
		t.Errorf("LastObserved() = %v, %v", last, ok)
	}
}

func TestLedger_SnapshotIsACopy(t *testing.T) {
	l := New(clockwork.NewFakeClock())
	l.Record(models.ViolationRightClick)

	snap := l.Snapshot()
	snap[0].Count = 99

	if got := l.Count(models.ViolationRightClick); got != 1 {
		t.Errorf("ledger mutated through snapshot: count = %d", got)
	}
}

func TestLedger_IgnoresZeroKind(t *testing.T) {
	l := New(clockwork.NewFakeClock())
	l.Record(models.ViolationKind{})

	if l.Len() != 0 || l.Total() != 0 {
		t.Errorf("zero kind was recorded: len=%d total=%d", l.Len(), l.Total())
	}
}

func TestLevelFor(t *testing.T) {
	testCases := []struct {
		warnings int
		want     WarningLevel
	}{
		{0, WarningLevelNormal},
		{2, WarningLevelNormal},
		{3, WarningLevelElevated},
		{5, WarningLevelElevated},
		{6, WarningLevelHigh},
	}
	for _, tc := range testCases {
		if got := LevelFor(tc.warnings); got != tc.want {
			t.Errorf("LevelFor(%d) = %s, want %s", tc.warnings, got, tc.want)
		}
	}
}
