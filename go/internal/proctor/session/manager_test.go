package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/proctor/go/internal/models"
)

func waitForTicker(t *testing.T, clock *clockwork.FakeClock, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, n); err != nil {
		t.Fatalf("runner never registered its ticker: %v", err)
	}
}

func TestRunner_AutoSubmitsOnExpiry(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	st := NewState(testStudent(), t0.Add(2*time.Second), clock, DefaultConfig(), nil)

	finals := make(chan FinalState, 1)
	submitter := AutoSubmitFunc(func(_ context.Context, final FinalState) error {
		finals <- final
		return nil
	})
	ticks := make(chan TickResult, 4)
	r := NewRunner(st, clock, time.Second, submitter)
	r.onTick = func(res TickResult) { ticks <- res }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()
	waitForTicker(t, clock, 1)

	for i := 1; i <= 2; i++ {
		clock.Advance(time.Second)
		select {
		case res := <-ticks:
			if res.SecondsRemaining != 2-i {
				t.Errorf("tick %d remaining = %d, want %d", i, res.SecondsRemaining, 2-i)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("tick %d never arrived", i)
		}
	}

	select {
	case final := <-finals:
		if final.Snapshot.Student.ID != "s1" || final.Language != models.DefaultLanguage {
			t.Errorf("final = %+v", final.Snapshot)
		}
	default:
		t.Fatal("auto-submitter was not invoked")
	}
	if !st.SubmissionLocked() {
		t.Error("session should be locked")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop on cancel")
	}
}

func TestManager_Lifecycle(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	m := NewManager(clock, DefaultConfig(), nil)
	defer m.Shutdown()

	end := t0.Add(10 * time.Minute)
	a := m.Start(models.Student{ID: "s2", Name: "Priya Patel"}, end)
	b := m.Start(models.Student{ID: "s1", Name: "Aarav Sharma"}, end)
	if again := m.Start(models.Student{ID: "s2"}, end); again != a {
		t.Error("Start() for a live student should return the existing session")
	}

	got, err := m.Get("s1")
	if err != nil || got != b {
		t.Fatalf("Get(s1) = %v, %v", got, err)
	}

	list := m.List()
	if len(list) != 2 || list[0].Student.ID != "s1" || list[1].Student.ID != "s2" {
		t.Fatalf("List() = %+v", list)
	}

	m.ContestEndTimeChanged(end.Add(20 * time.Minute))
	for _, s := range []*State{a, b} {
		if got := s.SecondsRemaining(); got != 1800 {
			t.Errorf("SecondsRemaining() = %d, want 1800", got)
		}
	}

	if err := m.End("s2", EndReasonLogout); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if !a.Closed() {
		t.Error("ended session should be closed")
	}
	if _, err := m.Get("s2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after End error = %v, want ErrNotFound", err)
	}
	if err := m.End("s2", EndReasonLogout); !errors.Is(err, ErrNotFound) {
		t.Errorf("second End() error = %v, want ErrNotFound", err)
	}

	fresh := m.Start(models.Student{ID: "s2"}, end)
	if fresh == a || fresh.WarningCount() != 0 {
		t.Error("a new login should start from defaults")
	}
}

func TestManager_ShutdownClosesAll(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	m := NewManager(clock, DefaultConfig(), nil)

	a := m.Start(models.Student{ID: "s1"}, t0.Add(time.Hour))
	b := m.Start(models.Student{ID: "s2"}, t0.Add(time.Hour))
	m.Shutdown()

	if !a.Closed() || !b.Closed() {
		t.Error("Shutdown() should close every session")
	}
	if got := len(m.List()); got != 0 {
		t.Errorf("len(List()) = %d, want 0", got)
	}
}
