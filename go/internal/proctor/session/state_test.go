package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/proctor/go/internal/models"
	"github.com/mcdev12/proctor/go/internal/proctor/detector"
	"github.com/mcdev12/proctor/go/internal/proctor/events"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []*events.Event
}

func (r *recorder) Publish(_ context.Context, evt *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recorder) count(typ events.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func testStudent() models.Student {
	return models.Student{ID: "s1", Name: "Aarav Sharma", AssignedQuestionID: "q1"}
}

func newTestState(t *testing.T, end time.Duration) (*State, *clockwork.FakeClock, *recorder) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(t0)
	rec := &recorder{}
	return NewState(testStudent(), t0.Add(end), clock, DefaultConfig(), rec), clock, rec
}

func TestState_CountingCorrectness(t *testing.T) {
	for _, n := range []int{0, 1, 5, 100} {
		st, _, _ := newTestState(t, time.Hour)
		for i := 0; i < n; i++ {
			st.AddViolation(models.ViolationTabSwitch)
		}
		st.AddViolation(models.ViolationFocusLoss)
		st.AddViolation(models.ViolationRightClick)

		if got := st.TabSwitchCount(); got != n {
			t.Errorf("n=%d: TabSwitchCount() = %d", n, got)
		}
		if got := st.WarningCount(); got != n+2 {
			t.Errorf("n=%d: WarningCount() = %d, want %d", n, got, n+2)
		}
		sum := 0
		for _, r := range st.Violations() {
			sum += r.Count
		}
		if sum != st.WarningCount() {
			t.Errorf("n=%d: ledger sum %d != warning count %d", n, sum, st.WarningCount())
		}
	}
}

func TestState_DispatchRecordsBeforePopup(t *testing.T) {
	st, _, rec := newTestState(t, time.Hour)

	out, applied := st.Dispatch(detector.VisibilityChanged{Hidden: true})
	if !applied || !out.Violation || out.Kind != models.ViolationTabSwitch {
		t.Fatalf("Dispatch() = %+v, %v", out, applied)
	}
	if got := st.TabSwitchCount(); got != 1 {
		t.Fatalf("TabSwitchCount() = %d, want 1", got)
	}
	notes := st.Notifications()
	if len(notes) != 1 || notes[0].WarningNumber != 1 {
		t.Fatalf("Notifications() = %+v", notes)
	}
	if got := rec.count(events.EventTypeViolationRecorded); got != 1 {
		t.Errorf("ViolationRecorded events = %d, want 1", got)
	}
}

func TestState_ContextMenuSuppressed(t *testing.T) {
	st, _, _ := newTestState(t, time.Hour)
	out, _ := st.Dispatch(detector.ContextMenuRequested{})
	if !out.SuppressDefault {
		t.Error("context menu should be suppressed")
	}
	out, _ = st.Dispatch(detector.KeyPressed{Key: "F12"})
	if !out.SuppressDefault || out.Kind != models.ViolationRightClick {
		t.Errorf("F12 outcome = %+v", out)
	}
	if got := len(st.Violations()); got != 1 {
		t.Errorf("ledger entries = %d, want 1 (coalesced)", got)
	}
}

func TestState_PostLockSilence(t *testing.T) {
	st, _, _ := newTestState(t, time.Hour)
	st.AddViolation(models.ViolationFocusLoss)

	if _, ok := st.LockSubmission(LockReasonManual); !ok {
		t.Fatal("first lock should apply")
	}
	before := st.Violations()

	if st.AddViolation(models.ViolationTabSwitch) {
		t.Error("AddViolation after lock should be a no-op")
	}
	if _, applied := st.Dispatch(detector.VisibilityChanged{Hidden: true}); applied {
		t.Error("Dispatch after lock should be inert")
	}
	for i := 0; i < 600; i++ {
		st.Tick()
	}

	after := st.Violations()
	if len(after) != len(before) || after[0].Count != before[0].Count {
		t.Errorf("ledger changed after lock: before %+v after %+v", before, after)
	}
	if len(st.Notifications()) != 0 {
		t.Error("no popups after lock")
	}
}

func TestState_LockIdempotent(t *testing.T) {
	st, _, rec := newTestState(t, time.Hour)

	if _, ok := st.LockSubmission(LockReasonManual); !ok {
		t.Fatal("first lock should apply")
	}
	if _, ok := st.LockSubmission(LockReasonAdmin); ok {
		t.Error("second lock should not apply")
	}
	if got := rec.count(events.EventTypeSubmissionLocked); got != 1 {
		t.Errorf("SubmissionLocked events = %d, want 1", got)
	}
	if snap := st.Snapshot(); snap.LockReason != LockReasonManual || !snap.SubmissionLocked {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestState_ContestEndsDuringSession(t *testing.T) {
	st, clock, _ := newTestState(t, 2*time.Second)

	clock.Advance(time.Second)
	res := st.Tick()
	if res.SecondsRemaining != 1 || res.Expired || res.AutoLocked {
		t.Fatalf("tick 1 = %+v", res)
	}

	clock.Advance(2 * time.Second)
	res = st.Tick()
	if res.SecondsRemaining != 0 || !res.Expired || !res.AutoLocked {
		t.Fatalf("tick 2 = %+v", res)
	}
	if res.Final == nil || res.Final.Snapshot.LockReason != LockReasonAuto {
		t.Fatalf("tick 2 final = %+v", res.Final)
	}
	if !st.SubmissionLocked() {
		t.Fatal("session should be locked after expiry")
	}

	st.Dispatch(detector.VisibilityChanged{Hidden: true})
	clock.Advance(time.Second)
	res = st.Tick()
	if res.Expired || res.AutoLocked {
		t.Errorf("tick 3 re-signaled expiry: %+v", res)
	}
	if got := st.TabSwitchCount(); got != 0 {
		t.Errorf("TabSwitchCount() = %d after expiry, want 0", got)
	}
	if got := st.SecondsRemaining(); got != 0 {
		t.Errorf("SecondsRemaining() = %d, want 0", got)
	}
}

func TestState_ManualLockBeforeExpiryDoesNotAutoLock(t *testing.T) {
	st, clock, _ := newTestState(t, time.Second)
	st.LockSubmission(LockReasonManual)

	clock.Advance(2 * time.Second)
	res := st.Tick()
	if !res.Expired {
		t.Error("timer still reports the expiry edge")
	}
	if res.AutoLocked {
		t.Error("already locked session must not auto-lock again")
	}
}

func TestState_IdleRepeatFiring(t *testing.T) {
	st, _, _ := newTestState(t, 24*time.Hour)

	inactivity := 0
	for i := 0; i < 900; i++ {
		if st.Tick().Inactivity {
			inactivity++
		}
	}
	if inactivity != 3 {
		t.Errorf("inactivity firings = %d, want 3", inactivity)
	}
	for _, r := range st.Violations() {
		if r.Kind == models.ViolationInactivity && r.Count != 3 {
			t.Errorf("Inactivity count = %d, want 3", r.Count)
		}
	}
}

func TestState_ActivityResetsIdle(t *testing.T) {
	st, _, _ := newTestState(t, 24*time.Hour)
	for i := 0; i < 299; i++ {
		st.Tick()
	}
	st.Dispatch(detector.PointerMoved{})
	if got := st.IdleSeconds(); got != 0 {
		t.Fatalf("IdleSeconds() = %d after activity", got)
	}
	for i := 0; i < 299; i++ {
		st.Tick()
	}
	if got := st.WarningCount(); got != 0 {
		t.Errorf("WarningCount() = %d, want 0", got)
	}
}

func TestState_ImmediateRecomputeOnEdit(t *testing.T) {
	st, _, rec := newTestState(t, 600*time.Second)
	if got := st.SecondsRemaining(); got != 600 {
		t.Fatalf("SecondsRemaining() = %d, want 600", got)
	}

	end := st.ContestEndTime().Add(1200 * time.Second)
	if got := st.UpdateContestEndTime(end); got != 1800 {
		t.Errorf("UpdateContestEndTime() = %d, want 1800", got)
	}
	if got := st.SecondsRemaining(); got != 1800 {
		t.Errorf("SecondsRemaining() = %d, want 1800", got)
	}
	if got := rec.count(events.EventTypeContestEndTimeChanged); got != 1 {
		t.Errorf("ContestEndTimeChanged events = %d, want 1", got)
	}
}

func TestState_ClampsPastEndTime(t *testing.T) {
	st, clock, _ := newTestState(t, -time.Minute)
	for i := 0; i < 3; i++ {
		if got := st.Tick().SecondsRemaining; got != 0 {
			t.Errorf("tick %d remaining = %d", i, got)
		}
		clock.Advance(time.Second)
	}
}

func TestState_NotificationStackCap(t *testing.T) {
	st, _, _ := newTestState(t, time.Hour)
	for i := 0; i < 4; i++ {
		st.AddViolation(models.ViolationFocusLoss)
	}
	notes := st.Notifications()
	if len(notes) != 3 {
		t.Fatalf("len(Notifications()) = %d, want 3", len(notes))
	}
	for i, n := range notes {
		if n.WarningNumber != i+2 {
			t.Errorf("notes[%d].WarningNumber = %d, want %d", i, n.WarningNumber, i+2)
		}
	}
}

func TestState_NotificationsExpireIndependently(t *testing.T) {
	st, clock, _ := newTestState(t, time.Hour)

	st.AddViolation(models.ViolationTabSwitch)
	clock.Advance(3 * time.Second)
	st.AddViolation(models.ViolationTabSwitch)
	clock.Advance(2 * time.Second)

	notes := st.Notifications()
	if len(notes) != 1 || notes[0].WarningNumber != 2 {
		t.Fatalf("Notifications() = %+v, want only the second popup", notes)
	}

	clock.Advance(3 * time.Second)
	if got := len(st.Notifications()); got != 0 {
		t.Errorf("len(Notifications()) = %d, want 0", got)
	}
}

func TestState_EditorLockedAfterSubmit(t *testing.T) {
	st, _, _ := newTestState(t, time.Hour)

	if err := st.SetLanguage(models.LanguagePython); err != nil {
		t.Fatalf("SetLanguage() error = %v", err)
	}
	code, lang := st.Code()
	if lang != models.LanguagePython || code != models.DefaultTemplates[models.LanguagePython] {
		t.Errorf("Code() = %q, %q", code, lang)
	}

	wantErr := errors.New("too short")
	if _, err := st.Submit(func(string, models.Language) error { return wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("Submit() error = %v, want %v", err, wantErr)
	}
	if st.SubmissionLocked() {
		t.Fatal("failed validation must not lock")
	}

	if err := st.UpdateCode("print(42)"); err != nil {
		t.Fatalf("UpdateCode() error = %v", err)
	}
	final, err := st.Submit(nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if final.Code != "print(42)" || final.Language != models.LanguagePython {
		t.Errorf("final = %+v", final)
	}

	if err := st.UpdateCode("x"); !errors.Is(err, ErrLocked) {
		t.Errorf("UpdateCode() after lock error = %v, want ErrLocked", err)
	}
	if err := st.SetLanguage(models.LanguageC); !errors.Is(err, ErrLocked) {
		t.Errorf("SetLanguage() after lock error = %v, want ErrLocked", err)
	}
	if _, err := st.Submit(nil); !errors.Is(err, ErrLocked) {
		t.Errorf("second Submit() error = %v, want ErrLocked", err)
	}
}

func TestState_ActivityStatus(t *testing.T) {
	st, _, _ := newTestState(t, time.Hour)
	if got := st.Snapshot().Activity; got != ActivityCoding {
		t.Errorf("Activity = %q, want %q", got, ActivityCoding)
	}
	for i := 0; i < 60; i++ {
		st.Tick()
	}
	if got := st.Snapshot().Activity; got != ActivityIdle {
		t.Errorf("Activity = %q, want %q", got, ActivityIdle)
	}
	st.LockSubmission(LockReasonManual)
	if got := st.Snapshot().Activity; got != ActivitySubmitted {
		t.Errorf("Activity = %q, want %q", got, ActivitySubmitted)
	}
}

func TestState_CloseDetaches(t *testing.T) {
	st, _, rec := newTestState(t, time.Hour)
	st.Close(EndReasonLogout)
	st.Close(EndReasonLogout)

	if _, applied := st.Dispatch(detector.FocusLost{}); applied {
		t.Error("closed session should be inert")
	}
	if !st.Tick().Closed {
		t.Error("Tick() on closed session should report Closed")
	}
	if err := st.UpdateCode("x"); !errors.Is(err, ErrClosed) {
		t.Errorf("UpdateCode() error = %v, want ErrClosed", err)
	}
	if got := rec.count(events.EventTypeSessionEnded); got != 1 {
		t.Errorf("SessionEnded events = %d, want 1", got)
	}
}
