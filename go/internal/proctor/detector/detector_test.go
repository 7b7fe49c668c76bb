package detector

import (
	"testing"
	"time"

	"github.com/mcdev12/proctor/go/internal/models"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		sig      Signal
		want     models.ViolationKind
		suppress bool
	}{
		{"hidden", VisibilityChanged{Hidden: true}, models.ViolationTabSwitch, false},
		{"blur", FocusLost{}, models.ViolationFocusLoss, false},
		{"context-menu", ContextMenuRequested{}, models.ViolationRightClick, true},
		{"f12", KeyPressed{Key: "F12"}, models.ViolationRightClick, true},
		{"ctrl-shift-i", KeyPressed{Key: "I", Ctrl: true, Shift: true}, models.ViolationRightClick, true},
		{"ctrl-shift-i-lower", KeyPressed{Key: "i", Ctrl: true, Shift: true}, models.ViolationRightClick, true},
		{"ctrl-shift-j", KeyPressed{Key: "J", Ctrl: true, Shift: true}, models.ViolationRightClick, true},
		{"shift-f12", KeyPressed{Key: "F12", Shift: true}, models.ViolationRightClick, true},
		{"ctrl-f12", KeyPressed{Key: "F12", Ctrl: true}, models.ViolationRightClick, true},
		{"ctrl-shift-alt-i", KeyPressed{Key: "I", Ctrl: true, Shift: true, Alt: true}, models.ViolationRightClick, true},
		{"cmd-alt-i", KeyPressed{Key: "i", Alt: true, Meta: true}, models.ViolationRightClick, true},
		{"paste", ClipboardPasted{}, models.ViolationCopyPaste, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := Classify(tc.sig)
			if !out.Violation {
				t.Fatalf("Classify(%T) not a violation", tc.sig)
			}
			if out.Kind != tc.want {
				t.Errorf("Kind = %s, want %s", out.Kind, tc.want)
			}
			if out.SuppressDefault != tc.suppress {
				t.Errorf("SuppressDefault = %v, want %v", out.SuppressDefault, tc.suppress)
			}
			if out.Message == "" {
				t.Error("empty message")
			}
		})
	}
}

func TestClassify_NotViolations(t *testing.T) {
	signals := []Signal{
		VisibilityChanged{Hidden: false},
		KeyPressed{Key: "a"},
		KeyPressed{Key: "I", Ctrl: true},
		KeyPressed{Key: "J", Shift: true},
		KeyPressed{Key: "I", Alt: true},
		PointerMoved{},
		Clicked{},
		IdleTick{},
	}
	for _, sig := range signals {
		if out := Classify(sig); out.Violation {
			t.Errorf("Classify(%#v) = %s, want no violation", sig, out.Kind)
		}
	}
}

func TestDetector_IdleRepeatFiring(t *testing.T) {
	d := New(300 * time.Second)

	fired := 0
	for i := 1; i <= 900; i++ {
		out := d.Dispatch(IdleTick{})
		if out.Violation {
			if out.Kind != models.ViolationInactivity {
				t.Fatalf("tick %d: kind = %s", i, out.Kind)
			}
			if i%300 != 0 {
				t.Fatalf("fired at tick %d", i)
			}
			fired++
		}
	}
	if fired != 3 {
		t.Errorf("inactivity fired %d times, want 3", fired)
	}
	if d.IdleSeconds() != 900 {
		t.Errorf("IdleSeconds() = %d, want 900", d.IdleSeconds())
	}
}

func TestDetector_ActivityResetsIdle(t *testing.T) {
	resets := []Signal{PointerMoved{}, Clicked{}, KeyPressed{Key: "x"}}
	for _, reset := range resets {
		d := New(10 * time.Second)
		for i := 0; i < 9; i++ {
			d.Dispatch(IdleTick{})
		}
		d.Dispatch(reset)
		if d.IdleSeconds() != 0 {
			t.Fatalf("%T did not reset idle counter", reset)
		}
		if out := d.Dispatch(IdleTick{}); out.Violation {
			t.Errorf("%T: inactivity fired one tick after reset", reset)
		}
	}
}

func TestDetector_BlockedShortcutStillResetsIdle(t *testing.T) {
	d := New(10 * time.Second)
	d.Dispatch(IdleTick{})

	out := d.Dispatch(KeyPressed{Key: "F12"})
	if !out.Violation || out.Kind != models.ViolationRightClick {
		t.Fatalf("F12 outcome = %+v", out)
	}
	if d.IdleSeconds() != 0 {
		t.Errorf("IdleSeconds() = %d, want 0", d.IdleSeconds())
	}
}

func TestNew_DefaultsThreshold(t *testing.T) {
	if got := New(0).Threshold(); got != DefaultIdleThreshold {
		t.Errorf("Threshold() = %v, want %v", got, DefaultIdleThreshold)
	}
}

func TestDecode(t *testing.T) {
	testCases := []struct {
		frame string
		want  Signal
	}{
		{`{"type":"visibility_change","hidden":true}`, VisibilityChanged{Hidden: true}},
		{`{"type":"blur"}`, FocusLost{}},
		{`{"type":"context_menu"}`, ContextMenuRequested{}},
		{`{"type":"key_down","key":"I","ctrl":true,"shift":true}`, KeyPressed{Key: "I", Ctrl: true, Shift: true}},
		{`{"type":"mouse_move"}`, PointerMoved{}},
		{`{"type":"click"}`, Clicked{}},
		{`{"type":"paste"}`, ClipboardPasted{}},
	}
	for _, tc := range testCases {
		got, err := Decode([]byte(tc.frame))
		if err != nil {
			t.Fatalf("Decode(%s) error = %v", tc.frame, err)
		}
		if got != tc.want {
			t.Errorf("Decode(%s) = %#v, want %#v", tc.frame, got, tc.want)
		}
	}
}

func TestDecode_Rejects(t *testing.T) {
	for _, frame := range []string{`{"type":"idle_tick"}`, `{"type":"nope"}`, `not json`} {
		if _, err := Decode([]byte(frame)); err == nil {
			t.Errorf("Decode(%s) expected error", frame)
		}
	}
}
