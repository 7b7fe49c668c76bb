// Package detector classifies environment signals into anti-cheat violations.
package detector

import (
	"strings"
	"time"

	"github.com/mcdev12/proctor/go/internal/models"
)

// DefaultIdleThreshold is the span of continuous inactivity that counts as one
// inactivity violation.
const DefaultIdleThreshold = 300 * time.Second

// Warning messages shown in the client popup.
const (
	MsgTabSwitch  = "Tab switch detected! Stay on the competition window."
	MsgFocusLoss  = "Window focus lost! Return to the exam immediately."
	MsgRightClick = "Right-click is disabled during the contest."
	MsgDevTools   = "Developer tools are disabled during the contest."
	MsgInactivity = "Inactivity detected! Please continue working on your solution."
	MsgCopyPaste  = "Pasting code is not allowed during the contest."
)

// Outcome is the classification of one signal.
type Outcome struct {
	Kind      models.ViolationKind
	Violation bool
	// SuppressDefault asks the client to cancel the browser's default action.
	SuppressDefault bool
	Message         string
}

// shortcut lists the modifiers a combination needs. Extra modifiers held at
// the same time still match.
type shortcut struct {
	key                    string
	ctrl, shift, alt, meta bool
}

// blockedShortcuts are key combinations that open developer tools.
var blockedShortcuts = []shortcut{
	{key: "F12"},
	{key: "I", ctrl: true, shift: true},
	{key: "J", ctrl: true, shift: true},
	{key: "C", ctrl: true, shift: true},
	{key: "I", alt: true, meta: true},
}

func (s shortcut) matches(k KeyPressed, key string) bool {
	return s.key == key &&
		(!s.ctrl || k.Ctrl) &&
		(!s.shift || k.Shift) &&
		(!s.alt || k.Alt) &&
		(!s.meta || k.Meta)
}

// IsBlockedShortcut reports whether k opens developer tools.
func IsBlockedShortcut(k KeyPressed) bool {
	key := strings.ToUpper(k.Key)
	for _, s := range blockedShortcuts {
		if s.matches(k, key) {
			return true
		}
	}
	return false
}

// Classify maps a signal to its violation, ignoring inactivity, which depends
// on accumulated state.
func Classify(sig Signal) Outcome {
	switch s := sig.(type) {
	case VisibilityChanged:
		if s.Hidden {
			return Outcome{Kind: models.ViolationTabSwitch, Violation: true, Message: MsgTabSwitch}
		}
	case FocusLost:
		return Outcome{Kind: models.ViolationFocusLoss, Violation: true, Message: MsgFocusLoss}
	case ContextMenuRequested:
		return Outcome{Kind: models.ViolationRightClick, Violation: true, SuppressDefault: true, Message: MsgRightClick}
	case KeyPressed:
		// Devtools shortcuts share the right-click bucket.
		if IsBlockedShortcut(s) {
			return Outcome{Kind: models.ViolationRightClick, Violation: true, SuppressDefault: true, Message: MsgDevTools}
		}
	case ClipboardPasted:
		return Outcome{Kind: models.ViolationCopyPaste, Violation: true, Message: MsgCopyPaste}
	}
	return Outcome{}
}

// Detector tracks the idle counter alongside classification.
type Detector struct {
	thresholdSec int
	idleSec      int
}

// New creates a detector that flags inactivity every idleThreshold.
func New(idleThreshold time.Duration) *Detector {
	secs := int(idleThreshold / time.Second)
	if secs <= 0 {
		secs = int(DefaultIdleThreshold / time.Second)
	}
	return &Detector{thresholdSec: secs}
}

// Dispatch classifies sig and updates the idle counter. Any pointer movement,
// click or key press resets the counter; each idle tick advances it, and every
// whole multiple of the threshold yields an inactivity violation.
func (d *Detector) Dispatch(sig Signal) Outcome {
	switch sig.(type) {
	case PointerMoved, Clicked, KeyPressed:
		d.idleSec = 0
	case IdleTick:
		d.idleSec++
		if d.idleSec%d.thresholdSec == 0 {
			return Outcome{Kind: models.ViolationInactivity, Violation: true, Message: MsgInactivity}
		}
		return Outcome{}
	}
	return Classify(sig)
}

// IdleSeconds is the current span of continuous inactivity.
func (d *Detector) IdleSeconds() int {
	return d.idleSec
}

// Threshold returns the idle threshold.
func (d *Detector) Threshold() time.Duration {
	return time.Duration(d.thresholdSec) * time.Second
}
