package detector

import (
	"encoding/json"
	"fmt"
)

// Signal is an environment notification delivered by the browser client or
// the session's own ticker. The set of signals is closed.
type Signal interface {
	signal()
}

// VisibilityChanged reports the document becoming hidden or visible.
type VisibilityChanged struct {
	Hidden bool
}

// FocusLost reports the window losing input focus.
type FocusLost struct{}

// ContextMenuRequested reports a right-click context menu request.
type ContextMenuRequested struct{}

// KeyPressed reports a key-down with its modifiers.
type KeyPressed struct {
	Key   string
	Ctrl  bool
	Shift bool
	Alt   bool
	Meta  bool
}

// PointerMoved reports mouse movement.
type PointerMoved struct{}

// Clicked reports a mouse click.
type Clicked struct{}

// ClipboardPasted reports a paste into the editor.
type ClipboardPasted struct{}

// IdleTick advances the inactivity counter by one second.
type IdleTick struct{}

func (VisibilityChanged) signal()    {}
func (FocusLost) signal()            {}
func (ContextMenuRequested) signal() {}
func (KeyPressed) signal()           {}
func (PointerMoved) signal()         {}
func (Clicked) signal()              {}
func (ClipboardPasted) signal()      {}
func (IdleTick) signal()             {}

// Wire names of client signals.
const (
	WireVisibilityChange = "visibility_change"
	WireBlur             = "blur"
	WireContextMenu      = "context_menu"
	WireKeyDown          = "key_down"
	WireMouseMove        = "mouse_move"
	WireClick            = "click"
	WirePaste            = "paste"
)

// wireSignal is the JSON frame a browser client sends.
type wireSignal struct {
	Type   string `json:"type"`
	Hidden bool   `json:"hidden,omitempty"`
	Key    string `json:"key,omitempty"`
	Ctrl   bool   `json:"ctrl,omitempty"`
	Shift  bool   `json:"shift,omitempty"`
	Alt    bool   `json:"alt,omitempty"`
	Meta   bool   `json:"meta,omitempty"`
}

// Decode parses a client frame into a Signal. Idle ticks are server-driven
// and cannot be sent by a client.
func Decode(data []byte) (Signal, error) {
	var w wireSignal
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode signal: %w", err)
	}

	switch w.Type {
	case WireVisibilityChange:
		return VisibilityChanged{Hidden: w.Hidden}, nil
	case WireBlur:
		return FocusLost{}, nil
	case WireContextMenu:
		return ContextMenuRequested{}, nil
	case WireKeyDown:
		return KeyPressed{Key: w.Key, Ctrl: w.Ctrl, Shift: w.Shift, Alt: w.Alt, Meta: w.Meta}, nil
	case WireMouseMove:
		return PointerMoved{}, nil
	case WireClick:
		return Clicked{}, nil
	case WirePaste:
		return ClipboardPasted{}, nil
	default:
		return nil, fmt.Errorf("unknown signal type %q", w.Type)
	}
}

// Name returns the wire-ish name of a signal for logging.
func Name(sig Signal) string {
	switch sig.(type) {
	case VisibilityChanged:
		return WireVisibilityChange
	case FocusLost:
		return WireBlur
	case ContextMenuRequested:
		return WireContextMenu
	case KeyPressed:
		return WireKeyDown
	case PointerMoved:
		return WireMouseMove
	case Clicked:
		return WireClick
	case ClipboardPasted:
		return WirePaste
	case IdleTick:
		return "idle_tick"
	default:
		return "unknown"
	}
}
