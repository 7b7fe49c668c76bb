package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ViolationKind is the closed set of anti-cheat categories. The only values are
// the package-level variables below; the zero value is not a kind.
type ViolationKind struct {
	slug string
}

var (
	ViolationTabSwitch  = ViolationKind{"tab_switch"}
	ViolationFocusLoss  = ViolationKind{"blur"}
	ViolationInactivity = ViolationKind{"inactivity"}
	ViolationCopyPaste  = ViolationKind{"copy_paste"}
	ViolationRightClick = ViolationKind{"right_click"}
)

// ViolationKinds lists every kind in declaration order.
var ViolationKinds = []ViolationKind{
	ViolationTabSwitch,
	ViolationFocusLoss,
	ViolationInactivity,
	ViolationCopyPaste,
	ViolationRightClick,
}

// ParseViolationKind maps a wire name to its kind.
func ParseViolationKind(s string) (ViolationKind, error) {
	for _, k := range ViolationKinds {
		if k.slug == s {
			return k, nil
		}
	}
	return ViolationKind{}, fmt.Errorf("unknown violation kind %q", s)
}

// String returns the wire name.
func (k ViolationKind) String() string {
	return k.slug
}

// IsValid reports whether k is one of the declared kinds.
func (k ViolationKind) IsValid() bool {
	return k.slug != ""
}

func (k ViolationKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.slug)
}

func (k *ViolationKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseViolationKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ViolationRecord is the per-kind counter kept by a session ledger.
type ViolationRecord struct {
	Kind           ViolationKind `json:"type"`
	Count          int           `json:"count"`
	LastObservedAt time.Time     `json:"timestamp"`
}
