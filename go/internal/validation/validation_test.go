package validation

import (
	"errors"
	"strings"
	"testing"
)

var errBad = errors.New("bad input")

type sample struct {
	Name  string `json:"name" validate:"notblank"`
	Level string `json:"level" validate:"oneof=low high"`
	Count int    `json:"count" validate:"gte=0"`
}

func TestStruct(t *testing.T) {
	if err := Struct(errBad, sample{Name: "x", Level: "low"}); err != nil {
		t.Fatalf("Struct(valid) error = %v", err)
	}

	err := Struct(errBad, sample{Name: "   ", Level: "mid", Count: -1})
	if !errors.Is(err, errBad) {
		t.Fatalf("Struct() error = %v, want wrapped sentinel", err)
	}
	for _, field := range []string{"name cannot be blank", "level", "count"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention %q", err, field)
		}
	}
}
