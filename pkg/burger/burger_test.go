package burger

import (
	"errors"
	"testing"
)

func TestCheckID(t *testing.T) {
	if err := CheckID(2, Burger{ID: 2, Name: "Classic"}); err != nil {
		t.Fatalf("matching ids: %v", err)
	}
	err := CheckID(2, Burger{ID: 3, Name: "Classic"})
	if !errors.Is(err, ErrIDMismatch) {
		t.Fatalf("expected ErrIDMismatch, got %v", err)
	}
	if err := CheckID(7, Burger{Name: "no id"}); !errors.Is(err, ErrIDMismatch) {
		t.Fatalf("missing body id: expected ErrIDMismatch, got %v", err)
	}
}
