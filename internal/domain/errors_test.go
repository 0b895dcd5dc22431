package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
	}{
		{Validation("bad input"), ErrValidation},
		{PermissionError{CalendarID: "c1", UserID: "u1", Need: LevelWrite}, ErrPermission},
		{NotFoundError{Kind: "event", ID: "e1"}, ErrNotFound},
		{TransientIOError{Op: "list events", Err: errors.New("locked")}, ErrTransientIO},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.sentinel) {
			t.Fatalf("%T does not unwrap to %v", tc.err, tc.sentinel)
		}
		// Each error matches exactly one sentinel.
		for _, other := range []error{ErrValidation, ErrPermission, ErrNotFound, ErrTransientIO} {
			if other != tc.sentinel && errors.Is(tc.err, other) {
				t.Fatalf("%T also matches %v", tc.err, other)
			}
		}
	}
}

func TestErrorMessagesCarryDetail(t *testing.T) {
	err := Validation("end before start")
	if !strings.Contains(err.Error(), "end before start") {
		t.Fatalf("message = %q", err.Error())
	}

	perm := PermissionError{CalendarID: "c1", UserID: "u1", Need: LevelWrite}
	for _, want := range []string{"c1", "u1", "write"} {
		if !strings.Contains(perm.Error(), want) {
			t.Fatalf("message %q misses %q", perm.Error(), want)
		}
	}

	wrapped := fmt.Errorf("handler: %w", NotFoundError{Kind: "event", ID: "e1"})
	if !errors.Is(wrapped, ErrNotFound) {
		t.Fatal("wrapping must preserve the sentinel")
	}
}
