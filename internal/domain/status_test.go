package domain

import (
	"errors"
	"testing"
)

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusActive, StatusMatured, true},
		{StatusActive, StatusCancelled, true},
		{StatusActive, StatusActive, false},
		{StatusMatured, StatusCancelled, false},
		{StatusMatured, StatusActive, false},
		{StatusCancelled, StatusActive, false},
		{StatusCancelled, StatusMatured, false},
		{StatusCancelled, StatusCancelled, false},
		{Status("pending"), StatusActive, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
				t.Errorf("expected CanTransitionTo=%v, got %v", tt.allowed, got)
			}

			err := tt.from.ValidateTransition(tt.to)
			if tt.allowed && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if !tt.allowed {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("expected ErrInvalidTransition, got %v", err)
				}
				if !errors.Is(err, ErrState) {
					t.Errorf("expected error to be a state error, got %v", err)
				}
			}
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	if StatusActive.IsTerminal() {
		t.Error("active must not be terminal")
	}
	if !StatusMatured.IsTerminal() {
		t.Error("matured must be terminal")
	}
	if !StatusCancelled.IsTerminal() {
		t.Error("cancelled must be terminal")
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"active", "matured", "cancelled"} {
		st, err := ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) failed: %v", s, err)
		}
		if string(st) != s {
			t.Errorf("expected %q, got %q", s, st)
		}
	}

	for _, s := range []string{"", "pending", "ACTIVE", "running"} {
		if _, err := ParseStatus(s); !errors.Is(err, ErrValidation) {
			t.Errorf("ParseStatus(%q): expected validation error, got %v", s, err)
		}
	}
}
