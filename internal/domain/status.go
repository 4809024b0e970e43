package domain

import "fmt"

// Status is the lifecycle state of an investment.
type Status string

const (
	// StatusActive is the initial state; the principal is held.
	StatusActive Status = "active"

	// StatusMatured is terminal; the tenure has elapsed.
	StatusMatured Status = "matured"

	// StatusCancelled is terminal; the principal was credited back.
	StatusCancelled Status = "cancelled"
)

// transitions is the only place allowed edges are listed.
var transitions = map[Status][]Status{
	StatusActive: {StatusMatured, StatusCancelled},
}

// ParseStatus converts a stored or user-supplied value into a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusMatured, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether s → to is an allowed edge.
func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition if s → to is not an allowed edge.
func (s Status) ValidateTransition(to Status) error {
	if !s.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, to)
	}
	return nil
}
