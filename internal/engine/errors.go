package engine

import (
	"errors"
	"fmt"
)

// ValidationError rejects malformed input before it reaches the core.
// Inputs are never silently clamped.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ErrInsufficientData marks a read-only computation that cannot run for
// lack of profile data. Callers resolve it to an explicit
// insufficient_data marker, not a failure response.
var ErrInsufficientData = errors.New("insufficient data")

// StaleStateError rejects an action against a quest or dungeon whose
// lifecycle no longer permits it (already claimed, expired, wrong state).
// No XP is awarded and no state is mutated.
type StaleStateError struct {
	Entity string
	ID     string
	State  string
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("%s %s is %s", e.Entity, e.ID, e.State)
}
