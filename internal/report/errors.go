package report

import (
	"errors"
	"fmt"
)

// Sentinel kinds surfaced by the lifecycle and persistence layers. The
// API boundary maps each to a stable response code and never recodes
// one into a generic error.
var (
	// ErrNotFound means the referenced report id does not exist.
	ErrNotFound = errors.New("report not found")
	// ErrConflict means a concurrent writer changed the report between
	// the snapshot read and the guarded write. Callers re-read and retry.
	ErrConflict = errors.New("report modified concurrently")
	// ErrInvalidTransition is the kind matched by errors.Is for any
	// InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrValidation is the kind matched by errors.Is for any
	// ValidationError.
	ErrValidation = errors.New("validation failed")
)

// InvalidTransitionError names the current and attempted status of a
// rejected transition.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	if e.From.Terminal() && e.From == e.To {
		return fmt.Sprintf("report in terminal status %q cannot be modified", e.From)
	}
	return fmt.Sprintf("cannot transition report from %q to %q", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ValidationError names the payload field that failed a structural
// constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
