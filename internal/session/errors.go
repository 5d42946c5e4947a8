package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when an operation is not valid for the current phase.
	// The state is left unchanged.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrServiceUnavailable is returned by a MetricService that cannot produce samples
	ErrServiceUnavailable = errors.New("metric service unavailable")

	// ErrClosed is returned by Controller operations after Close
	ErrClosed = errors.New("session controller closed")
)

// TransitionError describes a rejected operation
type TransitionError struct {
	Op          string
	Phase       Phase
	Calibrating bool
}

func (e *TransitionError) Error() string {
	if e.Calibrating {
		return fmt.Sprintf("%v: %s while calibrating in %s", ErrInvalidTransition, e.Op, e.Phase)
	}
	return fmt.Sprintf("%v: %s from %s", ErrInvalidTransition, e.Op, e.Phase)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
