package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch is returned when a value written to a port is not of the port's declared type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrOutOfRange is returned by indexed port reads with an invalid index.
	ErrOutOfRange = errors.New("index out of range")

	// ErrInvalidChangeRequest is the root of every rejected structural change.
	ErrInvalidChangeRequest = errors.New("invalid change request")

	// ErrInvalidTimeAdvance is returned when an atomic model reports a negative or NaN time advance.
	ErrInvalidTimeAdvance = errors.New("invalid time advance")

	// ErrModelNotComparable is returned for model values that cannot identify a processor,
	// such as struct values holding a func, slice or map. Use pointer models.
	ErrModelNotComparable = errors.New("model is not comparable")
)

// ChangeRequestError describes a change request that could not be resolved or applied.
// It unwraps to ErrInvalidChangeRequest.
type ChangeRequestError struct {
	Request ChangeRequest
	// Index is the position of Request in the slice handed to ApplyChanges, -1 when unknown.
	Index  int
	Reason string
}

func (e *ChangeRequestError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrInvalidChangeRequest, e.Reason, e.Request)
}

func (e *ChangeRequestError) Unwrap() error {
	return ErrInvalidChangeRequest
}

func rejectChange(req ChangeRequest, format string, args ...any) *ChangeRequestError {
	return rejectChangeAt(-1, req, format, args...)
}

func rejectChangeAt(index int, req ChangeRequest, format string, args ...any) *ChangeRequestError {
	return &ChangeRequestError{Request: req, Index: index, Reason: fmt.Sprintf(format, args...)}
}

// Phase names the part of an event step in which a model failed.
type Phase string

const (
	PhaseInit        Phase = "init"
	PhasePreEvent    Phase = "pre-event"
	PhaseOutput      Phase = "output"
	PhaseInternal    Phase = "internal"
	PhaseExternal    Phase = "external"
	PhaseConfluent   Phase = "confluent"
	PhasePostEvent   Phase = "post-event"
	PhaseTimeAdvance Phase = "time-advance"
)

// TransitionError is a fatal failure raised by model code during an event step.
// The kernel wraps the model's error once, at the processor that invoked it, and
// returns it unchanged through every ancestor to the driving loop.
type TransitionError struct {
	Model string
	Phase Phase
	Time  Time
	Err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("model %s failed in %s at t=%s: %v", e.Model, e.Phase, e.Time, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}
