package session

import (
	"errors"
	"fmt"
)

// Common session service errors.
var (
	// ErrEmptyQueue is returned by Start when no cards are due and no new
	// cards remain. It signals nothing-to-study, not a system fault.
	ErrEmptyQueue = errors.New("no cards to study")

	// ErrInvalidState is returned when an operation is invoked out of
	// sequence, e.g. Rate before Reveal. It indicates a caller bug, never
	// bad data; no session or store state changes.
	ErrInvalidState = errors.New("invalid session state")
)

// InvalidStateError reports which operation was attempted and the state the
// session was actually in. It wraps ErrInvalidState so callers can check
// with errors.Is.
type InvalidStateError struct {
	Op    string // The operation that was attempted (e.g. "rate")
	State State  // The state the session was in
}

// Error implements the error interface for InvalidStateError.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not valid in state %q", e.Op, e.State)
}

// Unwrap returns ErrInvalidState to support errors.Is.
func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// SessionError is a custom error type for session-specific failures with
// additional context, typically wrapping a store error.
type SessionError struct {
	Op      string // The operation that failed (e.g. "rate", "finalize")
	Message string // Error message
	Err     error  // Original error
}

// Error implements the error interface for SessionError.
func (e *SessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session %s failed: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("session %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// newSessionError creates a new SessionError with the given operation,
// message, and wrapped error.
func newSessionError(op, message string, err error) *SessionError {
	return &SessionError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}
