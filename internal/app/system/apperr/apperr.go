// Package apperr defines the error kinds surfaced by the process engine and
// the project lifecycle. Callers match kinds with errors.Is and read the
// operator-facing message from Error().
package apperr

import (
	"errors"
	"fmt"
)

// Kind sentinels.
var (
	ErrValidation        = errors.New("validation error")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrStorage           = errors.New("storage error")
)

// Error carries a kind, a message, and an optional underlying cause.
type Error struct {
	Kind  error
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Msg + ": " + e.Cause.Error()
	}
	return e.Msg
}

// Is matches the kind sentinel.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Validation reports missing or malformed input. Nothing was written.
func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// InvalidTransition reports an action that is illegal for the current status.
func InvalidTransition(format string, args ...any) error {
	return &Error{Kind: ErrInvalidTransition, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports an unknown project, instance, stage, node or report id.
func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports a stale version on a conditional update.
func Conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

// Storage wraps a persistence failure. A nil cause returns nil.
func Storage(op string, cause error) error {
	if cause == nil {
		return nil
	}
	var ae *Error
	if errors.As(cause, &ae) {
		return cause
	}
	return &Error{Kind: ErrStorage, Msg: op, Cause: cause}
}

// Op returns the message of err without its cause: the operation name for a
// storage failure. It is "" when err is not an *Error.
func Op(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Msg
	}
	return ""
}

// KindOf returns the kind sentinel of err, or nil when err is not an *Error.
func KindOf(err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return nil
}
