package types

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so collaborators can translate it into a
// transport-level response.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindForbidden    Kind = "forbidden"
	KindUnauthorized Kind = "unauthorized"
	KindInvalidInput Kind = "invalid_input"
	KindStorage      Kind = "storage_failure"
)

// Kind sentinels. Every *Error unwraps to exactly one of these, so
// errors.Is(err, ErrNotFound) works through any amount of %w wrapping.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
	ErrStorage      = errors.New("storage failure")
)

// Causes that callers may want to tell apart within a kind.
var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidItemType = errors.New("invalid item type")
	ErrMissingChild    = errors.New("aggregate child row missing")
	ErrStorageConflict = errors.New("concurrent modification")
)

var kindSentinels = map[Kind]error{
	KindNotFound:     ErrNotFound,
	KindConflict:     ErrConflict,
	KindForbidden:    ErrForbidden,
	KindUnauthorized: ErrUnauthorized,
	KindInvalidInput: ErrInvalidInput,
	KindStorage:      ErrStorage,
}

// Error is the failure value returned by every engine operation.
type Error struct {
	Kind   Kind
	Reason string

	// Retryable is set for storage conflicts (lost updates, busy database).
	Retryable bool

	// Err is the underlying cause, if any. It is never shown in Reason.
	Err error
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return string(e.Kind)
	}
	return e.Reason
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := []error{kindSentinels[e.Kind]}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NotFound returns a KindNotFound error with a formatted reason.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Reason: fmt.Sprintf(format, args...)}
}

// Conflict returns a KindConflict error with a formatted reason.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Reason: fmt.Sprintf(format, args...)}
}

// Forbidden returns a KindForbidden error with a formatted reason.
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Reason: fmt.Sprintf(format, args...)}
}

// Unauthorized returns a KindUnauthorized error with a formatted reason.
func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Reason: fmt.Sprintf(format, args...)}
}

// Invalid returns a KindInvalidInput error with a formatted reason.
func Invalid(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Reason: fmt.Sprintf(format, args...)}
}

// Storage wraps a storage-layer cause. The cause stays reachable through
// errors.Is/As but is kept out of the reason string.
func Storage(cause error, reason string) *Error {
	return &Error{Kind: KindStorage, Reason: reason, Err: cause}
}

// Wrap attaches a cause to an error of the given kind.
func Wrap(kind Kind, cause error, reason string) *Error {
	return &Error{Kind: kind, Reason: reason, Err: cause}
}

// KindOf reports the kind of err. Errors that did not come from the engine
// are reported as KindStorage.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// IsRetryable reports whether err is a storage conflict the caller may retry.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
