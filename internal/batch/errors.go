package batch

import (
	"errors"
	"fmt"
)

// Kind classifies a batch failure.
type Kind int

const (
	// KindUnavailable means the provider cannot run at all.
	KindUnavailable Kind = iota + 1

	// KindInvalid means the catalog failed validation.
	KindInvalid

	// KindSynthesis means a synthesis request failed.
	KindSynthesis

	// KindWrite means an audio file could not be written.
	KindWrite

	// KindCommit means staged files could not be moved into place.
	KindCommit

	// KindCanceled means the run was interrupted.
	KindCanceled
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindInvalid:
		return "invalid catalog"
	case KindSynthesis:
		return "synthesis"
	case KindWrite:
		return "write"
	case KindCommit:
		return "commit"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Error is a classified batch failure, optionally tied to one exercise.
type Error struct {
	Kind     Kind
	Filename string // empty for batch-wide failures
	Cause    error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("%s: %s: %v", e.Filename, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Fatal reports whether the failure prevented the batch from starting.
func (e *Error) Fatal() bool {
	return e.Kind == KindUnavailable || e.Kind == KindInvalid
}

// IsUnavailable reports whether err means the provider cannot run at all.
func IsUnavailable(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == KindUnavailable
}

// IsFatal reports whether err prevented the batch from starting.
func IsFatal(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Fatal()
}
