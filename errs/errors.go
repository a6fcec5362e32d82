// Package errs defines the error taxonomy shared by every gofia package
// (spec.md §7). Every exported constructor returns an *errs.Error so callers
// can recover the Kind with errors.As without depending on string matching.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind tags an Error with one of the taxonomy members from spec.md §7.
type Kind string

const (
	InvalidConfig       Kind = "InvalidConfig"
	InvalidIdentifier   Kind = "InvalidIdentifier"
	InvalidPath         Kind = "InvalidPath"
	InvalidDomain       Kind = "InvalidDomain"
	NoEVALID            Kind = "NoEVALID"
	MissingTable        Kind = "MissingTable"
	MissingColumn       Kind = "MissingColumn"
	QueryError          Kind = "QueryError"
	SpatialExtensionErr Kind = "SpatialExtensionError"
	NoSpatialFilter     Kind = "NoSpatialFilter"
	NoData              Kind = "NoData"
	Cancelled           Kind = "Cancelled"
	ConnectionClosed    Kind = "ConnectionClosed"
)

// Error is the single error type returned across package boundaries. It
// carries a Kind (for programmatic handling), a human-readable Message, and
// an optional wrapped Cause (for "added context" per the propagation
// policy). No stack traces are exposed to library output; wrap with
// pkg/errors internally for diagnostics but do not print Err.Cause's stack.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given kind, wrapping cause for context.
// The cause is preserved via Unwrap so errors.Is/As still see it.
func Wrap(cause error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithStage annotates an existing Error (or wraps a plain error as
// QueryError) with the pipeline stage name it failed in, following the
// propagation policy: backend errors are surfaced verbatim with added
// stage/table/column context.
func WithStage(err error, stage string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return &Error{Kind: e.Kind, Message: fmt.Sprintf("[%s] %s", stage, e.Message), Cause: e.Cause}
	}
	return &Error{Kind: QueryError, Message: fmt.Sprintf("[%s] %v", stage, err), Cause: err}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
