// Package curated defines rv32spin's first-party error values: an error
// code plus an optionally wrapped cause, in the style of the teacher's
// curated.Errorf / errors.New(errors.Code, cause) call sites. Causes are
// wrapped with github.com/pkg/errors rather than fmt.Errorf so that a
// wrapped allocator or bus error keeps a stack trace from the point it was
// first raised, not just from its outermost wrap.
package curated

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code identifies a family of curated errors.
type Code string

// Well-known error codes used across rv32spin's packages.
const (
	InvalidID         Code = "InvalidId"
	InvalidSnapshotID Code = "InvalidSnapshotId"
	MisalignedAccess  Code = "MisalignedAccess"
	AccessFault       Code = "AccessFault"
	EffectfulReadOnly Code = "EffectfulReadOnly"
	UnsupportedCSR    Code = "UnsupportedCsr"
	PrivilegedCSR     Code = "Privileged"
	ReadOnlyCSR       Code = "WriteToReadOnly"
	GUIEventError     Code = "GUIEventError"
	HostIOError       Code = "HostIOError"
)

// Error is a curated error: a code plus a human-readable message, optionally
// wrapping an underlying cause.
type Error struct {
	code    Code
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Code returns the error's code.
func (e *Error) Code() Code { return e.code }

// New creates a curated error with the given code wrapping cause. cause may
// be nil.
func New(code Code, cause error) *Error {
	var msg string
	if cause != nil {
		msg = cause.Error()
		cause = errors.WithStack(cause)
	}
	return &Error{code: code, message: msg, cause: cause}
}

// Errorf creates a curated error with the given code and a formatted
// message, with no wrapped cause.
func Errorf(code Code, format string, args ...interface{}) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Is reports whether err is a curated error with the given code.
func Is(err error, code Code) bool {
	var ce *Error
	if !errors.As(err, &ce) {
		return false
	}
	return ce.code == code
}
