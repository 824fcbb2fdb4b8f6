package domainerrors

import "errors"

// Code represents a failure category independent of the transport or store
// that produced it. Codes describe what went wrong in business terms.
type Code string

const (
	// CodeNotFound marks an external record that should exist but does not
	// (citizen, exemption status, requirement, joblog, caseworker).
	CodeNotFound Code = "not_found"
	// CodeTransient marks an infrastructure failure that survived its retry
	// budget (or was never eligible for retry).
	CodeTransient Code = "transient"
	// CodeInvalidInput marks malformed data received from an external system.
	CodeInvalidInput Code = "invalid_input"
	// CodeInternal marks everything else.
	CodeInternal Code = "internal_error"
)

// Error wraps domain or infrastructure failures with a stable code. The
// processing loop treats any *Error as a soft, per-item failure: the work
// item is marked failed for manual review and the run continues.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsSoft reports whether the error is a coded domain error, i.e. a failure
// the processing loop should absorb for the current work item only.
func IsSoft(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
