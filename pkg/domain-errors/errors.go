// Package derrors defines coded domain errors shared across services.
//
// Services translate infrastructure facts (sentinel errors) and validation
// failures into coded errors; transport layers map codes onto HTTP statuses.
// Codes are deterministic outcomes, never retried internally.
package derrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and policy decisions.
type Code string

const (
	// CodeValidation marks configuration or payload shape failures.
	CodeValidation Code = "validation"
	// CodeInvalidInput marks trust-boundary parse failures (IDs, emails).
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks requests missing required fields.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks lookups of entities that do not exist.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized marks missing or invalid caller credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks callers lacking the required role.
	CodeForbidden Code = "forbidden"
	// CodeConflict marks store-reported write conflicts, surfaced not retried.
	CodeConflict Code = "conflict"
	// CodeUnavailable marks collaborator outages, propagated as-is.
	CodeUnavailable Code = "unavailable"
	// CodeInvariantViolation marks domain invariant breaches.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal marks unexpected failures; details stay out of responses.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	code  Code
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

func (e *Error) Unwrap() error { return e.cause }

// Is treats two coded errors with the same code and message as equivalent,
// so tests can assert with errors.Is against a freshly built error.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.code == te.code && e.msg == te.msg
}

// Code returns the classification of this error.
func (e *Error) Code() Code { return e.code }

// Message returns the human-readable description without the cause chain.
func (e *Error) Message() string { return e.msg }

// New builds a coded error with no underlying cause.
func New(code Code, msg string) error {
	return &Error{code: code, msg: msg}
}

// Wrap attaches a code and message to an underlying cause. The cause remains
// reachable through errors.Is / errors.As.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{code: code, msg: msg, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}

// Is forwards to errors.Is so callers need a single errors import.
func Is(err, target error) bool { return errors.Is(err, target) }
