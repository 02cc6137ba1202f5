package domain

import "errors"

// Sentinel errors shared by services and repositories.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
)

// RuleError reports which business rule rejected a request. It unwraps to
// one of the sentinel errors so callers can keep using errors.Is.
type RuleError struct {
	Field  string
	Reason string
	Err    error
}

func (e *RuleError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Reason
	}
	return e.Reason
}

func (e *RuleError) Unwrap() error { return e.Err }

// Invalid returns a RuleError wrapping ErrInvalidInput.
func Invalid(field, reason string) error {
	return &RuleError{Field: field, Reason: reason, Err: ErrInvalidInput}
}

// Conflict returns a RuleError wrapping ErrConflict.
func Conflict(reason string) error {
	return &RuleError{Reason: reason, Err: ErrConflict}
}

// Forbidden returns a RuleError wrapping ErrForbidden.
func Forbidden(reason string) error {
	return &RuleError{Reason: reason, Err: ErrForbidden}
}
