// Package apperr defines the error kinds shared by storage, auth and the HTTP layer.
//
// Kinds are sentinels so callers can branch with errors.Is; Error carries the failing
// operation and an optional cause for logs.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel error kinds.
var (
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not_found")
	ErrValidation     = errors.New("validation")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInfrastructure = errors.New("infrastructure")
)

// Error is a typed operation error.
// Msg is safe to show to a client; Err is for logs only.
type Error struct {
	Op   string
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Op + ": " + e.Kind.Error()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Conflict reports a uniqueness conflict on field.
func Conflict(op, field string) error {
	return &Error{Op: op, Kind: ErrConflict, Msg: field}
}

// NotFound reports a missing resource.
func NotFound(op, resource string) error {
	return &Error{Op: op, Kind: ErrNotFound, Msg: resource}
}

// Validation reports malformed input. msg is returned to the client.
func Validation(op, msg string) error {
	return &Error{Op: op, Kind: ErrValidation, Msg: msg}
}

// Validationf is Validation with formatting.
func Validationf(op, format string, args ...any) error {
	return Validation(op, fmt.Sprintf(format, args...))
}

// Infrastructure wraps a storage or runtime failure.
func Infrastructure(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: ErrInfrastructure, Err: err}
}

// Message returns the client-safe message of err, or "" when there is none.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Msg
	}
	return ""
}

// IsConflict reports whether err is a conflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsNotFound reports whether err is a not-found.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
