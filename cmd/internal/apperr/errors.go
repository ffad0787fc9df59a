// Package apperr is the error taxonomy shared by the credential store, the session
// issuer, the message store and the access guard.
//
// Storage layers translate driver errors into these kinds before returning; callers
// only ever match on the kinds below.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports malformed caller input.
// Msg is safe to show to clients; it must never echo secrets.
type ValidationError struct {
	Op  string
	Msg string
}

func (e ValidationError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, ErrInvalidInput)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrInvalidInput, e.Msg)
}

func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// ConflictError reports a uniqueness violation for a logical field ("username", ...).
type ConflictError struct {
	Op    string
	Field string
}

func (e ConflictError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Op, ErrConflict)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrConflict, e.Field)
}

func (e ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError reports a missing row or a missing referenced resource (FK violation).
type NotFoundError struct {
	Op       string
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%s: %v", e.Op, ErrNotFound)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrNotFound, e.Resource)
}

func (e NotFoundError) Unwrap() error { return ErrNotFound }

// UnauthorizedError covers both "who are you" (missing/invalid token) and
// "you may not" (authenticated but not a party).
// Reason is for logs only and is never sent to clients.
type UnauthorizedError struct {
	Op     string
	Reason string
}

func (e UnauthorizedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %v", e.Op, ErrUnauthorized)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrUnauthorized, e.Reason)
}

func (e UnauthorizedError) Unwrap() error { return ErrUnauthorized }

// Invalid standardizes validation errors.
func Invalid(op, msg string) error {
	return ValidationError{Op: op, Msg: msg}
}

// IsInvalidInput reports whether err represents ErrInvalidInput.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsConflict reports whether err represents ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsNotFound reports whether err represents ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsUnauthorized reports whether err represents ErrUnauthorized.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// HTTPStatus maps an error to its response status and stable error code.
// Anything outside the taxonomy is an internal error.
func HTTPStatus(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case IsInvalidInput(err):
		return http.StatusBadRequest, "invalid_request"
	case IsConflict(err):
		return http.StatusConflict, "conflict"
	case IsUnauthorized(err):
		return http.StatusUnauthorized, "unauthorized"
	case IsNotFound(err):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

// PublicMessage returns the client-facing message for err.
// Validation messages are passed through; every other kind gets a fixed string so
// nothing about stored data leaks through the error path.
func PublicMessage(err error) string {
	var (
		ve ValidationError
		ce ConflictError
	)
	switch {
	case errors.As(err, &ve) && ve.Msg != "":
		return ve.Msg
	case IsInvalidInput(err):
		return "invalid request"
	case errors.As(err, &ce) && ce.Field != "":
		return ce.Field + " already exists"
	case IsConflict(err):
		return "already exists"
	case IsUnauthorized(err):
		return "invalid or missing credentials"
	case IsNotFound(err):
		return "not found"
	default:
		return "internal error"
	}
}
