// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Common application errors.
var (
	// Store errors. Every failed store call classifies as exactly one of these.
	ErrNotFound  = errors.New("not found")
	ErrRejected  = errors.New("rejected")
	ErrTransport = errors.New("transport failure")

	// Database errors.
	ErrDuplicateEntry    = errors.New("duplicate entry")
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// StoreError is a failure reported by the authoritative store.
type StoreError struct {
	Kind   error
	Err    error
	Reason string
	Status int
}

func (e *StoreError) Error() string {
	switch {
	case e.Reason != "" && e.Status != 0:
		return fmt.Sprintf("%v (%d): %s", e.Kind, e.Status, e.Reason)
	case e.Reason != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

// Is reports whether target is the kind of this error.
func (e *StoreError) Is(target error) bool {
	return target == e.Kind
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewNotFound creates a store error for an absent transaction or category.
func NewNotFound(reason string) error {
	return &StoreError{Kind: ErrNotFound, Reason: reason, Status: http.StatusNotFound}
}

// NewRejected creates a store error for a validation failure.
func NewRejected(reason string) error {
	return &StoreError{Kind: ErrRejected, Reason: reason, Status: http.StatusUnprocessableEntity}
}

// NewTransport wraps a network or infrastructure failure.
func NewTransport(err error) error {
	return &StoreError{Kind: ErrTransport, Err: err}
}

// KindForStatus maps an HTTP status to a store error kind.
// 404 is NotFound, any other 4xx is Rejected, everything else is Transport.
func KindForStatus(status int) error {
	switch {
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 400 && status < 500:
		return ErrRejected
	default:
		return ErrTransport
	}
}

// KindOf returns the store error kind of err. Errors that carry no kind are
// treated as transport failures.
func KindOf(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrRejected):
		return ErrRejected
	default:
		return ErrTransport
	}
}

// StatusFor maps an error to the HTTP status the store answers with.
func StatusFor(err error) int {
	var storeErr *StoreError
	if errors.As(err, &storeErr) && storeErr.Status != 0 {
		return storeErr.Status
	}
	switch KindOf(err) {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrRejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
