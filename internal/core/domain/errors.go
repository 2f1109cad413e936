package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the store and the ledger service
// either matches one of these with errors.Is or is treated as an internal
// fault by the transport layer.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("access forbidden")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("conflict")
)

var (
	ErrMaestroNotFound  = fmt.Errorf("maestro %w", ErrNotFound)
	ErrMovementNotFound = fmt.Errorf("movement %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)

	// ErrRequestInProgress is returned to a retry whose Idempotency-Key is
	// still held by a request that has not finished.
	ErrRequestInProgress = fmt.Errorf("%w: a request with this Idempotency-Key is still in progress", ErrConflict)
)

// ValidationError reports a single rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError for field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
