package app

import (
	"errors"
	"fmt"

	"chattala/pkg/store"
)

// The mutation gateway reports failures through this typed taxonomy.
// Every error leaves storage unchanged from before the call.

// NotFoundError means the referenced entity does not exist.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

// UnauthorizedError means the authorization policy denied the action.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	return "unauthorized: " + e.Reason
}

// ValidationError means the payload failed a field constraint.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ConflictError means a state-dependent rule was violated.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Reason
}

// StorageError wraps an underlying store failure. Callers may retry
// with backoff; the gateway never retries internally.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

var (
	// ErrInvalidCredentials is safe to show to end users and does not
	// enable account enumeration.
	ErrInvalidCredentials = errors.New("incorrect email address or password")

	ErrEmailAndPasswordRequired = errors.New("email and password required")
)

// storeErr maps store sentinels onto the gateway taxonomy.
func storeErr(op, entity string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &NotFoundError{Entity: entity}
	case errors.Is(err, store.ErrHasDependents):
		return &ConflictError{Reason: "category has dependents"}
	case errors.Is(err, store.ErrEmailTaken):
		return &ConflictError{Reason: "email already registered"}
	case errors.Is(err, store.ErrSlugTaken):
		return &ConflictError{Reason: "slug already in use"}
	default:
		var unauthorized *UnauthorizedError
		var validation *ValidationError
		var conflict *ConflictError
		var notFound *NotFoundError
		if errors.As(err, &unauthorized) || errors.As(err, &validation) || errors.As(err, &conflict) || errors.As(err, &notFound) {
			return err
		}
		return &StorageError{Op: op, Err: err}
	}
}
