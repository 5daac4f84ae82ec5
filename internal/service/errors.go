// Package service provides the business logic of the support dashboard.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a request that is missing or has invalid fields.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an identifier that could not be resolved.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a duplicate unique key.
	ErrConflict = errors.New("already exists")
	// ErrUnavailable marks a backend failure that prevented the operation.
	ErrUnavailable = errors.New("backend unavailable")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Outcome distinguishes why a store lookup did or did not produce a value.
type Outcome int

const (
	// Found means the operation completed and produced a value.
	Found Outcome = iota
	// NotFound means the backend answered and the record does not exist.
	NotFound
	// Unavailable means the backend failed. The value is empty but that
	// says nothing about whether the record exists.
	Unavailable
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Unavailable:
		return "unavailable"
	}
	return "unknown"
}

// Err converts the outcome to one of the package sentinel errors.
func (o Outcome) Err() error {
	switch o {
	case NotFound:
		return ErrNotFound
	case Unavailable:
		return ErrUnavailable
	}
	return nil
}
