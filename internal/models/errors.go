package models

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrPersistence  = errors.New("persistence failure")
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key violation")
)

// ValidationError describes malformed input. It is fatal for the call that
// returned it and must not be retried without correcting the input.
type ValidationError struct {
	Code    string
	Message string
}

// NewValidationError creates a validation error with a machine readable code.
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports ErrInvalidInput so callers can use errors.Is.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// PersistenceError wraps a storage failure. The in-memory value that failed to
// persist remains valid; callers may retry the write or continue without it.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError wraps err for the given operation.
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// Error implements error.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is reports ErrPersistence so callers can use errors.Is.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
