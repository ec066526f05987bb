package apperr

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when the caller does not own the resource it tries to mutate
var ErrForbidden = errors.New("you do not have permission to modify this resource")

// NotFoundError is returned when a referenced entity does not exist
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ForbiddenError carries the resource the caller tried to mutate
type ForbiddenError struct {
	Resource string
	ID       string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: cannot modify %s %s", e.Resource, e.ID)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(resource, id string) error {
	return &ForbiddenError{Resource: resource, ID: id}
}

// ConflictError is returned when a uniqueness constraint rejects a write.
// Callers may retry the whole operation.
type ConflictError struct {
	Resource string
	Message  string
}

func (e *ConflictError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s conflict", e.Resource)
	}
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Message)
}

// NewConflictError creates a new conflict error
func NewConflictError(resource, message string) error {
	return &ConflictError{Resource: resource, Message: message}
}

// ValidationError represents a validation error on a single input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// InternalError wraps an unexpected failure of a composite operation.
// The cause stays reachable through errors.Is / errors.As.
type InternalError struct {
	Err error
	Op  string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsForbidden checks if error is an ownership violation
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsConflict checks if error is a uniqueness conflict
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsValidationError checks if error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInternal checks if error was wrapped at a service boundary
func IsInternal(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}

// AtBoundary applies the service wrapping policy: not-found, forbidden, conflict and
// validation errors pass through unchanged, anything else becomes an InternalError.
func AtBoundary(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) || IsForbidden(err) || IsConflict(err) || IsValidationError(err) || IsInternal(err) {
		return err
	}
	return &InternalError{Op: op, Err: err}
}
