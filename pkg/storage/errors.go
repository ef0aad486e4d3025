package storage

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when an operation is attempted on a closed backend.
var ErrClosed = errors.New("storage backend is closed")

// NotFoundError indicates a requested resource does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewNotFoundError creates a NotFoundError for the given resource.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// AlreadyExistsError indicates a resource with the same ID already exists.
type AlreadyExistsError struct {
	Resource string
	ID       string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Resource, e.ID)
}

// NewAlreadyExistsError creates an AlreadyExistsError for the given resource.
func NewAlreadyExistsError(resource, id string) *AlreadyExistsError {
	return &AlreadyExistsError{Resource: resource, ID: id}
}

// IsAlreadyExists reports whether err is an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var aee *AlreadyExistsError
	return errors.As(err, &aee)
}

// InvalidInputError indicates a caller supplied an invalid argument.
type InvalidInputError struct {
	Message string
	Field   string
}

func (e *InvalidInputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid input for %s: %s", e.Field, e.Message)
	}
	return "invalid input: " + e.Message
}

// NewInvalidInputError creates an InvalidInputError with a message and
// the offending field name.
func NewInvalidInputError(message, field string) *InvalidInputError {
	return &InvalidInputError{Message: message, Field: field}
}

// IsInvalidInput reports whether err is an InvalidInputError.
func IsInvalidInput(err error) bool {
	var iie *InvalidInputError
	return errors.As(err, &iie)
}
