package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling in the
// handler layer without per-error switch statements.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates an item (or referenced parent) was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input (bad shape, length, enum value,
	// or a no-op update)
	ValidationError struct {
		Message string
	}

	// InvalidVariantError indicates an operation targeted an item of the
	// wrong variant (e.g. renaming a note, parenting under a non-folder)
	InvalidVariantError struct {
		Message string
	}

	// CircularReferenceError indicates a move would make an item its own
	// ancestor, or the ancestor walk exceeded its depth bound
	CircularReferenceError struct {
		Message string
	}

	// GenerationError indicates the text-generation collaborator call or the
	// output conversion failed; the source note has been left in a retryable
	// failed state
	GenerationError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string          { return e.Message }
func (e *ValidationError) Error() string        { return e.Message }
func (e *InvalidVariantError) Error() string    { return e.Message }
func (e *CircularReferenceError) Error() string { return e.Message }
func (e *GenerationError) Error() string        { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int          { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int        { return http.StatusBadRequest }
func (e *InvalidVariantError) StatusCode() int    { return http.StatusBadRequest }
func (e *CircularReferenceError) StatusCode() int { return http.StatusConflict }
func (e *GenerationError) StatusCode() int        { return http.StatusInternalServerError }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidVariant    = errors.New("invalid variant")
	ErrCircularReference = errors.New("circular reference")
	ErrConflict          = errors.New("conflict")
	ErrGeneration        = errors.New("generation failed")
)

// Is implementations so both errors.As (for status codes) and errors.Is
// (for classification) work on the struct forms
func (e *NotFoundError) Is(target error) bool          { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool        { return target == ErrValidation }
func (e *InvalidVariantError) Is(target error) bool    { return target == ErrInvalidVariant }
func (e *CircularReferenceError) Is(target error) bool { return target == ErrCircularReference }
func (e *GenerationError) Is(target error) bool        { return target == ErrGeneration }

// ConflictError represents a state conflict with details about the item,
// e.g. triggering processing on a note that already has a run in flight
type ConflictError struct {
	Message    string // Human-readable error message
	ResourceID string // ID of the conflicting item
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
