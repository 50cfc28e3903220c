package storage

import "fmt"

// BackendError represents an error from a storage backend.
type BackendError struct {
	Backend   string // Storage backend type ("memory", "sqlite", "redis")
	Operation string // Operation that failed ("list_children", "open", ...)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *BackendError) Unwrap() error {
	return e.Cause
}

// NewBackendError creates a new BackendError.
func NewBackendError(backend, operation string, cause error) *BackendError {
	return &BackendError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}
