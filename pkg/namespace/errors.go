package namespace

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotFound is returned by stores for an unknown node ID.
	ErrNodeNotFound = errors.New("namespace node not found")

	// ErrNodeNotEmpty is returned by DeleteNode when the node still has
	// children or artifacts.
	ErrNodeNotEmpty = errors.New("namespace node not empty")
)

// StoreOperationError reports a failed store call made while resolving or
// sweeping the namespace.
type StoreOperationError struct {
	Operation string // Store operation ("list_children", "create_child", ...)
	NodeID    string // Node the operation targeted
	Cause     error  // Underlying store error
}

// Error implements the error interface.
func (e *StoreOperationError) Error() string {
	return fmt.Sprintf("store operation %s failed [node=%s]: %v", e.Operation, nodeLabel(e.NodeID), e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StoreOperationError) Unwrap() error {
	return e.Cause
}

// NewStoreOperationError creates a new StoreOperationError.
func NewStoreOperationError(operation, nodeID string, cause error) *StoreOperationError {
	return &StoreOperationError{
		Operation: operation,
		NodeID:    nodeID,
		Cause:     cause,
	}
}

// PruneDeleteError reports a node that was found empty but could not be
// deleted. It is never fatal to a sweep.
type PruneDeleteError struct {
	NodeID      string
	DisplayName string
	Cause       error
}

// Error implements the error interface.
func (e *PruneDeleteError) Error() string {
	return fmt.Sprintf("failed to prune empty node %q [node=%s]: %v", e.DisplayName, nodeLabel(e.NodeID), e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *PruneDeleteError) Unwrap() error {
	return e.Cause
}

// NewPruneDeleteError creates a new PruneDeleteError.
func NewPruneDeleteError(node Node, cause error) *PruneDeleteError {
	return &PruneDeleteError{
		NodeID:      node.ID,
		DisplayName: node.DisplayName,
		Cause:       cause,
	}
}

func nodeLabel(id string) string {
	if id == RootID {
		return "<root>"
	}
	return id
}
