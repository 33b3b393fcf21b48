// Package types defines error types
package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrInvalidPool indicates an operation on an uninitialized or destroyed pool
	ErrInvalidPool = errors.New("worker pool is invalid")

	// ErrNilAction indicates a submission without a callable
	ErrNilAction = errors.New("task action is nil")

	// ErrEmpty indicates a dequeue attempt on an empty queue
	ErrEmpty = errors.New("task queue is empty")

	// ErrInvalidQueue indicates a nil or corrupted task queue
	ErrInvalidQueue = errors.New("task queue is invalid")

	// ErrNotRunning indicates a pause requested while the pool is not running.
	// It matches ErrInvalidPool under errors.Is.
	ErrNotRunning = fmt.Errorf("%w: not running", ErrInvalidPool)
)

// PoolError represents a failed pool operation
type PoolError struct {
	// Operation is the name of the operation that failed
	Operation string

	// Pool is the name of the pool
	Pool string

	// Status is the pool status observed when the operation failed
	Status PoolStatus

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *PoolError) Error() string {
	if e.Pool == "" {
		return fmt.Sprintf("worker pool %s (%s): %v", e.Operation, e.Status, e.Cause)
	}
	return fmt.Sprintf("worker pool %q %s (%s): %v", e.Pool, e.Operation, e.Status, e.Cause)
}

// Unwrap returns the underlying error
func (e *PoolError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is a specific error
func (e *PoolError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// NewPoolError creates a new pool error
func NewPoolError(operation, pool string, status PoolStatus, cause error) *PoolError {
	return &PoolError{
		Operation: operation,
		Pool:      pool,
		Status:    status,
		Cause:     cause,
	}
}

// TaskPanicError carries a panic recovered from a task
type TaskPanicError struct {
	// WorkerID is the worker that ran the task
	WorkerID int

	// Value is the value passed to panic
	Value interface{}

	// Stack is the goroutine stack at the time of the panic
	Stack []byte
}

// Error implements the error interface
func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("task panicked on worker %d: %v", e.WorkerID, e.Value)
}

// Unwrap returns the panic value when it is an error
func (e *TaskPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
