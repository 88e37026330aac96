package operations

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of job error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeInvalidState ErrorType = "invalid_state"
	ErrorTypeQueueFull    ErrorType = "queue_full"
	ErrorTypeExecution    ErrorType = "execution"
)

// OperationError represents a job-specific error
type OperationError struct {
	Type    ErrorType `json:"type"`
	JobID   string    `json:"job_id,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	if e.JobID != "" {
		return fmt.Sprintf("[%s] job %s: %s", e.Type, e.JobID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches operation errors by type.
func (e *OperationError) Is(target error) bool {
	t, ok := target.(*OperationError)
	if !ok || e == nil {
		return false
	}
	return e.Type == t.Type
}

// Sentinels for errors.Is.
var (
	ErrJobNotFound  = &OperationError{Type: ErrorTypeNotFound}
	ErrInvalidState = &OperationError{Type: ErrorTypeInvalidState}
	ErrQueueFull    = &OperationError{Type: ErrorTypeQueueFull}
)

// NewNotFoundError creates a new not found error
func NewNotFoundError(jobID string) *OperationError {
	return &OperationError{Type: ErrorTypeNotFound, JobID: jobID, Message: "job not found"}
}

// NewInvalidStateError creates a new invalid state error
func NewInvalidStateError(jobID string, status JobStatus, action string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeInvalidState,
		JobID:   jobID,
		Message: fmt.Sprintf("cannot %s a %s job", action, status),
	}
}

// NewQueueFullError creates a new queue full error
func NewQueueFullError(jobID string) *OperationError {
	return &OperationError{Type: ErrorTypeQueueFull, JobID: jobID, Message: "job queue is full"}
}

// NewExecutionError creates a new execution error
func NewExecutionError(jobID string, cause error) *OperationError {
	return &OperationError{Type: ErrorTypeExecution, JobID: jobID, Message: "report generation failed", Cause: cause}
}

// IsNotFound reports whether err is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrJobNotFound)
}

// IsInvalidState reports whether err is an invalid state error
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}
