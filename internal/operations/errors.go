package operations

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType represents the type of operation error
type ErrorType string

const (
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypeFatal        ErrorType = "fatal"
)

// OperationError ties a failure to the pipeline step it happened in
type OperationError struct {
	Type    ErrorType
	Step    string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	msg := e.Message
	if e.Step != "" {
		msg = fmt.Sprintf("%s: %s", e.Step, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewExecutionError creates a new execution error
func NewExecutionError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeExecution,
		Step:    step,
		Message: "step failed",
		Cause:   cause,
	}
}

// NewCancellationError creates a new cancellation error
func NewCancellationError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeCancellation,
		Step:    step,
		Message: "run cancelled",
		Cause:   cause,
	}
}

// NewFatalError creates a new fatal error
func NewFatalError(message string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeFatal,
		Message: message,
		Cause:   cause,
	}
}

// WrapError attributes err to step. Operation errors pass through and
// context cancellation becomes a cancellation error.
func WrapError(err error, step string) error {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewCancellationError(step, err)
	}
	return NewExecutionError(step, err)
}

// GetErrorType returns the operation error type of err, if any
func GetErrorType(err error) ErrorType {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type
	}
	return ""
}

// IsCancellation reports whether err is a cancellation
func IsCancellation(err error) bool {
	return GetErrorType(err) == ErrorTypeCancellation
}
