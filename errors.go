// Package guml structured error types for better error handling
package guml

import (
	"fmt"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Memory errors
	ErrTypeMemory ErrorType = iota
	// Invalid argument errors
	ErrTypeInvalidArg
	// Execution errors
	ErrTypeExecution
	// Numerical errors
	ErrTypeNumerical
	// Device errors
	ErrTypeDevice
	// Estimator used before Fit
	ErrTypeNotFitted
	// Not implemented errors
	ErrTypeNotImplemented
)

// MLError represents a structured error with context
type MLError struct {
	Type    ErrorType
	Op      string      // Operation that failed
	Message string      // Human-readable message
	Err     error       // Underlying error if any
	Context interface{} // Additional context
}

// Error implements the error interface
func (e *MLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("GUML %s error in %s: %s (caused by: %v)",
			e.Type.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("GUML %s error in %s: %s",
		e.Type.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *MLError) Unwrap() error {
	return e.Err
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeMemory:
		return "Memory"
	case ErrTypeInvalidArg:
		return "InvalidArgument"
	case ErrTypeExecution:
		return "Execution"
	case ErrTypeNumerical:
		return "Numerical"
	case ErrTypeDevice:
		return "Device"
	case ErrTypeNotFitted:
		return "NotFitted"
	case ErrTypeNotImplemented:
		return "NotImplemented"
	default:
		return "Unknown"
	}
}

// Common error constructors

// NewMemoryError creates a memory-related error
func NewMemoryError(op string, message string, err error) error {
	return &MLError{
		Type:    ErrTypeMemory,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewInvalidArgError creates an invalid argument error
func NewInvalidArgError(op string, message string) error {
	return &MLError{
		Type:    ErrTypeInvalidArg,
		Op:      op,
		Message: message,
	}
}

// NewExecutionError creates an execution error
func NewExecutionError(op string, message string, err error) error {
	return &MLError{
		Type:    ErrTypeExecution,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewNumericalError creates a numerical error
func NewNumericalError(op string, message string, context interface{}) error {
	return &MLError{
		Type:    ErrTypeNumerical,
		Op:      op,
		Message: message,
		Context: context,
	}
}

// NewNotFittedError reports use of an estimator before Fit has been called.
// The op is the estimator method, e.g. "PCA.Transform".
func NewNotFittedError(op string) error {
	return &MLError{
		Type:    ErrTypeNotFitted,
		Op:      op,
		Message: "estimator is not fitted; call Fit first",
	}
}

// Common pre-defined errors

var (
	// ErrOutOfMemory indicates memory allocation failure
	ErrOutOfMemory = NewMemoryError("Malloc", "out of memory", nil)

	// ErrInvalidSize indicates invalid size parameter
	ErrInvalidSize = NewInvalidArgError("Malloc", "size must be positive")

	// ErrNullPointer indicates null pointer access
	ErrNullPointer = NewInvalidArgError("Memory", "null pointer")

	// ErrDoubleFree indicates double free attempt
	ErrDoubleFree = NewMemoryError("Free", "double free detected", nil)

	// ErrInvalidDevice indicates invalid device ID
	ErrInvalidDevice = NewInvalidArgError("SetDevice", "invalid device ID")

	// ErrDimensionMismatch indicates incompatible matrix dimensions
	ErrDimensionMismatch = NewInvalidArgError("Matrix", "dimension mismatch")

	// ErrEmptyInput indicates an input with zero rows or columns
	ErrEmptyInput = NewInvalidArgError("Matrix", "input has no elements")

	// ErrInvalidShape indicates an unsupported tensor shape
	ErrInvalidShape = NewInvalidArgError("Reduce", "invalid shape")

	// ErrInvalidAxis indicates an out-of-range reduction axis
	ErrInvalidAxis = NewInvalidArgError("Reduce", "invalid axis")

	// ErrInvalidIndex indicates an out-of-range index
	ErrInvalidIndex = NewInvalidArgError("Reduce", "index out of range")

	// ErrInvalidParameter indicates an invalid parameter value
	ErrInvalidParameter = NewInvalidArgError("Reduce", "invalid parameter")
)

// IsMemoryError checks if an error is a memory error
func IsMemoryError(err error) bool {
	if e, ok := err.(*MLError); ok {
		return e.Type == ErrTypeMemory
	}
	return false
}

// IsInvalidArgError checks if an error is an invalid argument error
func IsInvalidArgError(err error) bool {
	if e, ok := err.(*MLError); ok {
		return e.Type == ErrTypeInvalidArg
	}
	return false
}

// IsNotFittedError checks if an error reports an unfitted estimator
func IsNotFittedError(err error) bool {
	if e, ok := err.(*MLError); ok {
		return e.Type == ErrTypeNotFitted
	}
	return false
}
