package errors

import (
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeEncoding         ErrorType = "ENCODING_DETECTION"
	ErrTypeNamingConvention ErrorType = "NAMING_CONVENTION"
	ErrTypeMalformedDate    ErrorType = "MALFORMED_DATE"
	ErrTypeMissingReference ErrorType = "MISSING_REFERENCE_DATA"
	ErrTypeConfig           ErrorType = "CONFIGURATION"
	ErrTypeStorage          ErrorType = "STORAGE"
)

// Sentinels for errors.Is. Any AppError of the same Type matches.
var (
	ErrEncodingDetection    = &AppError{Type: ErrTypeEncoding}
	ErrNamingConvention     = &AppError{Type: ErrTypeNamingConvention}
	ErrMalformedDate        = &AppError{Type: ErrTypeMalformedDate}
	ErrMissingReferenceData = &AppError{Type: ErrTypeMissingReference}
	ErrConfiguration        = &AppError{Type: ErrTypeConfig}
	ErrStorage              = &AppError{Type: ErrTypeStorage}
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError of the same type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewEncodingError reports bytes that could not be detected or decoded.
func NewEncodingError(path, message string, cause error) *AppError {
	return NewAppError(ErrTypeEncoding, message, cause).WithContext("path", path)
}

// NewNamingConventionError reports a filename that does not follow
// <YYYYMMDD>_<script>[-suffix].<ext>.
func NewNamingConventionError(filename, message string) *AppError {
	return NewAppError(ErrTypeNamingConvention,
		fmt.Sprintf("%s: %s", filename, message), nil).WithContext("filename", filename)
}

// NewMalformedDateError reports a Date cell that is not an 8-digit calendar date.
func NewMalformedDateError(path string, line int, value string, cause error) *AppError {
	return NewAppError(ErrTypeMalformedDate,
		fmt.Sprintf("%s line %d: invalid date %q", path, line, value), cause).
		WithContext("path", path).
		WithContext("line", line).
		WithContext("value", value)
}

// NewMissingReferenceError reports an absent or empty reference directory.
func NewMissingReferenceError(dir string, cause error) *AppError {
	return NewAppError(ErrTypeMissingReference,
		fmt.Sprintf("no reference table found in %s", dir), cause).WithContext("dir", dir)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}
