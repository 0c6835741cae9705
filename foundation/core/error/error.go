// File: error.go
// Title: Core Error Implementation
// Description: Implements the main Error type with error codes, severity,
//              operation context, and key-value details. Maintains
//              compatibility with Go's standard error interface including
//              wrapping and unwrapping.
// Version: v0.1.0
// Created: 2025-07-12
// Modified: 2025-07-12
//
// Change History:
// - 2025-07-12 v0.1.0: Initial implementation with contextual errors

package error

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error represents a structured error with context, codes, and metadata
type Error struct {
	message   string
	cause     error
	code      Code
	severity  Severity
	timestamp time.Time

	details   map[string]interface{}
	operation string
	// Source position of the node that raised the error, when known
	line   int
	column int
}

// New creates a new Error with the given message
func New(message string) *Error {
	return &Error{
		message:   message,
		code:      CodeUnknown,
		severity:  SeverityMedium,
		timestamp: time.Now(),
		details:   make(map[string]interface{}),
	}
}

// Newf creates a new Error with a formatted message
func Newf(format string, args ...interface{}) *Error {
	return New(fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with additional context
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	// Preserve code and severity when wrapping a forma error
	if fErr, ok := err.(*Error); ok {
		wrapped := &Error{
			message:   message,
			cause:     fErr,
			code:      fErr.code,
			severity:  fErr.severity,
			timestamp: time.Now(),
			details:   make(map[string]interface{}),
			line:      fErr.line,
			column:    fErr.column,
		}
		for k, v := range fErr.details {
			wrapped.details[k] = v
		}
		return wrapped
	}

	return &Error{
		message:   message,
		cause:     err,
		code:      CodeUnknown,
		severity:  SeverityMedium,
		timestamp: time.Now(),
		details:   make(map[string]interface{}),
	}
}

// Error implements the standard error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.message, e.cause.Error())
	}
	return e.message
}

// Unwrap returns the underlying cause for error unwrapping
func (e *Error) Unwrap() error {
	return e.cause
}

// WithCode sets the error code
func (e *Error) WithCode(code Code) *Error {
	e.code = code
	if e.severity == SeverityMedium { // Only auto-set if not explicitly set
		e.severity = GetSeverityFromCode(code)
	}
	return e
}

// WithSeverity sets the error severity
func (e *Error) WithSeverity(severity Severity) *Error {
	e.severity = severity
	return e
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	e.details[key] = value
	return e
}

// WithOperation sets the operation that caused the error
func (e *Error) WithOperation(operation string) *Error {
	e.operation = operation
	return e
}

// WithPosition sets the source position of the node that raised the error
func (e *Error) WithPosition(line, column int) *Error {
	e.line = line
	e.column = column
	return e
}

// Code returns the error code
func (e *Error) Code() Code {
	return e.code
}

// Severity returns the error severity
func (e *Error) Severity() Severity {
	return e.severity
}

// Timestamp returns when the error occurred
func (e *Error) Timestamp() time.Time {
	return e.timestamp
}

// Details returns a copy of the error details
func (e *Error) Details() map[string]interface{} {
	result := make(map[string]interface{}, len(e.details))
	for k, v := range e.details {
		result[k] = v
	}
	return result
}

// Operation returns the operation that caused the error
func (e *Error) Operation() string {
	return e.operation
}

// Position returns the source position, zero values when unknown
func (e *Error) Position() (line, column int) {
	return e.line, e.column
}

// RootCause returns the deepest error in the chain
func (e *Error) RootCause() error {
	cause := e.cause
	for cause != nil {
		if fErr, ok := cause.(*Error); ok {
			if fErr.cause == nil {
				return fErr
			}
			cause = fErr.cause
		} else {
			return cause
		}
	}
	return e
}

// String returns a detailed string representation of the error
func (e *Error) String() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Error: %s", e.message))
	parts = append(parts, fmt.Sprintf("Code: %s", e.code))
	parts = append(parts, fmt.Sprintf("Severity: %s", e.severity))

	if e.operation != "" {
		parts = append(parts, fmt.Sprintf("Operation: %s", e.operation))
	}

	if e.line > 0 {
		parts = append(parts, fmt.Sprintf("Position: %d:%d", e.line, e.column))
	}

	if len(e.details) > 0 {
		detailStrs := make([]string, 0, len(e.details))
		for k, v := range e.details {
			detailStrs = append(detailStrs, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("Details: {%s}", strings.Join(detailStrs, ", ")))
	}

	if e.cause != nil {
		parts = append(parts, fmt.Sprintf("Cause: %s", e.cause.Error()))
	}

	return strings.Join(parts, "\n")
}

// MarshalJSON implements json.Marshaler for structured logging
func (e *Error) MarshalJSON() ([]byte, error) {
	data := map[string]interface{}{
		"message":   e.message,
		"code":      e.code,
		"severity":  e.severity.String(),
		"timestamp": e.timestamp.Format(time.RFC3339),
	}

	if len(e.details) > 0 {
		data["details"] = e.details
	}
	if e.operation != "" {
		data["operation"] = e.operation
	}
	if e.line > 0 {
		data["line"] = e.line
		data["column"] = e.column
	}
	if e.cause != nil {
		data["cause"] = e.cause.Error()
	}

	return json.Marshal(data)
}

// HasCode checks if an error (anywhere in its chain) has a specific code
func HasCode(err error, code Code) bool {
	var fErr *Error
	if errors.As(err, &fErr) {
		return fErr.code == code
	}
	return false
}

// GetCode returns the error code from an error, or CodeUnknown if not a forma error
func GetCode(err error) Code {
	var fErr *Error
	if errors.As(err, &fErr) {
		return fErr.code
	}
	return CodeUnknown
}

// GetSeverity returns the error severity, or SeverityMedium if not a forma error
func GetSeverity(err error) Severity {
	var fErr *Error
	if errors.As(err, &fErr) {
		return fErr.severity
	}
	return SeverityMedium
}

// IsTransient reports whether the error carries a transient code
func IsTransient(err error) bool {
	return GetCode(err).IsTransient()
}
