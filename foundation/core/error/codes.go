// File: codes.go
// Title: Error Code Definitions
// Description: Defines standardized error codes for consistent error
//              classification across the forma execution core. The codes
//              cover expression compilation and evaluation, scope access,
//              value validation, datasource backends, and configuration.
// Version: v0.1.0
// Created: 2025-07-12
// Modified: 2025-07-12
//
// Change History:
// - 2025-07-12 v0.1.0: Initial implementation with core error codes

package error

// Code represents a structured error code for categorizing errors
type Code string

// Core error codes for the forma platform
const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeTimeout      Code = "TIMEOUT"

	// Expression compilation (CompileError class)
	CodeExprSyntax      Code = "EXPR_SYNTAX"
	CodeExprForbidden   Code = "EXPR_FORBIDDEN"
	CodeExprUnknownFunc Code = "EXPR_UNKNOWN_FUNC"

	// Expression evaluation (EvalError class)
	CodeEvalError    Code = "EVAL_ERROR"
	CodeEvalType     Code = "EVAL_TYPE"
	CodeNameNotFound Code = "NAME_NOT_FOUND"

	// Value validation
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeRequiredField    Code = "REQUIRED_FIELD"
	CodeInvalidFormat    Code = "INVALID_FORMAT"
	CodeValueOutOfRange  Code = "VALUE_OUT_OF_RANGE"

	// Datasource backends
	CodeBackendError   Code = "BACKEND_ERROR"
	CodeBackendTimeout Code = "BACKEND_TIMEOUT"
	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeNetworkError   Code = "NETWORK_ERROR"

	// Interpreter execution
	CodeExecution     Code = "EXECUTION"
	CodeMaxDepth      Code = "MAX_DEPTH"
	CodeUnknownNode   Code = "UNKNOWN_NODE"
	CodeUndefinedFunc Code = "UNDEFINED_FUNCTION"

	// Configuration and environment
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeMissingConfig Code = "MISSING_CONFIG"
	CodeInvalidConfig Code = "INVALID_CONFIG"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeExprSyntax, CodeExprForbidden, CodeExprUnknownFunc:
		return "compile"
	case CodeEvalError, CodeEvalType, CodeNameNotFound:
		return "eval"
	case CodeValidationFailed, CodeRequiredField, CodeInvalidFormat, CodeValueOutOfRange:
		return "validation"
	case CodeBackendError, CodeBackendTimeout, CodeDatabaseError, CodeNetworkError:
		return "backend"
	case CodeExecution, CodeMaxDepth, CodeUnknownNode, CodeUndefinedFunc:
		return "execution"
	case CodeConfigError, CodeMissingConfig, CodeInvalidConfig:
		return "configuration"
	default:
		return "generic"
	}
}

// IsTransient reports whether an error with this code may succeed on retry.
// The datasource router uses this to decide whether a failed call is
// eligible for another attempt.
func (c Code) IsTransient() bool {
	switch c {
	case CodeTimeout, CodeBackendTimeout, CodeNetworkError:
		return true
	default:
		return false
	}
}
