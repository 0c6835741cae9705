// File: severity.go
// Title: Error Severity Levels
// Description: Defines severity levels for errors and the mapping from error
//              codes to their default severity. Severity drives log level
//              selection when errors are logged.
// Version: v0.1.0
// Created: 2025-07-12
// Modified: 2025-07-12
//
// Change History:
// - 2025-07-12 v0.1.0: Initial severity implementation

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow indicates a minor issue that does not affect operation
	SeverityLow Severity = iota

	// SeverityMedium indicates a recoverable issue (default)
	SeverityMedium

	// SeverityHigh indicates a serious issue that aborts the operation
	SeverityHigh

	// SeverityCritical indicates an issue that threatens the process
	SeverityCritical
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// GetSeverityFromCode returns the default severity for an error code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeExprForbidden:
		return SeverityHigh
	case CodeValidationFailed, CodeRequiredField, CodeInvalidFormat, CodeValueOutOfRange:
		return SeverityLow
	case CodeBackendError, CodeBackendTimeout, CodeNetworkError, CodeTimeout:
		return SeverityMedium
	case CodeConfigError, CodeMissingConfig, CodeInvalidConfig:
		return SeverityHigh
	case CodeInternal, CodeMaxDepth:
		return SeverityCritical
	default:
		return SeverityMedium
	}
}
