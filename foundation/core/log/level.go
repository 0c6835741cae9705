// File: level.go
// Title: Log Level Definitions
// Description: Defines log levels with ordering, parsing, and display helpers
//              used by the forma structured logging system.
// Version: v0.1.0
// Created: 2025-07-12
// Modified: 2025-07-12
//
// Change History:
// - 2025-07-12 v0.1.0: Initial log level implementation

package log

import (
	"fmt"
	"strings"
)

// Level represents the severity of a log entry
type Level int

const (
	// LevelTrace is for very detailed diagnostic output
	LevelTrace Level = iota

	// LevelDebug is for development diagnostic output
	LevelDebug

	// LevelInfo is for general operational messages
	LevelInfo

	// LevelWarn is for recoverable problems
	LevelWarn

	// LevelError is for failures of the current operation
	LevelError

	// LevelFatal is for unrecoverable failures
	LevelFatal

	// LevelAudit is always logged regardless of the configured minimum
	LevelAudit
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	case LevelAudit:
		return "audit"
	default:
		return "unknown"
	}
}

// ShortString returns a fixed-width representation for text output
func (l Level) ShortString() string {
	switch l {
	case LevelTrace:
		return "TRC"
	case LevelDebug:
		return "DBG"
	case LevelInfo:
		return "INF"
	case LevelWarn:
		return "WRN"
	case LevelError:
		return "ERR"
	case LevelFatal:
		return "FTL"
	case LevelAudit:
		return "AUD"
	default:
		return "???"
	}
}

// ShouldLog returns true if this level should be logged at the given minimum
func (l Level) ShouldLog(minLevel Level) bool {
	if l == LevelAudit {
		return true
	}
	return l >= minLevel
}

// ParseLevel parses a level name into a Level
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	case "audit":
		return LevelAudit, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %q", level)
	}
}

// DefaultLevel returns the default minimum level for production use
func DefaultLevel() Level {
	return LevelInfo
}
