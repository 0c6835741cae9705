// File: entry.go
// Title: Log Entry and Fields
// Description: Defines the Entry type that carries a single log record and
//              the Fields map used for structured key-value context.
// Version: v0.1.0
// Created: 2025-07-12
// Modified: 2025-07-12
//
// Change History:
// - 2025-07-12 v0.1.0: Initial entry and field helpers

package log

import "time"

// Entry represents a single log record
type Entry struct {
	Timestamp   time.Time
	Level       Level
	Message     string
	Logger      string
	ExecutionID string
	Fields      Fields
	Error       error
}

// Fields is a map of structured context attached to log entries
type Fields map[string]interface{}

// Err creates a Fields map holding an error
func Err(err error) Fields {
	return Fields{"error": err}
}

// Duration creates a Fields map holding a duration
func Duration(key string, duration time.Duration) Fields {
	return Fields{key: duration.String()}
}

// Merge combines this Fields map with another, the other taking precedence
func (f Fields) Merge(other Fields) Fields {
	result := make(Fields, len(f)+len(other))
	for k, v := range f {
		result[k] = v
	}
	for k, v := range other {
		result[k] = v
	}
	return result
}

// Clone returns a shallow copy of the Fields map
func (f Fields) Clone() Fields {
	result := make(Fields, len(f))
	for k, v := range f {
		result[k] = v
	}
	return result
}

// NewEntry creates a new entry with the current timestamp
func NewEntry(level Level, message string) *Entry {
	return &Entry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Fields:    make(Fields),
	}
}
