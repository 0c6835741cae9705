// File: format.go
// Title: Log Output Formatters
// Description: Implements JSON and text formatters for log entries plus
//              format parsing and lookup.
// Version: v0.1.0
// Created: 2025-07-12
// Modified: 2025-07-12
//
// Change History:
// - 2025-07-12 v0.1.0: Initial JSON and text formatters

package log

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Format identifies a log output format
type Format int

const (
	// FormatJSON emits one JSON object per entry
	FormatJSON Format = iota

	// FormatText emits human-readable single-line entries
	FormatText
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatText:
		return "text"
	default:
		return "unknown"
	}
}

// ParseFormat parses a format name into a Format
func ParseFormat(format string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return FormatJSON, nil
	case "text", "console":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %q", format)
	}
}

// Formatter renders a log entry into bytes ready for output
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// JSONFormatter renders entries as single-line JSON objects
type JSONFormatter struct {
	TimestampFormat string
}

// NewJSONFormatter creates a JSON formatter with RFC3339 timestamps
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{TimestampFormat: time.RFC3339Nano}
}

// Format renders the entry as JSON
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	data := map[string]interface{}{
		"timestamp": entry.Timestamp.Format(f.TimestampFormat),
		"level":     entry.Level.String(),
		"message":   entry.Message,
	}

	if entry.Logger != "" {
		data["logger"] = entry.Logger
	}
	if entry.ExecutionID != "" {
		data["execution_id"] = entry.ExecutionID
	}
	if entry.Error != nil {
		data["error"] = entry.Error.Error()
	}
	for k, v := range entry.Fields {
		if _, reserved := data[k]; !reserved {
			data[k] = v
		}
	}

	out, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// TextFormatter renders entries as aligned single-line text
type TextFormatter struct {
	TimestampFormat string
}

// NewTextFormatter creates a text formatter with a compact timestamp
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{TimestampFormat: "2006-01-02 15:04:05.000"}
}

// Format renders the entry as text
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	var b strings.Builder

	b.WriteString(entry.Timestamp.Format(f.TimestampFormat))
	b.WriteString(" [")
	b.WriteString(entry.Level.ShortString())
	b.WriteString("]")

	if entry.Logger != "" {
		b.WriteString(" ")
		b.WriteString(entry.Logger)
		b.WriteString(":")
	}

	b.WriteString(" ")
	b.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			b.WriteString(fmt.Sprintf(" %s=%v", k, entry.Fields[k]))
		}
	}

	if entry.Error != nil {
		b.WriteString(fmt.Sprintf(" error=%q", entry.Error.Error()))
	}

	b.WriteString("\n")
	return []byte(b.String()), nil
}

// GetFormatter returns the formatter for a format
func GetFormatter(format Format) Formatter {
	switch format {
	case FormatText:
		return NewTextFormatter()
	default:
		return NewJSONFormatter()
	}
}
