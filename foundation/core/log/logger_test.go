// File: logger_test.go
// Title: Core Logger Tests
// Description: Tests level filtering, contextual fields, logger cloning,
//              JSON and text formatting, and severity-driven error logging.
// Version: v0.1.0
// Created: 2025-07-12
// Modified: 2025-07-12
//
// Change History:
// - 2025-07-12 v0.1.0: Initial tests

package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	formaerror "github.com/formalang/forma/foundation/core/error"
)

func newTestLogger(level Level, format Format) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := NewWithConfig(Config{
		Level:  level,
		Format: format,
		Output: buf,
		Name:   "test",
	})
	return logger, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newTestLogger(LevelWarn, FormatJSON)

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("shown")
	logger.Error("also shown")

	entries := decodeLines(t, buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0]["message"] != "shown" || entries[1]["message"] != "also shown" {
		t.Errorf("entries = %v", entries)
	}
}

func TestAuditBypassesLevel(t *testing.T) {
	logger, buf := newTestLogger(LevelFatal, FormatJSON)

	logger.Audit("always recorded")

	entries := decodeLines(t, buf)
	if len(entries) != 1 || entries[0]["level"] != "audit" {
		t.Errorf("entries = %v", entries)
	}
}

func TestFieldsAndName(t *testing.T) {
	logger, buf := newTestLogger(LevelInfo, FormatJSON)

	logger.Info("query executed", Fields{"kind": "sql", "rows": 3})

	entries := decodeLines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	entry := entries[0]
	if entry["logger"] != "test" || entry["kind"] != "sql" || entry["rows"] != 3.0 {
		t.Errorf("entry = %v", entry)
	}
}

func TestWithFieldClonesLogger(t *testing.T) {
	logger, buf := newTestLogger(LevelInfo, FormatJSON)

	child := logger.WithField("component", "router")
	child.Info("from child")
	logger.Info("from parent")

	entries := decodeLines(t, buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0]["component"] != "router" {
		t.Errorf("child entry = %v", entries[0])
	}
	if _, ok := entries[1]["component"]; ok {
		t.Error("parent logger must not inherit the child's field")
	}
}

func TestWithExecutionID(t *testing.T) {
	logger, buf := newTestLogger(LevelInfo, FormatJSON)

	logger.WithExecutionID("exec-7").Info("tick")

	entries := decodeLines(t, buf)
	if entries[0]["execution_id"] != "exec-7" {
		t.Errorf("entry = %v", entries[0])
	}
}

func TestTextFormat(t *testing.T) {
	logger, buf := newTestLogger(LevelInfo, FormatText)

	logger.WithName("engine").Info("started", Fields{"b": 2, "a": 1})

	line := buf.String()
	if !strings.Contains(line, "[INF]") || !strings.Contains(line, "engine:") {
		t.Errorf("line = %q", line)
	}
	// Fields are emitted sorted by key
	if strings.Index(line, "a=1") > strings.Index(line, "b=2") {
		t.Errorf("fields not sorted: %q", line)
	}
}

func TestLogErrorUsesSeverity(t *testing.T) {
	logger, buf := newTestLogger(LevelTrace, FormatJSON)

	logger.LogError(formaerror.New("out of range").WithCode(formaerror.CodeValueOutOfRange))
	logger.LogError(formaerror.New("backend down").WithCode(formaerror.CodeNetworkError))
	logger.LogError(formaerror.New("bad config").WithCode(formaerror.CodeConfigError))

	entries := decodeLines(t, buf)
	if len(entries) != 3 {
		t.Fatalf("got %d entries", len(entries))
	}
	wantLevels := []string{"info", "warn", "error"}
	for i, want := range wantLevels {
		if entries[i]["level"] != want {
			t.Errorf("entry %d level = %v, want %s", i, entries[i]["level"], want)
		}
		if entries[i]["error_code"] == "" {
			t.Errorf("entry %d missing error_code", i)
		}
	}
}

func TestLogErrorNil(t *testing.T) {
	logger, buf := newTestLogger(LevelTrace, FormatJSON)

	logger.LogError(nil)

	if buf.Len() != 0 {
		t.Errorf("nil error must not log, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"WARN", LevelWarn, false},
		{"warning", LevelWarn, false},
		{" info ", LevelInfo, false},
		{"audit", LevelAudit, false},
		{"shouty", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsLevelEnabled(t *testing.T) {
	logger, _ := newTestLogger(LevelWarn, FormatJSON)

	if logger.IsLevelEnabled(LevelDebug) {
		t.Error("debug must be disabled at warn")
	}
	if !logger.IsLevelEnabled(LevelError) {
		t.Error("error must be enabled at warn")
	}

	logger.SetLevel(LevelTrace)
	if !logger.IsLevelEnabled(LevelDebug) {
		t.Error("debug must be enabled after SetLevel(trace)")
	}
}
