// File: error_test.go
// Title: Core Error Tests
// Description: Tests error construction, wrapping, code and severity
//              propagation, position tracking, and the chain helpers.
// Version: v0.1.0
// Created: 2025-07-12
// Modified: 2025-07-12
//
// Change History:
// - 2025-07-12 v0.1.0: Initial tests

package error

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	err := New("something broke")

	if err.Error() != "something broke" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Code() != CodeUnknown {
		t.Errorf("Code() = %s, want UNKNOWN", err.Code())
	}
	if err.Severity() != SeverityMedium {
		t.Errorf("Severity() = %s, want medium", err.Severity())
	}
	if err.Timestamp().IsZero() {
		t.Error("timestamp must be set")
	}
}

func TestFluentBuilders(t *testing.T) {
	err := New("bad value").
		WithCode(CodeValidationFailed).
		WithOperation("scope.Set").
		WithDetail("name", "age").
		WithPosition(12, 3)

	if err.Code() != CodeValidationFailed {
		t.Errorf("Code() = %s", err.Code())
	}
	if err.Operation() != "scope.Set" {
		t.Errorf("Operation() = %s", err.Operation())
	}
	if err.Details()["name"] != "age" {
		t.Errorf("Details() = %v", err.Details())
	}
	line, column := err.Position()
	if line != 12 || column != 3 {
		t.Errorf("Position() = %d:%d, want 12:3", line, column)
	}
	// Validation codes default to low severity
	if err.Severity() != SeverityLow {
		t.Errorf("Severity() = %s, want low", err.Severity())
	}
}

func TestExplicitSeverityWins(t *testing.T) {
	err := New("boom").WithSeverity(SeverityCritical).WithCode(CodeValidationFailed)

	if err.Severity() != SeverityCritical {
		t.Errorf("explicit severity must survive WithCode, got %s", err.Severity())
	}
}

func TestWrapPreservesContext(t *testing.T) {
	inner := New("row missing").
		WithCode(CodeNotFound).
		WithDetail("table", "users").
		WithPosition(4, 1)
	outer := Wrap(inner, "query failed")

	if outer.Code() != CodeNotFound {
		t.Errorf("wrapped Code() = %s, want NOT_FOUND", outer.Code())
	}
	if outer.Details()["table"] != "users" {
		t.Errorf("wrapped Details() = %v", outer.Details())
	}
	if line, _ := outer.Position(); line != 4 {
		t.Errorf("wrapped position line = %d, want 4", line)
	}
	if !errors.Is(outer, inner) {
		t.Error("Unwrap chain must reach the inner error")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "nothing") != nil {
		t.Error("Wrap(nil) must return nil")
	}
}

func TestWrapForeignError(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(cause, "write failed")

	if err.Code() != CodeUnknown {
		t.Errorf("Code() = %s, want UNKNOWN", err.Code())
	}
	if err.Error() != "write failed: disk full" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestRootCause(t *testing.T) {
	root := fmt.Errorf("connection refused")
	middle := Wrap(root, "dial failed")
	top := Wrap(middle, "backend unavailable")

	if top.RootCause() != root {
		t.Errorf("RootCause() = %v, want %v", top.RootCause(), root)
	}
}

func TestHasCodeThroughChain(t *testing.T) {
	inner := New("gone").WithCode(CodeNotFound)
	wrapped := fmt.Errorf("outer: %w", inner)

	if !HasCode(wrapped, CodeNotFound) {
		t.Error("HasCode must see through fmt.Errorf wrapping")
	}
	if HasCode(wrapped, CodeTimeout) {
		t.Error("HasCode must not match a different code")
	}
	if HasCode(fmt.Errorf("plain"), CodeNotFound) {
		t.Error("HasCode on a plain error must be false")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New("x").WithCode(CodeTimeout)); got != CodeTimeout {
		t.Errorf("GetCode = %s", got)
	}
	if got := GetCode(fmt.Errorf("plain")); got != CodeUnknown {
		t.Errorf("GetCode on plain error = %s, want UNKNOWN", got)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{CodeTimeout, true},
		{CodeBackendTimeout, true},
		{CodeNetworkError, true},
		{CodeBackendError, false},
		{CodeDatabaseError, false},
		{CodeNotFound, false},
	}

	for _, tt := range tests {
		if got := IsTransient(New("e").WithCode(tt.code)); got != tt.want {
			t.Errorf("IsTransient(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestCodeCategory(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{CodeExprSyntax, "compile"},
		{CodeNameNotFound, "eval"},
		{CodeValueOutOfRange, "validation"},
		{CodeNetworkError, "backend"},
		{CodeMaxDepth, "execution"},
		{CodeMissingConfig, "configuration"},
		{CodeUnknown, "generic"},
	}

	for _, tt := range tests {
		if got := tt.code.Category(); got != tt.want {
			t.Errorf("Category(%s) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestStringRepresentation(t *testing.T) {
	err := New("exploded").
		WithCode(CodeInternal).
		WithOperation("engine.Run")

	s := err.String()
	for _, want := range []string{"exploded", "INTERNAL", "critical", "engine.Run"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q:\n%s", want, s)
		}
	}
}

func TestMarshalJSON(t *testing.T) {
	err := New("bad input").
		WithCode(CodeInvalidInput).
		WithPosition(7, 2)

	data, jsonErr := json.Marshal(err)
	if jsonErr != nil {
		t.Fatalf("Marshal failed: %v", jsonErr)
	}

	var decoded map[string]interface{}
	if jsonErr := json.Unmarshal(data, &decoded); jsonErr != nil {
		t.Fatalf("Unmarshal failed: %v", jsonErr)
	}
	if decoded["message"] != "bad input" || decoded["code"] != "INVALID_INPUT" {
		t.Errorf("decoded = %v", decoded)
	}
	if decoded["line"] != 7.0 {
		t.Errorf("line = %v, want 7", decoded["line"])
	}
}
