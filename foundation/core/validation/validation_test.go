// File: validation_test.go
// Title: Validation Rule Tests
// Description: Tests the named rules, parameterized rules, chained
//              specifications, and the error codes they produce.
// Version: v0.1.0
// Created: 2025-07-13
// Modified: 2025-07-13
//
// Change History:
// - 2025-07-13 v0.1.0: Initial tests

package validation

import (
	"testing"

	formaerror "github.com/formalang/forma/foundation/core/error"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name  string
		spec  string
		value interface{}
		ok    bool
	}{
		{"empty spec passes", "", nil, true},
		{"required with value", "required", "x", true},
		{"required with nil", "required", nil, false},
		{"required with blank string", "required", "   ", false},
		{"required with empty list", "required", []interface{}{}, false},
		{"numeric float", "numeric", 3.14, true},
		{"numeric int", "numeric", 42, true},
		{"numeric string fails", "numeric", "42", false},
		{"integer whole float", "integer", 5.0, true},
		{"integer fraction fails", "integer", 5.5, false},
		{"boolean", "boolean", true, true},
		{"boolean string fails", "boolean", "true", false},
		{"string", "string", "hello", true},
		{"string number fails", "string", 1.0, false},
		{"email valid", "email", "a@b.co", true},
		{"email invalid", "email", "not-an-address", false},
		{"min pass", "min:0", 1.0, true},
		{"min fail", "min:0", -1.0, false},
		{"max pass", "max:150", 42.0, true},
		{"max fail", "max:150", 200.0, false},
		{"minlen pass", "minlen:3", "abcd", true},
		{"minlen fail", "minlen:3", "ab", false},
		{"maxlen pass", "maxlen:4", "abcd", true},
		{"maxlen fail", "maxlen:4", "abcde", false},
		{"maxlen list", "maxlen:1", []interface{}{1.0, 2.0}, false},
		{"pattern pass", "pattern:^[a-z]+$", "abc", true},
		{"pattern fail", "pattern:^[a-z]+$", "ABC", false},
		{"chain pass", "required,numeric,min:0,max:10", 5.0, true},
		{"chain first failure wins", "required,numeric", "", false},
		{"spaces around rules", " required , numeric ", 1.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Apply(tt.spec, tt.value)
			if tt.ok && err != nil {
				t.Errorf("Apply(%q, %v) = %v, want pass", tt.spec, tt.value, err)
			}
			if !tt.ok && err == nil {
				t.Errorf("Apply(%q, %v) passed, want failure", tt.spec, tt.value)
			}
		})
	}
}

func TestRangeFailuresCarryOutOfRangeCode(t *testing.T) {
	err := Apply("max:150", 200.0)
	if err == nil {
		t.Fatal("expected failure")
	}
	if !formaerror.HasCode(err, formaerror.CodeValueOutOfRange) {
		t.Errorf("code = %s, want VALUE_OUT_OF_RANGE", formaerror.GetCode(err))
	}
}

func TestTypeFailuresCarryValidationCode(t *testing.T) {
	err := Apply("numeric", "abc")
	if err == nil {
		t.Fatal("expected failure")
	}
	if !formaerror.HasCode(err, formaerror.CodeValidationFailed) {
		t.Errorf("code = %s, want VALIDATION_FAILED", formaerror.GetCode(err))
	}
}

func TestUnknownRule(t *testing.T) {
	err := Apply("sparkly", "x")
	if err == nil {
		t.Fatal("expected failure for unknown rule")
	}
	if !formaerror.HasCode(err, formaerror.CodeConfigError) {
		t.Errorf("code = %s, want CONFIG_ERROR", formaerror.GetCode(err))
	}
}

func TestMalformedParameter(t *testing.T) {
	for _, spec := range []string{"min:abc", "maxlen:many", "pattern:["} {
		err := Apply(spec, "x")
		if err == nil {
			t.Errorf("Apply(%q) passed, want failure", spec)
			continue
		}
		if !formaerror.HasCode(err, formaerror.CodeConfigError) {
			t.Errorf("Apply(%q) code = %s, want CONFIG_ERROR", spec, formaerror.GetCode(err))
		}
	}
}
