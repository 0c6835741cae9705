// File: validation.go
// Title: Value Validation Rules
// Description: Implements the named validation rules that assignment nodes
//              can declare. A rule specification is a comma-separated list
//              such as "required,integer,min:0" which is checked against a
//              value before the write commits.
// Version: v0.1.0
// Created: 2025-07-13
// Modified: 2025-07-13
//
// Change History:
// - 2025-07-13 v0.1.0: Initial rule implementations

package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	formaerror "github.com/formalang/forma/foundation/core/error"
	"github.com/formalang/forma/foundation/utils/stringx"
)

// emailPattern is deliberately loose, it only rejects obvious non-addresses
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Apply checks a value against a rule specification. The specification is a
// comma-separated list of rule names, each optionally parameterized with a
// colon ("min:0", "maxlen:64", "pattern:^[a-z]+$"). An empty specification
// always passes. The first failing rule aborts the chain.
func Apply(spec string, value interface{}) error {
	if stringx.IsBlank(spec) {
		return nil
	}

	for _, raw := range strings.Split(spec, ",") {
		rule := strings.TrimSpace(raw)
		if rule == "" {
			continue
		}

		name, param := rule, ""
		if idx := strings.Index(rule, ":"); idx >= 0 {
			name, param = rule[:idx], rule[idx+1:]
		}

		if err := applyRule(name, param, value); err != nil {
			return err
		}
	}
	return nil
}

// applyRule checks a single named rule
func applyRule(name, param string, value interface{}) error {
	switch strings.ToLower(name) {
	case "required", "nonempty":
		if isEmptyValue(value) {
			return failure(name, value, "value is required")
		}
	case "numeric":
		if _, ok := toFloat(value); !ok {
			return failure(name, value, "value is not numeric")
		}
	case "integer":
		f, ok := toFloat(value)
		if !ok || f != float64(int64(f)) {
			return failure(name, value, "value is not an integer")
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return failure(name, value, "value is not a boolean")
		}
	case "string":
		if _, ok := value.(string); !ok {
			return failure(name, value, "value is not a string")
		}
	case "email":
		s, ok := value.(string)
		if !ok || !emailPattern.MatchString(s) {
			return failure(name, value, "value is not a valid email address")
		}
	case "min":
		limit, err := strconv.ParseFloat(param, 64)
		if err != nil {
			return badParam(name, param)
		}
		f, ok := toFloat(value)
		if !ok || f < limit {
			return failure(name, value, fmt.Sprintf("value is below minimum %v", param)).
				WithCode(formaerror.CodeValueOutOfRange)
		}
	case "max":
		limit, err := strconv.ParseFloat(param, 64)
		if err != nil {
			return badParam(name, param)
		}
		f, ok := toFloat(value)
		if !ok || f > limit {
			return failure(name, value, fmt.Sprintf("value is above maximum %v", param)).
				WithCode(formaerror.CodeValueOutOfRange)
		}
	case "minlen":
		limit, err := strconv.Atoi(param)
		if err != nil {
			return badParam(name, param)
		}
		if valueLength(value) < limit {
			return failure(name, value, fmt.Sprintf("length is below minimum %v", param))
		}
	case "maxlen":
		limit, err := strconv.Atoi(param)
		if err != nil {
			return badParam(name, param)
		}
		if valueLength(value) > limit {
			return failure(name, value, fmt.Sprintf("length is above maximum %v", param))
		}
	case "pattern":
		re, err := regexp.Compile(param)
		if err != nil {
			return badParam(name, param)
		}
		s, ok := value.(string)
		if !ok || !re.MatchString(s) {
			return failure(name, value, "value does not match pattern")
		}
	default:
		return formaerror.Newf("unknown validation rule %q", name).
			WithCode(formaerror.CodeConfigError).
			WithOperation("validation.Apply")
	}
	return nil
}

// failure builds the standard validation error for a failed rule
func failure(rule string, value interface{}, message string) *formaerror.Error {
	return formaerror.New(message).
		WithCode(formaerror.CodeValidationFailed).
		WithOperation("validation.Apply").
		WithDetail("rule", rule).
		WithDetail("value", fmt.Sprintf("%v", value))
}

// badParam builds the error for a malformed rule parameter
func badParam(rule, param string) *formaerror.Error {
	return formaerror.Newf("invalid parameter %q for rule %q", param, rule).
		WithCode(formaerror.CodeConfigError).
		WithOperation("validation.Apply")
}

// isEmptyValue reports whether a value counts as empty for "required"
func isEmptyValue(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return stringx.IsBlank(v)
	case []interface{}:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	default:
		return false
	}
}

// valueLength returns the length of strings, slices, and maps, zero otherwise
func valueLength(value interface{}) int {
	switch v := value.(type) {
	case string:
		return len(v)
	case []interface{}:
		return len(v)
	case map[string]interface{}:
		return len(v)
	default:
		return 0
	}
}

// toFloat converts numeric values to float64
func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	default:
		return 0, false
	}
}
