// File: value.go
// Title: Expression Value Semantics
// Description: Implements the dynamic value model shared by the expression
//              evaluator and the interpreter: numeric conversion, string
//              rendering, equality, ordering, and boolean coercion.
//              Numbers are normalized to float64.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial value semantics

package expr

import (
	"fmt"
	"strconv"
	"strings"

	formaerror "github.com/formalang/forma/foundation/core/error"
)

// ToNumber converts a value to float64 when possible
func ToNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToString renders a value for output. Whole floats render without a
// fractional part so that 3.0 prints as "3".
func ToString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Truthy coerces a value to a boolean. Nil and empty containers are false,
// non-empty containers true, numbers compare against zero, and strings must
// spell a recognized boolean form. Values with no defined coercion fail with
// an EVAL_TYPE error.
func Truthy(v interface{}) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	case float64:
		return b != 0, nil
	case int:
		return b != 0, nil
	case int64:
		return b != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "":
			return false, nil
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0":
			return false, nil
		default:
			return false, formaerror.Newf("cannot coerce string %q to boolean", b).
				WithCode(formaerror.CodeEvalType)
		}
	case []interface{}:
		return len(b) > 0, nil
	case map[string]interface{}:
		return len(b) > 0, nil
	case []map[string]interface{}:
		return len(b) > 0, nil
	default:
		return false, formaerror.Newf("cannot coerce %T to boolean", v).
			WithCode(formaerror.CodeEvalType)
	}
}

// Equals compares two values for equality with numeric widening
func Equals(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if na, ok := numericOnly(a); ok {
		if nb, ok := numericOnly(b); ok {
			return na == nb
		}
	}

	switch va := a.(type) {
	case string:
		vb, ok := b.(string)
		return ok && va == vb
	case bool:
		vb, ok := b.(bool)
		return ok && va == vb
	default:
		return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
	}
}

// Compare orders two values, returning -1, 0, or 1. Numbers order
// numerically, strings lexicographically; mixed types fail.
func Compare(a, b interface{}) (int, error) {
	if na, ok := numericOnly(a); ok {
		if nb, ok := numericOnly(b); ok {
			switch {
			case na < nb:
				return -1, nil
			case na > nb:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}

	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return strings.Compare(sa, sb), nil
		}
	}

	return 0, formaerror.Newf("cannot compare %T with %T", a, b).
		WithCode(formaerror.CodeEvalType)
}

// numericOnly converts strictly numeric values, not numeric strings
func numericOnly(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
