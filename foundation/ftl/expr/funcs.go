// File: funcs.go
// Title: Expression Function Allow-List
// Description: Defines the explicit allow-list of pure functions callable
//              from expressions, and the forbidden-identifier screening that
//              rejects introspection and code-execution primitives at
//              compile time.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial allow-list and screening

package expr

import (
	"math"
	"sort"
	"strings"

	formaerror "github.com/formalang/forma/foundation/core/error"
)

// builtinFunc is the signature of an allow-listed function
type builtinFunc func(args []interface{}) (interface{}, error)

// forbiddenIdents are identifiers that always fail compilation, regardless
// of whether a binding with that name exists. They cover introspection,
// code execution, file, process, and environment access primitives.
// Screening is case-insensitive; any identifier containing "__" is also
// rejected (see screenIdentifier).
var forbiddenIdents = map[string]bool{
	"eval":       true,
	"exec":       true,
	"execfile":   true,
	"compile":    true,
	"import":     true,
	"open":       true,
	"input":      true,
	"getattr":    true,
	"setattr":    true,
	"delattr":    true,
	"hasattr":    true,
	"globals":    true,
	"locals":     true,
	"vars":       true,
	"dir":        true,
	"os":         true,
	"sys":        true,
	"subprocess": true,
	"popen":      true,
	"system":     true,
	"getenv":     true,
	"environ":    true,
}

// screenIdentifier rejects forbidden identifiers at compile time. This is a
// hard correctness requirement: a rejected expression is never evaluated.
func screenIdentifier(name string, col int) error {
	lower := strings.ToLower(name)
	if forbiddenIdents[lower] || strings.Contains(name, "__") {
		return formaerror.Newf("forbidden identifier %q", name).
			WithCode(formaerror.CodeExprForbidden).
			WithOperation("expr.Compile").
			WithDetail("column", col)
	}
	return nil
}

// builtins is the allow-list of pure functions: math, type conversion,
// collection helpers, and string helpers. Nothing here can touch the file
// system, the network, or the process environment.
var builtins = map[string]builtinFunc{
	// Math
	"abs": func(args []interface{}) (interface{}, error) {
		n, err := oneNumber("abs", args)
		if err != nil {
			return nil, err
		}
		return math.Abs(n), nil
	},
	"floor": func(args []interface{}) (interface{}, error) {
		n, err := oneNumber("floor", args)
		if err != nil {
			return nil, err
		}
		return math.Floor(n), nil
	},
	"ceil": func(args []interface{}) (interface{}, error) {
		n, err := oneNumber("ceil", args)
		if err != nil {
			return nil, err
		}
		return math.Ceil(n), nil
	},
	"round": func(args []interface{}) (interface{}, error) {
		n, err := oneNumber("round", args)
		if err != nil {
			return nil, err
		}
		return math.Round(n), nil
	},
	"sqrt": func(args []interface{}) (interface{}, error) {
		n, err := oneNumber("sqrt", args)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, evalErrorf("sqrt of negative number %v", n)
		}
		return math.Sqrt(n), nil
	},
	"pow": func(args []interface{}) (interface{}, error) {
		if err := arity("pow", args, 2); err != nil {
			return nil, err
		}
		base, ok1 := ToNumber(args[0])
		exp, ok2 := ToNumber(args[1])
		if !ok1 || !ok2 {
			return nil, evalErrorf("pow requires numeric arguments")
		}
		return math.Pow(base, exp), nil
	},
	"min": func(args []interface{}) (interface{}, error) {
		return foldNumbers("min", args, math.Min)
	},
	"max": func(args []interface{}) (interface{}, error) {
		return foldNumbers("max", args, math.Max)
	},

	// Type conversion
	"int": func(args []interface{}) (interface{}, error) {
		if err := arity("int", args, 1); err != nil {
			return nil, err
		}
		n, ok := ToNumber(args[0])
		if !ok {
			return nil, evalErrorf("cannot convert %T to int", args[0])
		}
		return math.Trunc(n), nil
	},
	"float": func(args []interface{}) (interface{}, error) {
		if err := arity("float", args, 1); err != nil {
			return nil, err
		}
		n, ok := ToNumber(args[0])
		if !ok {
			return nil, evalErrorf("cannot convert %T to float", args[0])
		}
		return n, nil
	},
	"str": func(args []interface{}) (interface{}, error) {
		if err := arity("str", args, 1); err != nil {
			return nil, err
		}
		return ToString(args[0]), nil
	},
	"bool": func(args []interface{}) (interface{}, error) {
		if err := arity("bool", args, 1); err != nil {
			return nil, err
		}
		return Truthy(args[0])
	},

	// Collections
	"len": func(args []interface{}) (interface{}, error) {
		if err := arity("len", args, 1); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case nil:
			return float64(0), nil
		case string:
			return float64(len(v)), nil
		case []interface{}:
			return float64(len(v)), nil
		case map[string]interface{}:
			return float64(len(v)), nil
		case []map[string]interface{}:
			return float64(len(v)), nil
		default:
			return nil, evalErrorf("len is undefined for %T", args[0])
		}
	},
	"sum": func(args []interface{}) (interface{}, error) {
		items, err := oneList("sum", args)
		if err != nil {
			return nil, err
		}
		total := 0.0
		for _, item := range items {
			n, ok := ToNumber(item)
			if !ok {
				return nil, evalErrorf("sum requires numeric elements, got %T", item)
			}
			total += n
		}
		return total, nil
	},
	"first": func(args []interface{}) (interface{}, error) {
		items, err := oneList("first", args)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, nil
		}
		return items[0], nil
	},
	"last": func(args []interface{}) (interface{}, error) {
		items, err := oneList("last", args)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, nil
		}
		return items[len(items)-1], nil
	},
	"keys": func(args []interface{}) (interface{}, error) {
		if err := arity("keys", args, 1); err != nil {
			return nil, err
		}
		m, ok := args[0].(map[string]interface{})
		if !ok {
			return nil, evalErrorf("keys is undefined for %T", args[0])
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		result := make([]interface{}, len(keys))
		for i, k := range keys {
			result[i] = k
		}
		return result, nil
	},
	"values": func(args []interface{}) (interface{}, error) {
		if err := arity("values", args, 1); err != nil {
			return nil, err
		}
		m, ok := args[0].(map[string]interface{})
		if !ok {
			return nil, evalErrorf("values is undefined for %T", args[0])
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		result := make([]interface{}, 0, len(keys))
		for _, k := range keys {
			result = append(result, m[k])
		}
		return result, nil
	},
	"contains": func(args []interface{}) (interface{}, error) {
		if err := arity("contains", args, 2); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case string:
			needle, ok := args[1].(string)
			if !ok {
				return nil, evalErrorf("contains on a string requires a string needle")
			}
			return strings.Contains(v, needle), nil
		case []interface{}:
			for _, item := range v {
				if Equals(item, args[1]) {
					return true, nil
				}
			}
			return false, nil
		case map[string]interface{}:
			key, ok := args[1].(string)
			if !ok {
				return nil, evalErrorf("contains on a map requires a string key")
			}
			_, exists := v[key]
			return exists, nil
		default:
			return nil, evalErrorf("contains is undefined for %T", args[0])
		}
	},

	// Strings
	"upper": func(args []interface{}) (interface{}, error) {
		s, err := oneString("upper", args)
		if err != nil {
			return nil, err
		}
		return strings.ToUpper(s), nil
	},
	"lower": func(args []interface{}) (interface{}, error) {
		s, err := oneString("lower", args)
		if err != nil {
			return nil, err
		}
		return strings.ToLower(s), nil
	},
	"trim": func(args []interface{}) (interface{}, error) {
		s, err := oneString("trim", args)
		if err != nil {
			return nil, err
		}
		return strings.TrimSpace(s), nil
	},
	"split": func(args []interface{}) (interface{}, error) {
		if err := arity("split", args, 2); err != nil {
			return nil, err
		}
		s, ok1 := args[0].(string)
		sep, ok2 := args[1].(string)
		if !ok1 || !ok2 {
			return nil, evalErrorf("split requires string arguments")
		}
		parts := strings.Split(s, sep)
		result := make([]interface{}, len(parts))
		for i, p := range parts {
			result[i] = p
		}
		return result, nil
	},
	"join": func(args []interface{}) (interface{}, error) {
		if err := arity("join", args, 2); err != nil {
			return nil, err
		}
		items, ok1 := args[0].([]interface{})
		sep, ok2 := args[1].(string)
		if !ok1 || !ok2 {
			return nil, evalErrorf("join requires a list and a string separator")
		}
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = ToString(item)
		}
		return strings.Join(parts, sep), nil
	},
}

// lookupBuiltin resolves a function name against the allow-list at compile
// time. Unknown functions fail with EXPR_UNKNOWN_FUNC.
func lookupBuiltin(name string, col int) (builtinFunc, error) {
	if err := screenIdentifier(name, col); err != nil {
		return nil, err
	}
	fn, ok := builtins[strings.ToLower(name)]
	if !ok {
		return nil, formaerror.Newf("unknown function %q", name).
			WithCode(formaerror.CodeExprUnknownFunc).
			WithOperation("expr.Compile").
			WithDetail("column", col)
	}
	return fn, nil
}

// Helpers shared by the builtin implementations

func arity(name string, args []interface{}, want int) error {
	if len(args) != want {
		return evalErrorf("%s expects %d argument(s), got %d", name, want, len(args))
	}
	return nil
}

func oneNumber(name string, args []interface{}) (float64, error) {
	if err := arity(name, args, 1); err != nil {
		return 0, err
	}
	n, ok := ToNumber(args[0])
	if !ok {
		return 0, evalErrorf("%s requires a numeric argument, got %T", name, args[0])
	}
	return n, nil
}

func oneString(name string, args []interface{}) (string, error) {
	if err := arity(name, args, 1); err != nil {
		return "", err
	}
	s, ok := args[0].(string)
	if !ok {
		return "", evalErrorf("%s requires a string argument, got %T", name, args[0])
	}
	return s, nil
}

func oneList(name string, args []interface{}) ([]interface{}, error) {
	if err := arity(name, args, 1); err != nil {
		return nil, err
	}
	items, ok := args[0].([]interface{})
	if !ok {
		return nil, evalErrorf("%s requires a list argument, got %T", name, args[0])
	}
	return items, nil
}

func foldNumbers(name string, args []interface{}, fold func(a, b float64) float64) (interface{}, error) {
	if len(args) == 0 {
		return nil, evalErrorf("%s requires at least one argument", name)
	}
	acc, ok := ToNumber(args[0])
	if !ok {
		return nil, evalErrorf("%s requires numeric arguments, got %T", name, args[0])
	}
	for _, arg := range args[1:] {
		n, ok := ToNumber(arg)
		if !ok {
			return nil, evalErrorf("%s requires numeric arguments, got %T", name, arg)
		}
		acc = fold(acc, n)
	}
	return acc, nil
}

// evalErrorf builds a runtime evaluation error
func evalErrorf(format string, args ...interface{}) error {
	return formaerror.Newf(format, args...).
		WithCode(formaerror.CodeEvalError).
		WithOperation("expr.Evaluate")
}
