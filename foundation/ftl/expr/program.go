// File: program.go
// Title: Compiled Expression Programs
// Description: Defines the evaluable form an expression compiles to: a small
//              immutable closure tree restricted to the allow-listed
//              operator and function set. A compiled Program can be run any
//              number of times against fresh bindings.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial program representation

package expr

import (
	"math"
	"time"

	formaerror "github.com/formalang/forma/foundation/core/error"
)

// Resolver supplies name bindings during evaluation. The scope chain of an
// execution context implements this interface.
type Resolver interface {
	// Resolve returns the value bound to name and whether it exists
	Resolve(name string) (interface{}, bool)
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func(name string) (interface{}, bool)

// Resolve implements Resolver
func (f ResolverFunc) Resolve(name string) (interface{}, bool) {
	return f(name)
}

// EmptyResolver resolves nothing, for expressions over literals only
var EmptyResolver = ResolverFunc(func(string) (interface{}, bool) {
	return nil, false
})

// Program is the compiled, immutable form of one expression source string
type Program struct {
	source     string
	root       exprNode
	compiledAt time.Time
}

// Source returns the source string the program was compiled from
func (p *Program) Source() string {
	return p.source
}

// CompiledAt returns when the program was compiled
func (p *Program) CompiledAt() time.Time {
	return p.compiledAt
}

// Run evaluates the program against the given bindings
func (p *Program) Run(r Resolver) (interface{}, error) {
	if r == nil {
		r = EmptyResolver
	}
	return p.root.eval(r)
}

// exprNode is one node of the compiled closure tree
type exprNode interface {
	eval(r Resolver) (interface{}, error)
}

// literalNode yields a constant value
type literalNode struct {
	value interface{}
}

func (n *literalNode) eval(Resolver) (interface{}, error) {
	return n.value, nil
}

// identNode resolves a name against the bindings
type identNode struct {
	name string
}

func (n *identNode) eval(r Resolver) (interface{}, error) {
	value, ok := r.Resolve(n.name)
	if !ok {
		return nil, formaerror.Newf("undefined name %q", n.name).
			WithCode(formaerror.CodeNameNotFound).
			WithOperation("expr.Evaluate")
	}
	return value, nil
}

// memberNode accesses a named field of a map value
type memberNode struct {
	target exprNode
	field  string
}

func (n *memberNode) eval(r Resolver) (interface{}, error) {
	target, err := n.target.eval(r)
	if err != nil {
		return nil, err
	}
	m, ok := target.(map[string]interface{})
	if !ok {
		return nil, evalErrorf("cannot access field %q on %T", n.field, target)
	}
	return m[n.field], nil
}

// indexNode accesses an element of a list or map by computed key
type indexNode struct {
	target exprNode
	index  exprNode
}

func (n *indexNode) eval(r Resolver) (interface{}, error) {
	target, err := n.target.eval(r)
	if err != nil {
		return nil, err
	}
	index, err := n.index.eval(r)
	if err != nil {
		return nil, err
	}

	switch t := target.(type) {
	case []interface{}:
		i, ok := ToNumber(index)
		if !ok {
			return nil, evalErrorf("list index must be numeric, got %T", index)
		}
		idx := int(i)
		if idx < 0 || idx >= len(t) {
			return nil, evalErrorf("list index %d out of range (len %d)", idx, len(t))
		}
		return t[idx], nil
	case []map[string]interface{}:
		i, ok := ToNumber(index)
		if !ok {
			return nil, evalErrorf("list index must be numeric, got %T", index)
		}
		idx := int(i)
		if idx < 0 || idx >= len(t) {
			return nil, evalErrorf("list index %d out of range (len %d)", idx, len(t))
		}
		return t[idx], nil
	case map[string]interface{}:
		key, ok := index.(string)
		if !ok {
			return nil, evalErrorf("map key must be a string, got %T", index)
		}
		return t[key], nil
	default:
		return nil, evalErrorf("cannot index %T", target)
	}
}

// unaryNode applies a prefix operator
type unaryNode struct {
	op      TokenType
	operand exprNode
}

func (n *unaryNode) eval(r Resolver) (interface{}, error) {
	operand, err := n.operand.eval(r)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case TokenMinus:
		num, ok := ToNumber(operand)
		if !ok {
			return nil, evalErrorf("cannot negate %T", operand)
		}
		return -num, nil
	case TokenNot:
		b, err := Truthy(operand)
		if err != nil {
			return nil, err
		}
		return !b, nil
	default:
		return nil, evalErrorf("unknown unary operator %s", n.op)
	}
}

// binaryNode applies an infix operator. The boolean operators short-circuit.
type binaryNode struct {
	op    TokenType
	left  exprNode
	right exprNode
}

func (n *binaryNode) eval(r Resolver) (interface{}, error) {
	// Short-circuit boolean operators before evaluating the right side
	if n.op == TokenAnd || n.op == TokenOr {
		left, err := n.left.eval(r)
		if err != nil {
			return nil, err
		}
		lb, err := Truthy(left)
		if err != nil {
			return nil, err
		}
		if n.op == TokenAnd && !lb {
			return false, nil
		}
		if n.op == TokenOr && lb {
			return true, nil
		}
		right, err := n.right.eval(r)
		if err != nil {
			return nil, err
		}
		return Truthy(right)
	}

	left, err := n.left.eval(r)
	if err != nil {
		return nil, err
	}
	right, err := n.right.eval(r)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case TokenPlus:
		// + concatenates when either side is a string
		if ls, ok := left.(string); ok {
			return ls + ToString(right), nil
		}
		if rs, ok := right.(string); ok {
			return ToString(left) + rs, nil
		}
		return arith(left, right, func(a, b float64) (float64, error) {
			return a + b, nil
		})
	case TokenMinus:
		return arith(left, right, func(a, b float64) (float64, error) {
			return a - b, nil
		})
	case TokenStar:
		return arith(left, right, func(a, b float64) (float64, error) {
			return a * b, nil
		})
	case TokenSlash:
		return arith(left, right, func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, evalErrorf("division by zero")
			}
			return a / b, nil
		})
	case TokenPercent:
		return arith(left, right, func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, evalErrorf("modulo by zero")
			}
			return math.Mod(a, b), nil
		})
	case TokenEQ:
		return Equals(left, right), nil
	case TokenNEQ:
		return !Equals(left, right), nil
	case TokenLT:
		c, err := Compare(left, right)
		return err == nil && c < 0, err
	case TokenLTE:
		c, err := Compare(left, right)
		return err == nil && c <= 0, err
	case TokenGT:
		c, err := Compare(left, right)
		return err == nil && c > 0, err
	case TokenGTE:
		c, err := Compare(left, right)
		return err == nil && c >= 0, err
	default:
		return nil, evalErrorf("unknown binary operator %s", n.op)
	}
}

// callNode invokes an allow-listed function, resolved at compile time
type callNode struct {
	name string
	fn   builtinFunc
	args []exprNode
}

func (n *callNode) eval(r Resolver) (interface{}, error) {
	args := make([]interface{}, len(n.args))
	for i, arg := range n.args {
		value, err := arg.eval(r)
		if err != nil {
			return nil, err
		}
		args[i] = value
	}
	return n.fn(args)
}

// arrayNode builds a list literal
type arrayNode struct {
	elements []exprNode
}

func (n *arrayNode) eval(r Resolver) (interface{}, error) {
	result := make([]interface{}, len(n.elements))
	for i, elem := range n.elements {
		value, err := elem.eval(r)
		if err != nil {
			return nil, err
		}
		result[i] = value
	}
	return result, nil
}

// arith applies a numeric operation with type checking
func arith(left, right interface{}, op func(a, b float64) (float64, error)) (interface{}, error) {
	a, ok := ToNumber(left)
	if !ok {
		return nil, evalErrorf("arithmetic is undefined for %T", left)
	}
	b, ok := ToNumber(right)
	if !ok {
		return nil, evalErrorf("arithmetic is undefined for %T", right)
	}
	return op(a, b)
}
