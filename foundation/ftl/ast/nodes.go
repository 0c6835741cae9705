// File: nodes.go
// Title: FTL Executable Tree Node Definitions
// Description: Defines the typed node tree that the external parser produces
//              and the interpreter executes: text, composite, assignment,
//              loop, conditional, function definition, return, and query
//              nodes. Nodes are immutable once produced and trees are
//              acyclic by construction.
// Version: v0.1.0
// Created: 2025-07-14
// Modified: 2025-07-14
//
// Change History:
// - 2025-07-14 v0.1.0: Initial node definitions

package ast

import (
	"fmt"
	"strings"

	"github.com/formalang/forma/foundation/utils/stringx"
)

// Kind identifies the variant of a node. The set is closed: the interpreter
// switches exhaustively over it.
type Kind int

const (
	// KindText is a literal output fragment
	KindText Kind = iota

	// KindComposite is an ordered sequence of child nodes
	KindComposite

	// KindAssign writes a value into the execution context
	KindAssign

	// KindLoop iterates a numeric range or an item sequence
	KindLoop

	// KindConditional executes exactly one of its branch bodies
	KindConditional

	// KindFunctionDef declares a named function
	KindFunctionDef

	// KindReturn stops the enclosing function call with a value
	KindReturn

	// KindQuery routes a query descriptor to a datasource backend
	KindQuery

	// KindBreak leaves the innermost loop early
	KindBreak

	// KindNextIteration skips to the next loop iteration
	KindNextIteration
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindComposite:
		return "composite"
	case KindAssign:
		return "assign"
	case KindLoop:
		return "loop"
	case KindConditional:
		return "conditional"
	case KindFunctionDef:
		return "function"
	case KindReturn:
		return "return"
	case KindQuery:
		return "query"
	case KindBreak:
		return "break"
	case KindNextIteration:
		return "next"
	default:
		return "unknown"
	}
}

// Position represents a position in the template source
type Position struct {
	Line   int // Line number (1-based)
	Column int // Column number (1-based)
}

// String returns "line:column"
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is the base interface for all tree nodes
type Node interface {
	// Kind returns the variant tag of the node
	Kind() Kind

	// Position returns the source position of the node
	Position() Position

	// Validate performs structural validation of the node
	Validate() error
}

// AssignOp identifies the operation an assignment applies before writing
type AssignOp int

const (
	// OpSet replaces the binding with the evaluated value
	OpSet AssignOp = iota

	// OpIncrement adds one to the existing numeric binding
	OpIncrement

	// OpDecrement subtracts one from the existing numeric binding
	OpDecrement

	// OpAdd adds the evaluated value to the existing binding
	OpAdd

	// OpSubtract subtracts the evaluated value from the existing binding
	OpSubtract

	// OpMultiply multiplies the existing binding by the evaluated value
	OpMultiply

	// OpDivide divides the existing binding by the evaluated value
	OpDivide

	// OpAppend appends to a list or concatenates after a string
	OpAppend

	// OpPrepend prepends to a list or concatenates before a string
	OpPrepend

	// OpUppercase upper-cases the existing string binding
	OpUppercase

	// OpLowercase lower-cases the existing string binding
	OpLowercase
)

// String returns the string representation of the operation
func (op AssignOp) String() string {
	switch op {
	case OpSet:
		return "set"
	case OpIncrement:
		return "increment"
	case OpDecrement:
		return "decrement"
	case OpAdd:
		return "add"
	case OpSubtract:
		return "subtract"
	case OpMultiply:
		return "multiply"
	case OpDivide:
		return "divide"
	case OpAppend:
		return "append"
	case OpPrepend:
		return "prepend"
	case OpUppercase:
		return "uppercase"
	case OpLowercase:
		return "lowercase"
	default:
		return "unknown"
	}
}

// ParseAssignOp parses an operation name, defaulting to set for empty input
func ParseAssignOp(s string) (AssignOp, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "set":
		return OpSet, nil
	case "increment":
		return OpIncrement, nil
	case "decrement":
		return OpDecrement, nil
	case "add":
		return OpAdd, nil
	case "subtract":
		return OpSubtract, nil
	case "multiply":
		return OpMultiply, nil
	case "divide":
		return OpDivide, nil
	case "append":
		return OpAppend, nil
	case "prepend":
		return OpPrepend, nil
	case "uppercase":
		return OpUppercase, nil
	case "lowercase":
		return OpLowercase, nil
	default:
		return OpSet, fmt.Errorf("unknown assignment operation: %q", s)
	}
}

// TextNode is a literal output fragment
type TextNode struct {
	Text string
	Pos  Position
}

// CompositeNode is an ordered sequence of child nodes
type CompositeNode struct {
	Children []Node
	Pos      Position
}

// AssignNode writes a value into the execution context.
// Value holds the right-hand-side expression source; Rule an optional
// validation rule specification checked before the write commits; ScopeHint
// an optional scope kind name ("function", "session", ...) requesting an
// elevated target scope.
type AssignNode struct {
	Name      string
	Value     string
	Op        AssignOp
	Rule      string
	ScopeHint string
	Pos       Position
}

// LoopNode iterates either a numeric range (From/To/Step expression sources,
// inclusive bounds) or an item sequence (Items expression source). Var is
// bound to the current value, IndexVar optionally to the zero-based index.
type LoopNode struct {
	Var      string
	IndexVar string
	From     string
	To       string
	Step     string
	Items    string
	Body     []Node
	Pos      Position
}

// IsRange reports whether the loop iterates a numeric range
func (n *LoopNode) IsRange() bool {
	return n.Items == ""
}

// Branch is one condition/body pair of a conditional
type Branch struct {
	Condition string
	Body      []Node
}

// ConditionalNode executes the body of the first branch whose condition
// holds, or Else when none does. Exactly one body executes.
type ConditionalNode struct {
	Branches []Branch
	Else     []Node
	Pos      Position
}

// Param is one declared function parameter with an optional default
// expression source
type Param struct {
	Name    string
	Default string
}

// FunctionDefNode declares a named function
type FunctionDefNode struct {
	Name   string
	Params []Param
	Body   []Node
	Pos    Position
}

// ReturnNode stops the enclosing function call, Value optionally holding the
// result expression source
type ReturnNode struct {
	Value string
	Pos   Position
}

// QueryOptions holds per-kind query options
type QueryOptions struct {
	MaxResults     int
	MinScore       float64
	Cache          bool
	CacheTTLSecs   int
	TimeoutSecs    int
	Extra          map[string]string
}

// QueryNode routes a query to a datasource backend and binds the result.
// Params values are expression sources evaluated at execution time.
type QueryNode struct {
	Name    string
	Backend string
	Payload string
	Params  map[string]string
	Options QueryOptions
	Pos     Position
}

// BreakNode leaves the innermost loop early
type BreakNode struct {
	Pos Position
}

// NextNode skips to the next iteration of the innermost loop
type NextNode struct {
	Pos Position
}

// Kind implementations

func (n *TextNode) Kind() Kind        { return KindText }
func (n *CompositeNode) Kind() Kind   { return KindComposite }
func (n *AssignNode) Kind() Kind      { return KindAssign }
func (n *LoopNode) Kind() Kind        { return KindLoop }
func (n *ConditionalNode) Kind() Kind { return KindConditional }
func (n *FunctionDefNode) Kind() Kind { return KindFunctionDef }
func (n *ReturnNode) Kind() Kind      { return KindReturn }
func (n *QueryNode) Kind() Kind       { return KindQuery }
func (n *BreakNode) Kind() Kind       { return KindBreak }
func (n *NextNode) Kind() Kind        { return KindNextIteration }

// Position implementations

func (n *TextNode) Position() Position        { return n.Pos }
func (n *CompositeNode) Position() Position   { return n.Pos }
func (n *AssignNode) Position() Position      { return n.Pos }
func (n *LoopNode) Position() Position        { return n.Pos }
func (n *ConditionalNode) Position() Position { return n.Pos }
func (n *FunctionDefNode) Position() Position { return n.Pos }
func (n *ReturnNode) Position() Position      { return n.Pos }
func (n *QueryNode) Position() Position       { return n.Pos }
func (n *BreakNode) Position() Position       { return n.Pos }
func (n *NextNode) Position() Position        { return n.Pos }

// Validate implementations

func (n *TextNode) Validate() error {
	return nil
}

func (n *CompositeNode) Validate() error {
	return validateChildren(n.Children)
}

func (n *AssignNode) Validate() error {
	if stringx.IsBlank(n.Name) {
		return fmt.Errorf("assignment target name is required")
	}
	switch n.Op {
	case OpIncrement, OpDecrement, OpUppercase, OpLowercase:
		// These operate on the existing binding, no value needed
	default:
		if stringx.IsBlank(n.Value) {
			return fmt.Errorf("assignment value is required for operation %s", n.Op)
		}
	}
	return nil
}

func (n *LoopNode) Validate() error {
	if stringx.IsBlank(n.Var) {
		return fmt.Errorf("loop variable name is required")
	}
	if n.IsRange() {
		if stringx.IsBlank(n.From) || stringx.IsBlank(n.To) {
			return fmt.Errorf("range loop requires from and to expressions")
		}
	}
	return validateChildren(n.Body)
}

func (n *ConditionalNode) Validate() error {
	if len(n.Branches) == 0 {
		return fmt.Errorf("conditional requires at least one branch")
	}
	for i, branch := range n.Branches {
		if stringx.IsBlank(branch.Condition) {
			return fmt.Errorf("branch %d: condition is required", i)
		}
		if err := validateChildren(branch.Body); err != nil {
			return fmt.Errorf("branch %d: %w", i, err)
		}
	}
	return validateChildren(n.Else)
}

func (n *FunctionDefNode) Validate() error {
	if stringx.IsBlank(n.Name) {
		return fmt.Errorf("function name is required")
	}
	seen := make(map[string]bool, len(n.Params))
	for _, p := range n.Params {
		if stringx.IsBlank(p.Name) {
			return fmt.Errorf("function %s: parameter name is required", n.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("function %s: duplicate parameter %q", n.Name, p.Name)
		}
		seen[p.Name] = true
	}
	return validateChildren(n.Body)
}

func (n *ReturnNode) Validate() error {
	return nil
}

func (n *QueryNode) Validate() error {
	if stringx.IsBlank(n.Name) {
		return fmt.Errorf("query result name is required")
	}
	if stringx.IsBlank(n.Backend) {
		return fmt.Errorf("query backend kind is required")
	}
	return nil
}

func (n *BreakNode) Validate() error {
	return nil
}

func (n *NextNode) Validate() error {
	return nil
}

// validateChildren validates an ordered child list, rejecting nil entries
func validateChildren(children []Node) error {
	for i, child := range children {
		if child == nil {
			return fmt.Errorf("child %d is nil", i)
		}
		if err := child.Validate(); err != nil {
			return fmt.Errorf("child %d (%s): %w", i, child.Kind(), err)
		}
	}
	return nil
}
