// File: interp.go
// Title: Tree Interpreter
// Description: Walks a typed node tree and executes it: assignments with
//              operation and validation semantics, loops over ranges and
//              item sources, exclusive conditionals, function definition
//              and call, and query routing. Control flow is modeled as an
//              explicit signal so Break, NextIteration, and Return travel
//              up the walk without panics. Failures in Assign, Conditional,
//              and Loop nodes are fatal; query backend failures land inside
//              the bound result and execution continues.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial interpreter implementation

package interp

import (
	"context"
	"sort"
	"strings"
	"time"

	formaerror "github.com/formalang/forma/foundation/core/error"
	"github.com/formalang/forma/foundation/core/log"
	"github.com/formalang/forma/foundation/core/validation"
	"github.com/formalang/forma/foundation/ftl/ast"
	"github.com/formalang/forma/foundation/ftl/datasource"
	"github.com/formalang/forma/foundation/ftl/expr"
	"github.com/formalang/forma/foundation/ftl/scope"
)

// Signal tells the walk what to do after a node finishes
type Signal int

const (
	// SignalContinue proceeds to the next sibling
	SignalContinue Signal = iota

	// SignalReturn unwinds to the enclosing function call, carrying a value
	SignalReturn

	// SignalBreak leaves the innermost loop
	SignalBreak

	// SignalNext skips to the next loop iteration
	SignalNext
)

// String returns the signal name
func (s Signal) String() string {
	switch s {
	case SignalContinue:
		return "continue"
	case SignalReturn:
		return "return"
	case SignalBreak:
		return "break"
	case SignalNext:
		return "next"
	default:
		return "unknown"
	}
}

// Control is the outcome of executing one node
type Control struct {
	Signal Signal
	Value  interface{} // populated for SignalReturn
}

var proceed = Control{Signal: SignalContinue}

// DefaultMaxCallDepth bounds function-call recursion
const DefaultMaxCallDepth = 64

// Options configures an Interpreter
type Options struct {
	// Expressions is the shared compiled-expression cache (required)
	Expressions *expr.Cache

	// Router dispatches query nodes (optional; query nodes fail with a
	// configuration error in their bound result when absent)
	Router *datasource.Router

	// MaxCallDepth bounds function recursion (default 64)
	MaxCallDepth int

	// Logger for execution diagnostics (optional)
	Logger *log.Logger
}

// Outcome is the result of one tree execution
type Outcome struct {
	// Output is the accumulated text produced by text nodes
	Output string

	// Returned is the value of a top-level Return node, if any
	Returned interface{}
}

// Interpreter executes node trees. One interpreter serves any number of
// concurrent executions; all per-execution state lives in the context and
// the run.
type Interpreter struct {
	exprs    *expr.Cache
	router   *datasource.Router
	maxDepth int
	logger   *log.Logger
}

// New creates an interpreter
func New(opts Options) (*Interpreter, error) {
	if opts.Expressions == nil {
		return nil, formaerror.New("interpreter requires an expression cache").
			WithCode(formaerror.CodeMissingConfig).
			WithOperation("interp.New")
	}

	maxDepth := opts.MaxCallDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxCallDepth
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefault()
	}

	return &Interpreter{
		exprs:    opts.Expressions,
		router:   opts.Router,
		maxDepth: maxDepth,
		logger:   logger.WithName("interp"),
	}, nil
}

// Run executes a tree against the given execution context
func (in *Interpreter) Run(ctx context.Context, node ast.Node, ec *scope.ExecutionContext) (*Outcome, error) {
	if node == nil {
		return nil, formaerror.New("cannot execute a nil tree").
			WithCode(formaerror.CodeInvalidInput).
			WithOperation("interp.Run")
	}

	timer := log.NewTimer(ec.Logger(), "execute_tree")

	r := &run{in: in, ctx: ctx, ec: ec}
	ctl, err := r.exec(node)
	timer.StopWithError(err)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Output: r.out.String()}
	if ctl.Signal == SignalReturn {
		outcome.Returned = ctl.Value
	}
	return outcome, nil
}

// Call invokes a registered function by name with positional arguments,
// returning the value of its first Return node
func (in *Interpreter) Call(ctx context.Context, ec *scope.ExecutionContext, name string, args []interface{}) (interface{}, error) {
	r := &run{in: in, ctx: ctx, ec: ec}
	return r.call(name, args)
}

// run is the per-execution walk state
type run struct {
	in    *Interpreter
	ctx   context.Context
	ec    *scope.ExecutionContext
	out   strings.Builder
	depth int
}

// exec dispatches one node by kind. The switch is exhaustive over ast.Kind.
func (r *run) exec(node ast.Node) (Control, error) {
	if err := r.ctx.Err(); err != nil {
		return proceed, formaerror.Wrap(err, "execution cancelled").
			WithCode(formaerror.CodeTimeout).
			WithOperation("interp.exec")
	}

	switch n := node.(type) {
	case *ast.TextNode:
		r.out.WriteString(n.Text)
		return proceed, nil

	case *ast.CompositeNode:
		return r.execComposite(n)

	case *ast.AssignNode:
		return r.execAssign(n)

	case *ast.LoopNode:
		return r.execLoop(n)

	case *ast.ConditionalNode:
		return r.execConditional(n)

	case *ast.FunctionDefNode:
		if err := r.ec.RegisterFunction(n); err != nil {
			return proceed, fatal(err, n)
		}
		return proceed, nil

	case *ast.ReturnNode:
		return r.execReturn(n)

	case *ast.QueryNode:
		return r.execQuery(n)

	case *ast.BreakNode:
		return Control{Signal: SignalBreak}, nil

	case *ast.NextNode:
		return Control{Signal: SignalNext}, nil

	default:
		return proceed, formaerror.Newf("unknown node kind %s", node.Kind()).
			WithCode(formaerror.CodeUnknownNode).
			WithOperation("interp.exec").
			WithPosition(node.Position().Line, node.Position().Column)
	}
}

// execComposite runs children in document order, stopping at the first
// non-continue signal
func (r *run) execComposite(n *ast.CompositeNode) (Control, error) {
	for _, child := range n.Children {
		ctl, err := r.exec(child)
		if err != nil {
			return proceed, err
		}
		if ctl.Signal != SignalContinue {
			return ctl, nil
		}
	}
	return proceed, nil
}

// execAssign computes the new value per the declared operation, validates
// it, and commits it under the scope hint. Validation failure leaves the
// prior value intact.
func (r *run) execAssign(n *ast.AssignNode) (Control, error) {
	value, err := r.assignValue(n)
	if err != nil {
		return proceed, fatal(err, n)
	}

	if n.Rule != "" {
		if err := validation.Apply(n.Rule, value); err != nil {
			return proceed, fatal(err, n)
		}
	}

	hint, err := scope.ParseKind(n.ScopeHint)
	if err != nil {
		return proceed, fatal(formaerror.Wrap(err, "invalid scope hint").
			WithCode(formaerror.CodeInvalidInput), n)
	}

	r.ec.Set(n.Name, value, hint)

	r.in.logger.Trace("assigned variable", log.Fields{
		"name":  n.Name,
		"op":    n.Op.String(),
		"scope": hint.String(),
	})
	return proceed, nil
}

// assignValue produces the value an assignment will commit
func (r *run) assignValue(n *ast.AssignNode) (interface{}, error) {
	switch n.Op {
	case ast.OpSet:
		return r.in.exprs.Evaluate(n.Value, r.ec)

	case ast.OpIncrement, ast.OpDecrement:
		current, err := r.currentNumber(n.Name)
		if err != nil {
			return nil, err
		}
		if n.Op == ast.OpIncrement {
			return current + 1, nil
		}
		return current - 1, nil

	case ast.OpAdd, ast.OpSubtract, ast.OpMultiply, ast.OpDivide:
		current, err := r.currentNumber(n.Name)
		if err != nil {
			return nil, err
		}
		operand, err := r.in.exprs.Evaluate(n.Value, r.ec)
		if err != nil {
			return nil, err
		}
		num, ok := expr.ToNumber(operand)
		if !ok {
			return nil, formaerror.Newf("operand of %s on %q is not numeric", n.Op, n.Name).
				WithCode(formaerror.CodeEvalType)
		}
		switch n.Op {
		case ast.OpAdd:
			return current + num, nil
		case ast.OpSubtract:
			return current - num, nil
		case ast.OpMultiply:
			return current * num, nil
		default:
			if num == 0 {
				return nil, formaerror.Newf("division by zero assigning %q", n.Name).
					WithCode(formaerror.CodeEvalError)
			}
			return current / num, nil
		}

	case ast.OpAppend, ast.OpPrepend:
		current, err := r.ec.Get(n.Name)
		if err != nil {
			return nil, err
		}
		operand, err := r.in.exprs.Evaluate(n.Value, r.ec)
		if err != nil {
			return nil, err
		}
		if list, ok := current.([]interface{}); ok {
			if n.Op == ast.OpAppend {
				return append(append([]interface{}{}, list...), operand), nil
			}
			return append([]interface{}{operand}, list...), nil
		}
		if n.Op == ast.OpAppend {
			return expr.ToString(current) + expr.ToString(operand), nil
		}
		return expr.ToString(operand) + expr.ToString(current), nil

	case ast.OpUppercase, ast.OpLowercase:
		current, err := r.ec.Get(n.Name)
		if err != nil {
			return nil, err
		}
		s, ok := current.(string)
		if !ok {
			return nil, formaerror.Newf("case transform on %q requires a string, found %T", n.Name, current).
				WithCode(formaerror.CodeEvalType)
		}
		if n.Op == ast.OpUppercase {
			return strings.ToUpper(s), nil
		}
		return strings.ToLower(s), nil

	default:
		return nil, formaerror.Newf("unknown assignment operation %s", n.Op).
			WithCode(formaerror.CodeInvalidInput)
	}
}

// currentNumber reads the current numeric value of a variable
func (r *run) currentNumber(name string) (float64, error) {
	current, err := r.ec.Get(name)
	if err != nil {
		return 0, err
	}
	num, ok := expr.ToNumber(current)
	if !ok {
		return 0, formaerror.Newf("variable %q holds non-numeric %T", name, current).
			WithCode(formaerror.CodeEvalType)
	}
	return num, nil
}

// execLoop iterates a numeric range or an item source. Each iteration runs
// in a fresh innermost scope binding the loop variable and optional index.
func (r *run) execLoop(n *ast.LoopNode) (Control, error) {
	if n.IsRange() {
		return r.execRangeLoop(n)
	}
	return r.execItemsLoop(n)
}

func (r *run) execRangeLoop(n *ast.LoopNode) (Control, error) {
	from, err := r.loopBound(n, n.From)
	if err != nil {
		return proceed, err
	}
	to, err := r.loopBound(n, n.To)
	if err != nil {
		return proceed, err
	}

	step := 1.0
	if n.Step != "" {
		step, err = r.loopBound(n, n.Step)
		if err != nil {
			return proceed, err
		}
	}
	if step == 0 {
		return proceed, fatal(formaerror.New("loop step cannot be zero").
			WithCode(formaerror.CodeEvalError), n)
	}

	index := 0
	for v := from; (step > 0 && v <= to) || (step < 0 && v >= to); v += step {
		ctl, err := r.iteration(n, v, index)
		if err != nil {
			return proceed, err
		}
		if ctl.Signal == SignalBreak {
			break
		}
		if ctl.Signal == SignalReturn {
			return ctl, nil
		}
		index++
	}
	return proceed, nil
}

func (r *run) execItemsLoop(n *ast.LoopNode) (Control, error) {
	source, err := r.in.exprs.Evaluate(n.Items, r.ec)
	if err != nil {
		return proceed, fatal(err, n)
	}

	items, err := iterationItems(source)
	if err != nil {
		return proceed, fatal(err, n)
	}

	for index, item := range items {
		ctl, err := r.iteration(n, item, index)
		if err != nil {
			return proceed, err
		}
		if ctl.Signal == SignalBreak {
			break
		}
		if ctl.Signal == SignalReturn {
			return ctl, nil
		}
	}
	return proceed, nil
}

// iteration runs the loop body once with a fresh innermost scope
func (r *run) iteration(n *ast.LoopNode, value interface{}, index int) (Control, error) {
	iterScope := r.ec.PushScope(scope.KindLocal)
	iterScope.Set(n.Var, value)
	if n.IndexVar != "" {
		iterScope.Set(n.IndexVar, float64(index))
	}

	ctl, err := r.execBody(n.Body)

	if popErr := r.ec.PopScope(); popErr != nil && err == nil {
		err = popErr
	}
	return ctl, err
}

// execBody runs a statement sequence, stopping at the first non-continue
// signal
func (r *run) execBody(body []ast.Node) (Control, error) {
	for _, node := range body {
		ctl, err := r.exec(node)
		if err != nil {
			return proceed, err
		}
		if ctl.Signal != SignalContinue {
			return ctl, nil
		}
	}
	return proceed, nil
}

// loopBound evaluates a range bound expression to a number
func (r *run) loopBound(n *ast.LoopNode, source string) (float64, error) {
	value, err := r.in.exprs.Evaluate(source, r.ec)
	if err != nil {
		return 0, fatal(err, n)
	}
	num, ok := expr.ToNumber(value)
	if !ok {
		return 0, fatal(formaerror.Newf("loop bound %q is not numeric", source).
			WithCode(formaerror.CodeEvalType), n)
	}
	return num, nil
}

// iterationItems normalizes a loop item source into a slice. Maps iterate
// their keys in sorted order.
func iterationItems(source interface{}) ([]interface{}, error) {
	switch s := source.(type) {
	case []interface{}:
		return s, nil
	case []map[string]interface{}:
		items := make([]interface{}, len(s))
		for i, row := range s {
			items[i] = row
		}
		return items, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]interface{}, len(keys))
		for i, k := range keys {
			items[i] = k
		}
		return items, nil
	case nil:
		return nil, nil
	default:
		return nil, formaerror.Newf("cannot iterate %T", source).
			WithCode(formaerror.CodeEvalType)
	}
}

// execConditional evaluates branch conditions in declaration order and
// executes exactly one body
func (r *run) execConditional(n *ast.ConditionalNode) (Control, error) {
	for _, branch := range n.Branches {
		matched, err := r.in.exprs.EvaluateCondition(branch.Condition, r.ec)
		if err != nil {
			return proceed, fatal(err, n)
		}
		if matched {
			return r.execBody(branch.Body)
		}
	}
	if n.Else != nil {
		return r.execBody(n.Else)
	}
	return proceed, nil
}

// execReturn evaluates the optional return value expression
func (r *run) execReturn(n *ast.ReturnNode) (Control, error) {
	if n.Value == "" {
		return Control{Signal: SignalReturn}, nil
	}
	value, err := r.in.exprs.Evaluate(n.Value, r.ec)
	if err != nil {
		return proceed, fatal(err, n)
	}
	return Control{Signal: SignalReturn, Value: value}, nil
}

// call binds arguments into a function scope on a forked context and runs
// the body to its first Return
func (r *run) call(name string, args []interface{}) (interface{}, error) {
	def, ok := r.ec.LookupFunction(name)
	if !ok {
		return nil, formaerror.Newf("undefined function %q", name).
			WithCode(formaerror.CodeUndefinedFunc).
			WithOperation("interp.Call")
	}

	if r.depth >= r.in.maxDepth {
		return nil, formaerror.Newf("call depth limit %d reached invoking %q", r.in.maxDepth, name).
			WithCode(formaerror.CodeMaxDepth).
			WithOperation("interp.Call")
	}

	if len(args) > len(def.Params) {
		return nil, formaerror.Newf("function %q takes %d parameter(s), got %d arguments",
			name, len(def.Params), len(args)).
			WithCode(formaerror.CodeInvalidInput).
			WithOperation("interp.Call")
	}

	child := r.ec.Fork()
	for i, param := range def.Params {
		if i < len(args) {
			child.Set(param.Name, args[i], scope.KindFunction)
			continue
		}
		if param.Default == "" {
			return nil, formaerror.Newf("missing argument for parameter %q of %q", param.Name, name).
				WithCode(formaerror.CodeInvalidInput).
				WithOperation("interp.Call")
		}
		value, err := r.in.exprs.Evaluate(param.Default, r.ec)
		if err != nil {
			return nil, err
		}
		child.Set(param.Name, value, scope.KindFunction)
	}

	callee := &run{in: r.in, ctx: r.ctx, ec: child, depth: r.depth + 1}
	ctl, err := callee.execBody(def.Body)
	if err != nil {
		return nil, err
	}

	// Text produced inside the function joins the caller's output
	r.out.WriteString(callee.out.String())

	if ctl.Signal == SignalReturn {
		return ctl.Value, nil
	}
	return nil, nil
}

// execQuery routes the descriptor and binds {name} and {name}_result.
// Backend failures are not fatal; the bound result carries them.
func (r *run) execQuery(n *ast.QueryNode) (Control, error) {
	result := r.routeQuery(n)

	r.ec.Set(n.Name, result.Payload(), scope.KindLocal)
	r.ec.Set(n.Name+"_result", resultBindings(result), scope.KindLocal)

	r.in.logger.Debug("query executed", log.Fields{
		"name":       n.Name,
		"backend":    n.Backend,
		"success":    result.Success,
		"cached":     result.Cached,
		"elapsed_ms": result.ExecutionTimeMs,
	})
	return proceed, nil
}

// routeQuery builds the descriptor and dispatches it
func (r *run) routeQuery(n *ast.QueryNode) *datasource.QueryResult {
	if r.in.router == nil {
		return datasource.Failure(string(formaerror.CodeConfigError),
			"no datasource router configured")
	}

	params := make(map[string]interface{}, len(n.Params))
	for name, source := range n.Params {
		value, err := r.in.exprs.Evaluate(source, r.ec)
		if err != nil {
			return datasource.Failure(string(formaerror.CodeEvalError), err.Error())
		}
		params[name] = value
	}

	desc := &datasource.QueryDescriptor{
		Kind:    n.Backend,
		Payload: n.Payload,
		Params:  params,
		Options: datasource.QueryOptions{
			MaxResults: n.Options.MaxResults,
			MinScore:   n.Options.MinScore,
			Cache:      n.Options.Cache,
			CacheTTL:   time.Duration(n.Options.CacheTTLSecs) * time.Second,
			Timeout:    time.Duration(n.Options.TimeoutSecs) * time.Second,
			Extra:      n.Options.Extra,
		},
	}

	return r.in.router.Route(r.ctx, desc)
}

// resultBindings converts a query result into the map shape exposed to
// expressions as {name}_result
func resultBindings(result *datasource.QueryResult) map[string]interface{} {
	bindings := map[string]interface{}{
		"success":           result.Success,
		"execution_time_ms": float64(result.ExecutionTimeMs),
		"cached":            result.Cached,
	}
	if result.Records != nil {
		bindings["records"] = result.Records
	}
	if result.Data != nil {
		bindings["data"] = result.Data
	}
	if result.Text != "" {
		bindings["text"] = result.Text
	}
	if result.Error != nil {
		bindings["error"] = map[string]interface{}{
			"message": result.Error.Message,
			"kind":    result.Error.Kind,
		}
	}
	return bindings
}

// fatal attaches node position context to an error
func fatal(err error, node ast.Node) error {
	pos := node.Position()
	if fe, ok := err.(*formaerror.Error); ok {
		return fe.WithPosition(pos.Line, pos.Column)
	}
	return formaerror.Wrap(err, "execution failed").
		WithPosition(pos.Line, pos.Column)
}
