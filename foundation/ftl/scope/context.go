// File: context.go
// Title: Execution Context
// Description: The live chain of scopes for one logical execution. Lookup
//              walks innermost to outermost. Writes follow the dual rule:
//              an existing binding is updated where it was declared, but an
//              elevated scope hint always targets the scope of that kind,
//              creating it at the correct chain position when absent.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial execution context

package scope

import (
	"github.com/google/uuid"

	formaerror "github.com/formalang/forma/foundation/core/error"
	"github.com/formalang/forma/foundation/core/log"
	"github.com/formalang/forma/foundation/ftl/ast"
)

// Options configures an ExecutionContext
type Options struct {
	// Logger for context diagnostics (optional)
	Logger *log.Logger

	// Session is the shared session scope for this execution (optional).
	// Usually obtained from a Registry.
	Session *Scope

	// Application is the shared application scope (optional)
	Application *Scope
}

// ExecutionContext owns the scope chain of one logical execution. The chain
// is stored outermost first; the last element is the innermost scope.
//
// A context is used by a single goroutine. The session and application
// scopes it links to may be shared with other executions; those scopes
// carry their own locks.
type ExecutionContext struct {
	id        string
	scopes    []*Scope
	functions map[string]*ast.FunctionDefNode
	logger    *log.Logger
}

// NewContext creates a context with a component scope and one local scope,
// linked under the optional session and application scopes
func NewContext(opts Options) *ExecutionContext {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefault()
	}

	id := uuid.NewString()

	var scopes []*Scope
	if opts.Application != nil {
		scopes = append(scopes, opts.Application)
	}
	if opts.Session != nil {
		scopes = append(scopes, opts.Session)
	}
	scopes = append(scopes, NewScope(KindComponent), NewScope(KindLocal))

	return &ExecutionContext{
		id:        id,
		scopes:    scopes,
		functions: make(map[string]*ast.FunctionDefNode),
		logger:    logger.WithName("scope.context").WithExecutionID(id),
	}
}

// ID returns the unique execution identifier
func (ec *ExecutionContext) ID() string {
	return ec.id
}

// Logger returns the context logger, tagged with the execution ID
func (ec *ExecutionContext) Logger() *log.Logger {
	return ec.logger
}

// PushScope pushes a new innermost scope of the given kind
func (ec *ExecutionContext) PushScope(kind Kind) *Scope {
	s := NewScope(kind)
	ec.scopes = append(ec.scopes, s)
	return s
}

// PopScope removes the innermost scope. Session and application scopes are
// registry-owned and cannot be popped.
func (ec *ExecutionContext) PopScope() error {
	if len(ec.scopes) == 0 {
		return formaerror.New("scope chain is empty").
			WithCode(formaerror.CodeInternal).
			WithOperation("scope.PopScope")
	}
	innermost := ec.scopes[len(ec.scopes)-1]
	if innermost.Kind() == KindSession || innermost.Kind() == KindApplication {
		return formaerror.Newf("cannot pop %s scope", innermost.Kind()).
			WithCode(formaerror.CodeInternal).
			WithOperation("scope.PopScope")
	}
	ec.scopes = ec.scopes[:len(ec.scopes)-1]
	return nil
}

// Depth returns the number of scopes on the chain
func (ec *ExecutionContext) Depth() int {
	return len(ec.scopes)
}

// Get returns the value bound to name, searching innermost to outermost
func (ec *ExecutionContext) Get(name string) (interface{}, error) {
	for i := len(ec.scopes) - 1; i >= 0; i-- {
		if value, ok := ec.scopes[i].Get(name); ok {
			return value, nil
		}
	}
	return nil, formaerror.Newf("undefined name %q", name).
		WithCode(formaerror.CodeNameNotFound).
		WithOperation("scope.Get")
}

// Has reports whether name is bound anywhere on the chain
func (ec *ExecutionContext) Has(name string) bool {
	for i := len(ec.scopes) - 1; i >= 0; i-- {
		if ec.scopes[i].Has(name) {
			return true
		}
	}
	return false
}

// Resolve implements the expression engine's Resolver interface
func (ec *ExecutionContext) Resolve(name string) (interface{}, bool) {
	for i := len(ec.scopes) - 1; i >= 0; i-- {
		if value, ok := ec.scopes[i].Get(name); ok {
			return value, true
		}
	}
	return nil, false
}

// Set writes name under the dual rule. With an elevated hint the write
// always targets the scope of that kind. With a local (or no) hint, an
// existing binding is updated in the scope that declared it; a new name is
// created in the innermost scope.
func (ec *ExecutionContext) Set(name string, value interface{}, hint Kind) {
	if hint.Elevated() {
		ec.scopeOfKind(hint).Set(name, value)
		return
	}

	for i := len(ec.scopes) - 1; i >= 0; i-- {
		if ec.scopes[i].Has(name) {
			ec.scopes[i].Set(name, value)
			return
		}
	}
	ec.scopes[len(ec.scopes)-1].Set(name, value)
}

// scopeOfKind finds the scope of the given kind on the chain, creating and
// inserting it at the position its lifetime dictates when absent. The chain
// stays ordered widest to narrowest.
func (ec *ExecutionContext) scopeOfKind(kind Kind) *Scope {
	for i := len(ec.scopes) - 1; i >= 0; i-- {
		if ec.scopes[i].Kind() == kind {
			return ec.scopes[i]
		}
	}

	s := NewScope(kind)
	insertAt := len(ec.scopes)
	for i, existing := range ec.scopes {
		if existing.Kind() > kind {
			insertAt = i
			break
		}
	}
	ec.scopes = append(ec.scopes, nil)
	copy(ec.scopes[insertAt+1:], ec.scopes[insertAt:])
	ec.scopes[insertAt] = s

	ec.logger.Trace("created scope on demand", log.Fields{
		"kind": kind.String(),
	})
	return s
}

// RegisterFunction registers a named function definition. Redefinition
// replaces the previous definition.
func (ec *ExecutionContext) RegisterFunction(def *ast.FunctionDefNode) error {
	if def == nil || def.Name == "" {
		return formaerror.New("function definition requires a name").
			WithCode(formaerror.CodeInvalidInput).
			WithOperation("scope.RegisterFunction")
	}
	ec.functions[def.Name] = def
	return nil
}

// LookupFunction returns a registered function definition
func (ec *ExecutionContext) LookupFunction(name string) (*ast.FunctionDefNode, bool) {
	def, ok := ec.functions[name]
	return def, ok
}

// Fork creates a child context for a function call. The child shares the
// widened scopes (application, session, component) and the function
// registry with the parent, but starts with a fresh function scope so the
// callee's bindings never leak into the caller's locals.
func (ec *ExecutionContext) Fork() *ExecutionContext {
	var scopes []*Scope
	for _, s := range ec.scopes {
		if s.Kind() == KindApplication || s.Kind() == KindSession || s.Kind() == KindComponent {
			scopes = append(scopes, s)
		}
	}
	scopes = append(scopes, NewScope(KindFunction))

	return &ExecutionContext{
		id:        ec.id,
		scopes:    scopes,
		functions: ec.functions,
		logger:    ec.logger,
	}
}
