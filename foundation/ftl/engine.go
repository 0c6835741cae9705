// File: engine.go
// Title: Forma Execution Engine
// Description: The high-level entry point wiring the execution core
//              together: the compiled-expression cache, the parsed-tree
//              cache, the elevated-scope registry, the interpreter, and
//              the datasource router. All shared state is owned here and
//              dependency-injected; there are no package-level singletons.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial engine implementation

package ftl

import (
	"context"

	formaerror "github.com/formalang/forma/foundation/core/error"
	"github.com/formalang/forma/foundation/core/log"
	"github.com/formalang/forma/foundation/ftl/ast"
	"github.com/formalang/forma/foundation/ftl/datasource"
	"github.com/formalang/forma/foundation/ftl/expr"
	"github.com/formalang/forma/foundation/ftl/interp"
	"github.com/formalang/forma/foundation/ftl/scope"
	"github.com/formalang/forma/foundation/ftl/treecache"
)

// Options configures an Engine
type Options struct {
	// ExpressionCapacity bounds the compiled-expression cache
	// (default expr.DefaultCacheCapacity)
	ExpressionCapacity int

	// StrictTreeCache enables content hashing in the tree cache
	StrictTreeCache bool

	// Router dispatches query nodes. When absent an empty router is
	// created; adapters can be registered through Router().
	Router *datasource.Router

	// Registry owns session and application scopes. When absent a fresh
	// registry is created.
	Registry *scope.Registry

	// MaxCallDepth bounds function recursion (default interp.DefaultMaxCallDepth)
	MaxCallDepth int

	// Logger for engine diagnostics (optional)
	Logger *log.Logger
}

// Stats aggregates the counters of all engine caches
type Stats struct {
	Expressions  expr.Stats      `json:"expressions"`
	Trees        treecache.Stats `json:"trees"`
	QueryResults int             `json:"query_results"`
	Sessions     int             `json:"sessions"`
}

// Engine executes templates. One engine serves any number of concurrent
// executions; per-execution state lives in execution contexts.
type Engine struct {
	exprs    *expr.Cache
	trees    *treecache.Cache
	router   *datasource.Router
	registry *scope.Registry
	interp   *interp.Interpreter
	logger   *log.Logger
}

// New creates an engine
func New(opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefault()
	}
	logger = logger.WithName("ftl.engine")

	exprs := expr.NewCache(expr.Options{
		Capacity: opts.ExpressionCapacity,
		Logger:   logger,
	})
	trees := treecache.NewCache(treecache.Options{
		Strict: opts.StrictTreeCache,
		Logger: logger,
	})

	router := opts.Router
	if router == nil {
		router = datasource.NewRouter(datasource.Options{Logger: logger})
	}
	registry := opts.Registry
	if registry == nil {
		registry = scope.NewRegistry(scope.RegistryOptions{Logger: logger})
	}

	interpreter, err := interp.New(interp.Options{
		Expressions:  exprs,
		Router:       router,
		MaxCallDepth: opts.MaxCallDepth,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	return &Engine{
		exprs:    exprs,
		trees:    trees,
		router:   router,
		registry: registry,
		interp:   interpreter,
		logger:   logger,
	}, nil
}

// Router returns the datasource router for adapter registration
func (e *Engine) Router() *datasource.Router {
	return e.router
}

// Registry returns the elevated-scope registry
func (e *Engine) Registry() *scope.Registry {
	return e.registry
}

// Trees returns the parsed-tree cache, e.g. for Watch
func (e *Engine) Trees() *treecache.Cache {
	return e.trees
}

// NewContext creates an execution context. A non-empty session ID links
// the shared session scope from the registry; the application scope is
// always linked.
func (e *Engine) NewContext(sessionID string) *scope.ExecutionContext {
	opts := scope.Options{
		Logger:      e.logger,
		Application: e.registry.Application(),
	}
	if sessionID != "" {
		opts.Session = e.registry.Session(sessionID)
	}
	return scope.NewContext(opts)
}

// ExecuteFile parses (or reuses) the tree for a source file and executes it
func (e *Engine) ExecuteFile(ctx context.Context, path string, parse treecache.ParseFunc, ec *scope.ExecutionContext) (*interp.Outcome, error) {
	tree, err := e.trees.GetOrParse(path, parse)
	if err != nil {
		return nil, err
	}
	return e.interp.Run(ctx, tree, ec)
}

// ExecuteTree executes an already-built tree
func (e *Engine) ExecuteTree(ctx context.Context, tree ast.Node, ec *scope.ExecutionContext) (*interp.Outcome, error) {
	return e.interp.Run(ctx, tree, ec)
}

// ExecuteJSON decodes a JSON-encoded tree and executes it
func (e *Engine) ExecuteJSON(ctx context.Context, data []byte, ec *scope.ExecutionContext) (*interp.Outcome, error) {
	tree, err := ast.DecodeTree(data)
	if err != nil {
		return nil, formaerror.Wrap(err, "failed to decode tree").
			WithCode(formaerror.CodeInvalidInput).
			WithOperation("engine.ExecuteJSON")
	}
	return e.interp.Run(ctx, tree, ec)
}

// EvaluateExpression evaluates one expression against a context
func (e *Engine) EvaluateExpression(source string, ec *scope.ExecutionContext) (interface{}, error) {
	return e.exprs.Evaluate(source, ec)
}

// CallFunction invokes a function registered on the context
func (e *Engine) CallFunction(ctx context.Context, ec *scope.ExecutionContext, name string, args []interface{}) (interface{}, error) {
	return e.interp.Call(ctx, ec, name, args)
}

// Precompile warms the expression cache without evaluating
func (e *Engine) Precompile(sources []string) error {
	for _, source := range sources {
		if err := e.exprs.Precompile(source); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns a snapshot of all cache counters
func (e *Engine) Stats() Stats {
	return Stats{
		Expressions:  e.exprs.Stats(),
		Trees:        e.trees.Stats(),
		QueryResults: e.router.CachedResults(),
		Sessions:     e.registry.SessionCount(),
	}
}
