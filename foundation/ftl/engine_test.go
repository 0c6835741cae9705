// File: engine_test.go
// Title: Engine Tests
// Description: End-to-end tests covering tree execution, JSON decoding,
//              file caching, session scope sharing, and cache statistics.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial tests

package ftl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/formalang/forma/foundation/ftl/ast"
	"github.com/formalang/forma/foundation/ftl/scope"
	"github.com/formalang/forma/foundation/ftl/treecache"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := New(Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return engine
}

func TestExecuteTree(t *testing.T) {
	engine := newEngine(t)
	ec := engine.NewContext("")

	tree := &ast.CompositeNode{Children: []ast.Node{
		&ast.AssignNode{Name: "name", Value: `"world"`, Op: ast.OpSet},
		&ast.TextNode{Text: "Hello, "},
	}}

	outcome, err := engine.ExecuteTree(context.Background(), tree, ec)
	if err != nil {
		t.Fatalf("ExecuteTree failed: %v", err)
	}
	if outcome.Output != "Hello, " {
		t.Errorf("Output = %q", outcome.Output)
	}
	if got, err := ec.Get("name"); err != nil || got != "world" {
		t.Errorf("name = %v (%v), want world", got, err)
	}
}

func TestExecuteJSON(t *testing.T) {
	engine := newEngine(t)
	ec := engine.NewContext("")

	data := []byte(`{
		"kind": "composite",
		"children": [
			{"kind": "assign", "name": "total", "value": "0", "op": "set"},
			{"kind": "loop", "var": "i", "from": "1", "to": "4", "body": [
				{"kind": "assign", "name": "total", "value": "i", "op": "add"}
			]},
			{"kind": "text", "text": "done"}
		]
	}`)

	outcome, err := engine.ExecuteJSON(context.Background(), data, ec)
	if err != nil {
		t.Fatalf("ExecuteJSON failed: %v", err)
	}
	if outcome.Output != "done" {
		t.Errorf("Output = %q", outcome.Output)
	}
	if got, _ := ec.Get("total"); got != 10.0 {
		t.Errorf("total = %v, want 10", got)
	}
}

func TestExecuteJSONInvalid(t *testing.T) {
	engine := newEngine(t)
	ec := engine.NewContext("")

	if _, err := engine.ExecuteJSON(context.Background(), []byte(`{"kind": "nope"}`), ec); err == nil {
		t.Fatal("expected decode error")
	}
}

func jsonParse(path string) (ast.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ast.DecodeTree(data)
}

func TestExecuteFileReusesParsedTree(t *testing.T) {
	engine := newEngine(t)

	path := filepath.Join(t.TempDir(), "page.json")
	if err := os.WriteFile(path, []byte(`{"kind": "text", "text": "cached"}`), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		ec := engine.NewContext("")
		outcome, err := engine.ExecuteFile(context.Background(), path, treecache.ParseFunc(jsonParse), ec)
		if err != nil {
			t.Fatalf("ExecuteFile run %d failed: %v", i, err)
		}
		if outcome.Output != "cached" {
			t.Errorf("run %d Output = %q", i, outcome.Output)
		}
	}

	stats := engine.Stats()
	if stats.Trees.Misses != 1 || stats.Trees.Hits != 2 {
		t.Errorf("tree stats = %+v, want 1 miss / 2 hits", stats.Trees)
	}
}

func TestSessionScopeShared(t *testing.T) {
	engine := newEngine(t)

	first := engine.NewContext("sess-1")
	tree := &ast.AssignNode{Name: "user", Value: `"alice"`, Op: ast.OpSet, ScopeHint: "session"}
	if _, err := engine.ExecuteTree(context.Background(), tree, first); err != nil {
		t.Fatalf("ExecuteTree failed: %v", err)
	}

	second := engine.NewContext("sess-1")
	if got, err := second.Get("user"); err != nil || got != "alice" {
		t.Errorf("user in second context = %v (%v), want alice", got, err)
	}

	other := engine.NewContext("sess-2")
	if other.Has("user") {
		t.Error("session scopes must not leak across session IDs")
	}

	if n := engine.Stats().Sessions; n != 2 {
		t.Errorf("Sessions = %d, want 2", n)
	}
}

func TestEvaluateExpression(t *testing.T) {
	engine := newEngine(t)
	ec := engine.NewContext("")
	ec.Set("x", 6.0, scope.KindLocal)

	got, err := engine.EvaluateExpression("x * 7", ec)
	if err != nil {
		t.Fatalf("EvaluateExpression failed: %v", err)
	}
	if got != 42.0 {
		t.Errorf("got %v, want 42", got)
	}
}

func TestPrecompileWarmsCache(t *testing.T) {
	engine := newEngine(t)

	if err := engine.Precompile([]string{"1 + 1", "a > b"}); err != nil {
		t.Fatalf("Precompile failed: %v", err)
	}
	if entries := engine.Stats().Expressions.Entries; entries != 2 {
		t.Errorf("Entries = %d, want 2", entries)
	}

	if err := engine.Precompile([]string{"1 +"}); err == nil {
		t.Error("expected compile error for bad source")
	}
}
