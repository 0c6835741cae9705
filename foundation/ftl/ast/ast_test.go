// File: ast_test.go
// Title: Tree Node Tests
// Description: Tests node validation rules, assignment operation parsing,
//              and decoding of the JSON tree representation.
// Version: v0.1.0
// Created: 2025-07-14
// Modified: 2025-07-14
//
// Change History:
// - 2025-07-14 v0.1.0: Initial tests

package ast

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		node Node
		ok   bool
	}{
		{"text", &TextNode{Text: "hi"}, true},
		{"empty text", &TextNode{}, true},
		{"assign", &AssignNode{Name: "x", Value: "1"}, true},
		{"assign without name", &AssignNode{Value: "1"}, false},
		{"assign without value", &AssignNode{Name: "x"}, false},
		{"increment without value", &AssignNode{Name: "x", Op: OpIncrement}, true},
		{"uppercase without value", &AssignNode{Name: "x", Op: OpUppercase}, true},
		{"range loop", &LoopNode{Var: "i", From: "1", To: "3"}, true},
		{"range loop missing to", &LoopNode{Var: "i", From: "1"}, false},
		{"items loop", &LoopNode{Var: "item", Items: "rows"}, true},
		{"loop without var", &LoopNode{From: "1", To: "3"}, false},
		{"conditional", &ConditionalNode{Branches: []Branch{{Condition: "x > 0"}}}, true},
		{"conditional without branches", &ConditionalNode{}, false},
		{"conditional blank condition", &ConditionalNode{Branches: []Branch{{Condition: " "}}}, false},
		{"function", &FunctionDefNode{Name: "f", Params: []Param{{Name: "a"}, {Name: "b"}}}, true},
		{"function duplicate param", &FunctionDefNode{Name: "f", Params: []Param{{Name: "a"}, {Name: "a"}}}, false},
		{"function unnamed param", &FunctionDefNode{Name: "f", Params: []Param{{}}}, false},
		{"return bare", &ReturnNode{}, true},
		{"query", &QueryNode{Name: "users", Backend: "sql", Payload: "SELECT 1"}, true},
		{"query without name", &QueryNode{Backend: "sql"}, false},
		{"query without backend", &QueryNode{Name: "users"}, false},
		{"break", &BreakNode{}, true},
		{"next", &NextNode{}, true},
		{"composite with bad child", &CompositeNode{Children: []Node{&AssignNode{}}}, false},
		{"composite with nil child", &CompositeNode{Children: []Node{nil}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.node.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestParseAssignOp(t *testing.T) {
	tests := []struct {
		in   string
		want AssignOp
	}{
		{"", OpSet},
		{"set", OpSet},
		{"increment", OpIncrement},
		{"decrement", OpDecrement},
		{"add", OpAdd},
		{"subtract", OpSubtract},
		{"multiply", OpMultiply},
		{"divide", OpDivide},
		{"append", OpAppend},
		{"prepend", OpPrepend},
		{"uppercase", OpUppercase},
		{"lowercase", OpLowercase},
	}

	for _, tt := range tests {
		got, err := ParseAssignOp(tt.in)
		if err != nil {
			t.Errorf("ParseAssignOp(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseAssignOp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseAssignOp("explode"); err == nil {
		t.Error("expected error for unknown operation")
	}
}

func TestDecodeTree(t *testing.T) {
	data := []byte(`{
		"kind": "composite",
		"children": [
			{"kind": "text", "text": "Hello ", "line": 1, "column": 1},
			{"kind": "assign", "name": "n", "value": "1 + 1", "op": "set"},
			{"kind": "loop", "var": "i", "from": "1", "to": "n", "body": [
				{"kind": "conditional",
				 "branches": [{"condition": "i > 1", "body": [{"kind": "break"}]}],
				 "else": [{"kind": "next"}]}
			]},
			{"kind": "function", "name": "greet", "params": [{"name": "who", "default": "'world'"}],
			 "body": [{"kind": "return", "value": "who"}]},
			{"kind": "query", "name": "users", "backend": "sql", "payload": "SELECT * FROM users",
			 "args": {"limit": "10"},
			 "options": {"max_results": 10, "cache": true, "cache_ttl": 30}}
		]
	}`)

	node, err := DecodeTree(data)
	if err != nil {
		t.Fatalf("DecodeTree failed: %v", err)
	}

	root, ok := node.(*CompositeNode)
	if !ok {
		t.Fatalf("root = %T, want *CompositeNode", node)
	}
	if len(root.Children) != 5 {
		t.Fatalf("children = %d, want 5", len(root.Children))
	}

	text := root.Children[0].(*TextNode)
	if text.Text != "Hello " || text.Position().Line != 1 {
		t.Errorf("text node = %+v", text)
	}

	loop := root.Children[2].(*LoopNode)
	if !loop.IsRange() {
		t.Error("loop must be a range loop")
	}
	cond := loop.Body[0].(*ConditionalNode)
	if _, ok := cond.Branches[0].Body[0].(*BreakNode); !ok {
		t.Errorf("branch body = %T, want *BreakNode", cond.Branches[0].Body[0])
	}
	if _, ok := cond.Else[0].(*NextNode); !ok {
		t.Errorf("else body = %T, want *NextNode", cond.Else[0])
	}

	fn := root.Children[3].(*FunctionDefNode)
	if fn.Params[0].Default != "'world'" {
		t.Errorf("param default = %q", fn.Params[0].Default)
	}

	query := root.Children[4].(*QueryNode)
	if query.Params["limit"] != "10" {
		t.Errorf("query args = %v", query.Params)
	}
	if query.Options.MaxResults != 10 || !query.Options.Cache || query.Options.CacheTTLSecs != 30 {
		t.Errorf("query options = %+v", query.Options)
	}
}

func TestDecodeTreeRejectsUnknownKind(t *testing.T) {
	_, err := DecodeTree([]byte(`{"kind": "teleport"}`))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "teleport") {
		t.Errorf("error = %v", err)
	}
}

func TestDecodeTreeValidates(t *testing.T) {
	// Structurally valid JSON, semantically invalid node
	_, err := DecodeTree([]byte(`{"kind": "assign", "value": "1"}`))
	if err == nil {
		t.Fatal("expected validation error for missing target name")
	}
}

func TestDecodeTreeRejectsBadOp(t *testing.T) {
	_, err := DecodeTree([]byte(`{"kind": "assign", "name": "x", "value": "1", "op": "wiggle"}`))
	if err == nil {
		t.Fatal("expected error for unknown op")
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindText, "text"},
		{KindComposite, "composite"},
		{KindAssign, "assign"},
		{KindLoop, "loop"},
		{KindConditional, "conditional"},
		{KindFunctionDef, "function"},
		{KindReturn, "return"},
		{KindQuery, "query"},
		{KindBreak, "break"},
		{KindNextIteration, "next"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind.String() = %q, want %q", got, tt.want)
		}
	}
}
