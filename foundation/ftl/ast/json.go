// File: json.go
// Title: JSON Tree Decoding
// Description: Decodes the JSON tree representation emitted by external
//              parser front-ends into typed nodes. Each JSON object carries
//              a "kind" discriminator plus the kind-specific fields.
// Version: v0.1.0
// Created: 2025-07-14
// Modified: 2025-07-14
//
// Change History:
// - 2025-07-14 v0.1.0: Initial JSON decoding

package ast

import (
	"encoding/json"
	"fmt"
)

// rawNode is the wire shape shared by all node kinds
type rawNode struct {
	Kind      string            `json:"kind"`
	Line      int               `json:"line,omitempty"`
	Column    int               `json:"column,omitempty"`
	Text      string            `json:"text,omitempty"`
	Children  []json.RawMessage `json:"children,omitempty"`
	Name      string            `json:"name,omitempty"`
	Value     string            `json:"value,omitempty"`
	Op        string            `json:"op,omitempty"`
	Rule      string            `json:"rule,omitempty"`
	Scope     string            `json:"scope,omitempty"`
	Var       string            `json:"var,omitempty"`
	IndexVar  string            `json:"index,omitempty"`
	From      string            `json:"from,omitempty"`
	To        string            `json:"to,omitempty"`
	Step      string            `json:"step,omitempty"`
	Items     string            `json:"items,omitempty"`
	Body      []json.RawMessage `json:"body,omitempty"`
	Branches  []rawBranch       `json:"branches,omitempty"`
	Else      []json.RawMessage `json:"else,omitempty"`
	Params    []rawParam        `json:"params,omitempty"`
	Backend   string            `json:"backend,omitempty"`
	Payload   string            `json:"payload,omitempty"`
	QueryArgs map[string]string `json:"args,omitempty"`
	Options   *rawOptions       `json:"options,omitempty"`
}

type rawBranch struct {
	Condition string            `json:"condition"`
	Body      []json.RawMessage `json:"body,omitempty"`
}

type rawParam struct {
	Name    string `json:"name"`
	Default string `json:"default,omitempty"`
}

type rawOptions struct {
	MaxResults   int               `json:"max_results,omitempty"`
	MinScore     float64           `json:"min_score,omitempty"`
	Cache        bool              `json:"cache,omitempty"`
	CacheTTLSecs int               `json:"cache_ttl,omitempty"`
	TimeoutSecs  int               `json:"timeout,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// DecodeTree decodes a JSON-encoded node tree and validates it
func DecodeTree(data []byte) (Node, error) {
	node, err := decodeNode(data)
	if err != nil {
		return nil, err
	}
	if err := node.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tree: %w", err)
	}
	return node, nil
}

// decodeNode decodes a single node and its children recursively
func decodeNode(data []byte) (Node, error) {
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode node: %w", err)
	}

	pos := Position{Line: raw.Line, Column: raw.Column}

	switch raw.Kind {
	case "text":
		return &TextNode{Text: raw.Text, Pos: pos}, nil

	case "composite":
		children, err := decodeNodes(raw.Children)
		if err != nil {
			return nil, err
		}
		return &CompositeNode{Children: children, Pos: pos}, nil

	case "assign":
		op, err := ParseAssignOp(raw.Op)
		if err != nil {
			return nil, err
		}
		return &AssignNode{
			Name:      raw.Name,
			Value:     raw.Value,
			Op:        op,
			Rule:      raw.Rule,
			ScopeHint: raw.Scope,
			Pos:       pos,
		}, nil

	case "loop":
		body, err := decodeNodes(raw.Body)
		if err != nil {
			return nil, err
		}
		return &LoopNode{
			Var:      raw.Var,
			IndexVar: raw.IndexVar,
			From:     raw.From,
			To:       raw.To,
			Step:     raw.Step,
			Items:    raw.Items,
			Body:     body,
			Pos:      pos,
		}, nil

	case "conditional":
		branches := make([]Branch, 0, len(raw.Branches))
		for _, rb := range raw.Branches {
			body, err := decodeNodes(rb.Body)
			if err != nil {
				return nil, err
			}
			branches = append(branches, Branch{Condition: rb.Condition, Body: body})
		}
		elseBody, err := decodeNodes(raw.Else)
		if err != nil {
			return nil, err
		}
		return &ConditionalNode{Branches: branches, Else: elseBody, Pos: pos}, nil

	case "function":
		body, err := decodeNodes(raw.Body)
		if err != nil {
			return nil, err
		}
		params := make([]Param, 0, len(raw.Params))
		for _, rp := range raw.Params {
			params = append(params, Param{Name: rp.Name, Default: rp.Default})
		}
		return &FunctionDefNode{Name: raw.Name, Params: params, Body: body, Pos: pos}, nil

	case "return":
		return &ReturnNode{Value: raw.Value, Pos: pos}, nil

	case "break":
		return &BreakNode{Pos: pos}, nil

	case "next":
		return &NextNode{Pos: pos}, nil

	case "query":
		node := &QueryNode{
			Name:    raw.Name,
			Backend: raw.Backend,
			Payload: raw.Payload,
			Params:  raw.QueryArgs,
			Pos:     pos,
		}
		if raw.Options != nil {
			node.Options = QueryOptions{
				MaxResults:   raw.Options.MaxResults,
				MinScore:     raw.Options.MinScore,
				Cache:        raw.Options.Cache,
				CacheTTLSecs: raw.Options.CacheTTLSecs,
				TimeoutSecs:  raw.Options.TimeoutSecs,
				Extra:        raw.Options.Extra,
			}
		}
		return node, nil

	default:
		return nil, fmt.Errorf("unknown node kind: %q", raw.Kind)
	}
}

// decodeNodes decodes an ordered list of child nodes
func decodeNodes(raws []json.RawMessage) ([]Node, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	nodes := make([]Node, 0, len(raws))
	for _, r := range raws {
		node, err := decodeNode(r)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
