// File: sqlds_test.go
// Title: SQL Adapter Tests
// Description: Tests against an in-memory SQLite database: row queries,
//              DML row counts, named parameters, and result limits.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial tests

package sqlds

import (
	"context"
	"testing"

	"github.com/formalang/forma/foundation/ftl/datasource"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	adapter, err := New(Options{Path: ":memory:"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { adapter.Close() })

	seed := []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, age INTEGER)`,
		`INSERT INTO users (name, age) VALUES ('alice', 30), ('bob', 25), ('carol', 35)`,
	}
	for _, stmt := range seed {
		if _, err := adapter.Execute(context.Background(), &datasource.QueryDescriptor{
			Kind: KindSQL, Payload: stmt,
		}); err != nil {
			t.Fatalf("seed %q failed: %v", stmt, err)
		}
	}
	return adapter
}

func TestSelectReturnsRecords(t *testing.T) {
	adapter := newTestAdapter(t)

	result, err := adapter.Execute(context.Background(), &datasource.QueryDescriptor{
		Kind:    KindSQL,
		Payload: "SELECT name, age FROM users ORDER BY age",
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success")
	}
	if len(result.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(result.Records))
	}
	if result.Records[0]["name"] != "bob" || result.Records[0]["age"] != 25.0 {
		t.Errorf("first record = %#v", result.Records[0])
	}
}

func TestNamedParameters(t *testing.T) {
	adapter := newTestAdapter(t)

	result, err := adapter.Execute(context.Background(), &datasource.QueryDescriptor{
		Kind:    KindSQL,
		Payload: "SELECT name FROM users WHERE age > :min_age ORDER BY name",
		Params:  map[string]interface{}{"min_age": 28},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(result.Records))
	}
	if result.Records[0]["name"] != "alice" || result.Records[1]["name"] != "carol" {
		t.Errorf("records = %#v", result.Records)
	}
}

func TestDMLReportsAffectedRows(t *testing.T) {
	adapter := newTestAdapter(t)

	result, err := adapter.Execute(context.Background(), &datasource.QueryDescriptor{
		Kind:    KindSQL,
		Payload: "UPDATE users SET age = age + 1 WHERE age < :cutoff",
		Params:  map[string]interface{}{"cutoff": 31},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Data != 2.0 {
		t.Errorf("affected = %v, want 2", result.Data)
	}
}

func TestMaxResultsLimit(t *testing.T) {
	adapter := newTestAdapter(t)

	result, err := adapter.Execute(context.Background(), &datasource.QueryDescriptor{
		Kind:    KindSQL,
		Payload: "SELECT name FROM users",
		Options: datasource.QueryOptions{MaxResults: 2},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(result.Records) != 2 {
		t.Errorf("expected 2 records, got %d", len(result.Records))
	}
}

func TestInvalidStatement(t *testing.T) {
	adapter := newTestAdapter(t)

	_, err := adapter.Execute(context.Background(), &datasource.QueryDescriptor{
		Kind:    KindSQL,
		Payload: "SELECT FROM WHERE",
	})
	if err == nil {
		t.Fatal("expected error for invalid SQL")
	}
}

func TestEmptyResultSet(t *testing.T) {
	adapter := newTestAdapter(t)

	result, err := adapter.Execute(context.Background(), &datasource.QueryDescriptor{
		Kind:    KindSQL,
		Payload: "SELECT name FROM users WHERE age > :min_age",
		Params:  map[string]interface{}{"min_age": 100},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success {
		t.Error("empty result set is still a success")
	}
	if len(result.Records) != 0 {
		t.Errorf("expected 0 records, got %d", len(result.Records))
	}
}
