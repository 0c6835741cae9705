// File: kbds_test.go
// Title: Knowledge-Base Adapter Tests
// Description: Tests for the hash embedder, cosine ranking with top-K and
//              minimum-score filtering, and the adapter's record shape.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial tests

package kbds

import (
	"context"
	"testing"

	"github.com/formalang/forma/foundation/ftl/datasource"
)

func seedStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(StoreOptions{})

	docs := []Document{
		{ID: "go", Content: "go is a compiled programming language with goroutines and channels"},
		{ID: "py", Content: "python is an interpreted programming language with dynamic typing"},
		{ID: "tea", Content: "green tea is brewed from unoxidized leaves", Metadata: map[string]interface{}{"topic": "beverage"}},
	}
	for _, doc := range docs {
		if err := store.Add(doc); err != nil {
			t.Fatalf("Add(%s) failed: %v", doc.ID, err)
		}
	}
	return store
}

func TestHashEmbedderDeterministic(t *testing.T) {
	embedder := NewHashEmbedder()

	a, err := embedder.Embed("hello world")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	b, err := embedder.Embed("hello world")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(a) != embedder.Dimension() {
		t.Fatalf("dimension = %d, want %d", len(a), embedder.Dimension())
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("embedding must be deterministic")
		}
	}
}

func TestSearchRanksByRelevance(t *testing.T) {
	store := seedStore(t)

	matches, err := store.Search("compiled language goroutines", 10, 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected matches")
	}
	if matches[0].Document.ID != "go" {
		t.Errorf("top match = %s, want go", matches[0].Document.ID)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Error("matches must be ordered by descending score")
		}
	}
}

func TestSearchTopK(t *testing.T) {
	store := seedStore(t)

	matches, err := store.Search("programming language", 1, 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected 1 match, got %d", len(matches))
	}
}

func TestSearchMinScore(t *testing.T) {
	store := seedStore(t)

	// A near-perfect threshold excludes loosely related documents
	matches, err := store.Search("programming language", 10, 0.99)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches above 0.99, got %d", len(matches))
	}
}

func TestAdapterRecordShape(t *testing.T) {
	store := seedStore(t)
	adapter, err := New(Options{Store: store})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := adapter.Execute(context.Background(), &datasource.QueryDescriptor{
		Kind:    KindKnowledgeBase,
		Payload: "green tea leaves",
		Options: datasource.QueryOptions{MaxResults: 3},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success || len(result.Records) == 0 {
		t.Fatalf("result = %#v", result)
	}

	top := result.Records[0]
	if top["id"] != "tea" {
		t.Errorf("top id = %v, want tea", top["id"])
	}
	if _, ok := top["score"].(float64); !ok {
		t.Errorf("score missing or wrong type: %#v", top["score"])
	}
	if top["topic"] != "beverage" {
		t.Errorf("metadata must flatten into the record, got %#v", top)
	}
}

func TestDeleteDocument(t *testing.T) {
	store := seedStore(t)

	if !store.Delete("py") {
		t.Error("expected existing document")
	}
	if store.Delete("py") {
		t.Error("second delete must report absent")
	}
	if store.Len() != 2 {
		t.Errorf("Len = %d, want 2", store.Len())
	}
}
