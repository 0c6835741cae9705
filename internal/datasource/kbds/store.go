// File: store.go
// Title: Knowledge-Base Vector Store
// Description: In-memory document store with vector search: documents are
//              embedded on insert, queries rank by cosine similarity and
//              return the top K above a minimum score.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial vector store

package kbds

import (
	"math"
	"sort"
	"sync"

	formaerror "github.com/formalang/forma/foundation/core/error"
	"github.com/formalang/forma/foundation/core/log"
)

// Document is one stored knowledge-base entry
type Document struct {
	ID       string
	Content  string
	Metadata map[string]interface{}

	embedding []float32
}

// Match is one ranked search result
type Match struct {
	Document Document
	Score    float64
}

// StoreOptions configures a Store
type StoreOptions struct {
	// Embedder maps text to vectors (default: the built-in hash embedder)
	Embedder Embedder

	// Logger for store diagnostics (optional)
	Logger *log.Logger
}

// Store holds embedded documents and answers similarity queries
type Store struct {
	mu       sync.RWMutex
	docs     map[string]Document
	embedder Embedder
	logger   *log.Logger
}

// NewStore creates an empty store
func NewStore(opts StoreOptions) *Store {
	embedder := opts.Embedder
	if embedder == nil {
		embedder = NewHashEmbedder()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefault()
	}

	return &Store{
		docs:     make(map[string]Document),
		embedder: embedder,
		logger:   logger.WithName("kb.store"),
	}
}

// Add embeds and stores a document, replacing any document with the same ID
func (s *Store) Add(doc Document) error {
	if doc.ID == "" || doc.Content == "" {
		return formaerror.New("document requires an ID and content").
			WithCode(formaerror.CodeInvalidInput).
			WithOperation("kbds.Add")
	}

	embedding, err := s.embedder.Embed(doc.Content)
	if err != nil {
		return formaerror.Wrap(err, "failed to embed document").
			WithCode(formaerror.CodeBackendError).
			WithOperation("kbds.Add").
			WithDetail("id", doc.ID)
	}
	doc.embedding = embedding

	s.mu.Lock()
	s.docs[doc.ID] = doc
	s.mu.Unlock()
	return nil
}

// Delete removes a document and reports whether it existed
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.docs[id]
	delete(s.docs, id)
	return existed
}

// Len returns the number of stored documents
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.docs)
}

// Search returns up to topK documents most similar to the query, filtered
// by minScore, ordered by descending score
func (s *Store) Search(query string, topK int, minScore float64) ([]Match, error) {
	if topK <= 0 {
		topK = 5
	}

	queryVec, err := s.embedder.Embed(query)
	if err != nil {
		return nil, formaerror.Wrap(err, "failed to embed query").
			WithCode(formaerror.CodeBackendError).
			WithOperation("kbds.Search")
	}

	s.mu.RLock()
	matches := make([]Match, 0, len(s.docs))
	for _, doc := range s.docs {
		score := cosine(queryVec, doc.embedding)
		if score >= minScore && score > 0 {
			matches = append(matches, Match{Document: doc, Score: score})
		}
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Document.ID < matches[j].Document.ID
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// cosine computes the cosine similarity of two vectors
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
