// File: embedder.go
// Title: Text Embedding Interface
// Description: Abstracts the embedding model behind the knowledge-base
//              store, with a deterministic token-hash implementation as the
//              default so retrieval works without an embedding service.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial embedder interface and hash embedder

package kbds

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Embedder maps text to a fixed-size vector. Implementations must be safe
// for concurrent use.
type Embedder interface {
	// Embed returns the vector for the given text
	Embed(text string) ([]float32, error)

	// Dimension returns the vector size this embedder produces
	Dimension() int
}

// hashEmbedderDim is the vector size of the built-in embedder
const hashEmbedderDim = 256

// HashEmbedder is a deterministic bag-of-tokens embedder: each token hashes
// into a bucket, counts accumulate, and the vector is L2-normalized. It has
// no semantic understanding but gives stable, useful lexical similarity for
// tests and offline use.
type HashEmbedder struct{}

// NewHashEmbedder creates the built-in deterministic embedder
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{}
}

// Dimension implements Embedder
func (e *HashEmbedder) Dimension() int {
	return hashEmbedderDim
}

// Embed implements Embedder
func (e *HashEmbedder) Embed(text string) ([]float32, error) {
	vector := make([]float32, hashEmbedderDim)

	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vector[h.Sum32()%hashEmbedderDim]++
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}
	return vector, nil
}

// tokenize lower-cases and splits on non-alphanumeric runes
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
