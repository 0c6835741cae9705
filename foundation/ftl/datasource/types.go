// File: types.go
// Title: Datasource Query Contract
// Description: The uniform request and result shapes shared by every
//              datasource backend. Whatever the backend returns (SQL rows,
//              cache values, generated text, ranked chunks), callers see
//              one QueryResult shape with success, payload, error, timing,
//              and cache metadata.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial query contract

package datasource

import (
	"context"
	"time"
)

// QueryDescriptor is the backend-independent description of one query
type QueryDescriptor struct {
	// Kind selects the adapter: "sql", "cache", "http-rest", "llm",
	// "knowledge-base", or any registered custom kind
	Kind string

	// Payload is the raw query text: a SQL statement, a cache key, a URL,
	// a prompt, or a search query depending on the kind
	Payload string

	// Params are bound parameters, interpreted per kind
	Params map[string]interface{}

	// Options tune the call
	Options QueryOptions
}

// QueryOptions carries the per-call knobs
type QueryOptions struct {
	// MaxResults limits result counts where the kind supports it
	MaxResults int

	// MinScore filters ranked results below this relevance score
	MinScore float64

	// Cache enables the router's TTL result cache for this call
	Cache bool

	// CacheTTL overrides the router's default result TTL
	CacheTTL time.Duration

	// Timeout overrides the router's default per-call timeout
	Timeout time.Duration

	// MaxRetries overrides the router's default retry budget
	MaxRetries int

	// Extra holds kind-specific string options (HTTP method, cache op, ...)
	Extra map[string]string
}

// QueryError describes a failed query inside a result
type QueryError struct {
	// Message is the human-readable failure description
	Message string `json:"message"`

	// Kind is the error code string, e.g. "BACKEND_TIMEOUT"
	Kind string `json:"kind"`
}

// QueryResult is the normalized outcome of one routed query. Exactly one
// result is produced per Route call, failure included.
type QueryResult struct {
	// Success is false when Error is populated
	Success bool `json:"success"`

	// Records holds row-shaped payloads (SQL rows, ranked chunks)
	Records []map[string]interface{} `json:"records,omitempty"`

	// Data holds scalar or structured payloads (cache values, JSON bodies)
	Data interface{} `json:"data,omitempty"`

	// Text holds text payloads (generated text)
	Text string `json:"text,omitempty"`

	// Error is set on failure
	Error *QueryError `json:"error,omitempty"`

	// ExecutionTimeMs is the elapsed wall time of the call
	ExecutionTimeMs int64 `json:"execution_time_ms"`

	// Cached reports whether the result came from the router's result cache
	Cached bool `json:"cached"`
}

// Payload returns the kind-dependent primary payload of the result
func (r *QueryResult) Payload() interface{} {
	switch {
	case r.Records != nil:
		return r.Records
	case r.Text != "":
		return r.Text
	default:
		return r.Data
	}
}

// Failure builds a failed result with the given error kind and message
func Failure(kind, message string) *QueryResult {
	return &QueryResult{
		Success: false,
		Error:   &QueryError{Message: message, Kind: kind},
	}
}

// Adapter executes queries of one backend kind. Implementations must be
// safe for concurrent use.
type Adapter interface {
	// Kind returns the backend kind string this adapter serves
	Kind() string

	// Execute runs the query. A backend-level failure may be reported
	// either as an error or as a populated result with Success false;
	// the router normalizes both into a failure result.
	Execute(ctx context.Context, desc *QueryDescriptor) (*QueryResult, error)
}
