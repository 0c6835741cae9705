// File: kvds.go
// Title: Key-Value Datasource Adapter
// Description: An in-memory key-value store with per-entry TTL, exposed as
//              a datasource backend. The payload is the key; the operation
//              (GET, SET, DELETE, EXISTS) comes from the extra options. A
//              GET on a missing or expired key succeeds with nil data.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial key-value adapter

package kvds

import (
	"context"
	"strings"
	"sync"
	"time"

	formaerror "github.com/formalang/forma/foundation/core/error"
	"github.com/formalang/forma/foundation/core/log"
	"github.com/formalang/forma/foundation/ftl/datasource"
	"github.com/formalang/forma/foundation/ftl/expr"
)

// KindCache is the backend kind string this adapter serves
const KindCache = "cache"

// Options configures an Adapter
type Options struct {
	// DefaultTTL applies to SET operations without an explicit ttl
	// parameter; zero means entries never expire
	DefaultTTL time.Duration

	// Logger for adapter diagnostics (optional)
	Logger *log.Logger
}

// Adapter is an in-memory TTL key-value store
type Adapter struct {
	mu         sync.RWMutex
	items      map[string]item
	defaultTTL time.Duration
	logger     *log.Logger
}

type item struct {
	value   interface{}
	expires time.Time // zero means no expiry
}

// New creates an empty key-value adapter
func New(opts Options) *Adapter {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefault()
	}

	return &Adapter{
		items:      make(map[string]item),
		defaultTTL: opts.DefaultTTL,
		logger:     logger.WithName("datasource.kv"),
	}
}

// Kind implements datasource.Adapter
func (a *Adapter) Kind() string {
	return KindCache
}

// Execute dispatches the operation named in the extra options. The key is
// the descriptor payload.
func (a *Adapter) Execute(_ context.Context, desc *datasource.QueryDescriptor) (*datasource.QueryResult, error) {
	key := strings.TrimSpace(desc.Payload)
	if key == "" {
		return nil, formaerror.New("cache key is empty").
			WithCode(formaerror.CodeInvalidInput).
			WithOperation("kvds.Execute")
	}

	op := "GET"
	if desc.Options.Extra != nil {
		if declared, ok := desc.Options.Extra["op"]; ok {
			op = strings.ToUpper(strings.TrimSpace(declared))
		}
	}
	// The op may also arrive as an evaluated parameter
	if declared, ok := desc.Params["op"].(string); ok && declared != "" {
		op = strings.ToUpper(strings.TrimSpace(declared))
	}

	switch op {
	case "GET":
		value, _ := a.get(key)
		return &datasource.QueryResult{Success: true, Data: value}, nil

	case "EXISTS":
		_, found := a.get(key)
		return &datasource.QueryResult{Success: true, Data: found}, nil

	case "SET":
		value, ok := desc.Params["value"]
		if !ok {
			return nil, formaerror.New("cache SET requires a value parameter").
				WithCode(formaerror.CodeInvalidInput).
				WithOperation("kvds.Execute")
		}
		a.set(key, value, a.entryTTL(desc))
		return &datasource.QueryResult{Success: true, Data: value}, nil

	case "DELETE":
		existed := a.delete(key)
		return &datasource.QueryResult{Success: true, Data: existed}, nil

	default:
		return nil, formaerror.Newf("unknown cache operation %q", op).
			WithCode(formaerror.CodeInvalidInput).
			WithOperation("kvds.Execute")
	}
}

// entryTTL resolves the TTL of a SET from the ttl parameter (seconds) or
// the adapter default
func (a *Adapter) entryTTL(desc *datasource.QueryDescriptor) time.Duration {
	if raw, ok := desc.Params["ttl"]; ok {
		if secs, ok := expr.ToNumber(raw); ok && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return a.defaultTTL
}

// get returns the live value for key, expiring lazily
func (a *Adapter) get(key string) (interface{}, bool) {
	a.mu.RLock()
	entry, ok := a.items[key]
	a.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if !entry.expires.IsZero() && time.Now().After(entry.expires) {
		a.mu.Lock()
		// Re-check under the write lock before dropping
		if current, still := a.items[key]; still && !current.expires.IsZero() && time.Now().After(current.expires) {
			delete(a.items, key)
		}
		a.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

// set stores a value with an optional TTL
func (a *Adapter) set(key string, value interface{}, ttl time.Duration) {
	entry := item{value: value}
	if ttl > 0 {
		entry.expires = time.Now().Add(ttl)
	}

	a.mu.Lock()
	a.items[key] = entry
	a.mu.Unlock()
}

// delete removes a key and reports whether it existed
func (a *Adapter) delete(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, existed := a.items[key]
	delete(a.items, key)
	return existed
}

// Len returns the number of stored entries, expired ones included
func (a *Adapter) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return len(a.items)
}
