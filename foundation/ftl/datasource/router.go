// File: router.go
// Title: Datasource Router
// Description: Dispatches query descriptors to registered backend adapters
//              and applies the cross-cutting concerns uniformly: per-call
//              timeout, bounded retry on transient failure, elapsed-time
//              measurement, and an optional TTL result cache. Route always
//              returns exactly one non-nil result.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial router implementation

package datasource

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	formaerror "github.com/formalang/forma/foundation/core/error"
	"github.com/formalang/forma/foundation/core/log"
)

// Router defaults, overridable per call through QueryOptions
const (
	DefaultTimeout  = 30 * time.Second
	DefaultRetries  = 2
	DefaultBackoff  = 200 * time.Millisecond
	DefaultCacheTTL = 60 * time.Second
)

// Options configures a Router
type Options struct {
	// DefaultTimeout bounds each adapter call (default 30s)
	DefaultTimeout time.Duration

	// MaxRetries is the retry budget for transient failures (default 2)
	MaxRetries int

	// RetryBackoff is the base delay between attempts, doubled per retry
	RetryBackoff time.Duration

	// CacheTTL is the default lifetime of cached results (default 60s)
	CacheTTL time.Duration

	// Logger for router diagnostics (optional)
	Logger *log.Logger
}

// Router holds the adapter registry and the shared result cache
type Router struct {
	mu       sync.RWMutex
	adapters map[string]Adapter

	cacheMu sync.Mutex
	cache   map[string]cachedResult

	timeout  time.Duration
	retries  int
	backoff  time.Duration
	cacheTTL time.Duration
	logger   *log.Logger
}

type cachedResult struct {
	result  *QueryResult
	expires time.Time
}

// NewRouter creates a router with no adapters registered
func NewRouter(opts Options) *Router {
	timeout := opts.DefaultTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retries := opts.MaxRetries
	if retries <= 0 {
		retries = DefaultRetries
	}
	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefault()
	}

	return &Router{
		adapters: make(map[string]Adapter),
		cache:    make(map[string]cachedResult),
		timeout:  timeout,
		retries:  retries,
		backoff:  backoff,
		cacheTTL: cacheTTL,
		logger:   logger.WithName("datasource.router"),
	}
}

// Register adds an adapter for its kind. Registering the same kind twice
// is a configuration error.
func (r *Router) Register(adapter Adapter) error {
	if adapter == nil || adapter.Kind() == "" {
		return formaerror.New("adapter requires a kind").
			WithCode(formaerror.CodeConfigError).
			WithOperation("datasource.Register")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kind := strings.ToLower(adapter.Kind())
	if _, exists := r.adapters[kind]; exists {
		return formaerror.Newf("adapter for kind %q already registered", kind).
			WithCode(formaerror.CodeConfigError).
			WithOperation("datasource.Register")
	}
	r.adapters[kind] = adapter

	r.logger.Info("registered datasource adapter", log.Fields{
		"kind": kind,
	})
	return nil
}

// Kinds returns the registered kind strings, sorted
func (r *Router) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.adapters))
	for kind := range r.adapters {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Route dispatches a descriptor to its adapter. It never returns nil: every
// failure, unknown kind included, is reported inside the result.
func (r *Router) Route(ctx context.Context, desc *QueryDescriptor) *QueryResult {
	start := time.Now()

	if desc == nil {
		return finish(Failure(string(formaerror.CodeInvalidInput), "query descriptor is nil"), start)
	}

	r.mu.RLock()
	adapter, ok := r.adapters[strings.ToLower(desc.Kind)]
	r.mu.RUnlock()
	if !ok {
		r.logger.Warn("no adapter for query kind", log.Fields{
			"kind": desc.Kind,
		})
		return finish(Failure(string(formaerror.CodeConfigError),
			fmt.Sprintf("no datasource adapter registered for kind %q", desc.Kind)), start)
	}

	var key string
	if desc.Options.Cache {
		key = cacheKey(desc)
		if cached, ok := r.lookupCached(key); ok {
			copied := *cached
			copied.Cached = true
			return finish(&copied, start)
		}
	}

	result := r.execute(ctx, adapter, desc)

	if desc.Options.Cache && result.Success {
		ttl := desc.Options.CacheTTL
		if ttl <= 0 {
			ttl = r.cacheTTL
		}
		r.storeCached(key, result, ttl)
	}

	return finish(result, start)
}

// execute runs the adapter with timeout and bounded retry on transient
// failures
func (r *Router) execute(ctx context.Context, adapter Adapter, desc *QueryDescriptor) *QueryResult {
	timeout := desc.Options.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	retries := desc.Options.MaxRetries
	if retries <= 0 {
		retries = r.retries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			delay := r.backoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return Failure(string(formaerror.CodeBackendTimeout), ctx.Err().Error())
			case <-time.After(delay):
			}
			r.logger.Debug("retrying query", log.Fields{
				"kind":    desc.Kind,
				"attempt": attempt,
			})
		}

		callCtx, cancel := context.WithTimeout(ctx, timeout)
		result, err := adapter.Execute(callCtx, desc)
		cancel()

		if err == nil {
			if result == nil {
				return Failure(string(formaerror.CodeBackendError),
					"adapter returned no result")
			}
			return result
		}

		lastErr = err
		if !retryable(err) {
			break
		}
	}

	code := formaerror.CodeBackendError
	if formaerror.IsTransient(lastErr) || isDeadline(lastErr) {
		code = formaerror.CodeBackendTimeout
	}
	return Failure(string(code), lastErr.Error())
}

// lookupCached returns a fresh cached result for key
func (r *Router) lookupCached(key string) (*QueryResult, bool) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	entry, ok := r.cache[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		delete(r.cache, key)
		return nil, false
	}
	return entry.result, true
}

// storeCached keeps a successful result for ttl
func (r *Router) storeCached(key string, result *QueryResult, ttl time.Duration) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache[key] = cachedResult{
		result:  result,
		expires: time.Now().Add(ttl),
	}
}

// InvalidateCache drops all cached results
func (r *Router) InvalidateCache() {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]cachedResult)
}

// CachedResults returns the number of resident cached results
func (r *Router) CachedResults() int {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	return len(r.cache)
}

// cacheKey derives a stable key from kind, payload, and sorted parameters
func cacheKey(desc *QueryDescriptor) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(desc.Kind)))
	h.Write([]byte{0})
	h.Write([]byte(desc.Payload))

	names := make([]string, 0, len(desc.Params))
	for name := range desc.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		h.Write([]byte{0})
		fmt.Fprintf(h, "%s=%v", name, desc.Params[name])
	}

	return hex.EncodeToString(h.Sum(nil))
}

// retryable reports whether an adapter error is worth another attempt
func retryable(err error) bool {
	return formaerror.IsTransient(err) || isDeadline(err)
}

// isDeadline reports a context timeout or cancellation
func isDeadline(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// finish stamps the elapsed time on a result
func finish(result *QueryResult, start time.Time) *QueryResult {
	result.ExecutionTimeMs = time.Since(start).Milliseconds()
	return result
}
