// File: cache.go
// Title: Compiled Expression Cache
// Description: LRU cache over compiled expression programs keyed by source
//              string. Repeated evaluation of the same expression skips
//              lexing and parsing entirely. Thread-safe.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial LRU cache implementation

package expr

import (
	"container/list"
	"sync"

	"github.com/formalang/forma/foundation/core/log"
)

// DefaultCacheCapacity is used when Options.Capacity is zero or negative
const DefaultCacheCapacity = 512

// Options configures a Cache
type Options struct {
	// Capacity is the maximum number of compiled programs kept resident.
	// When exceeded, the least recently used entry is evicted.
	Capacity int

	// Logger for cache diagnostics (optional)
	Logger *log.Logger
}

// Stats is a point-in-time snapshot of cache effectiveness counters
type Stats struct {
	Entries   int     `json:"entries"`
	Capacity  int     `json:"capacity"`
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

// Cache compiles expressions on demand and keeps the hot set resident.
// Programs are immutable, so a cached program may be shared between
// concurrent evaluations without copying.
type Cache struct {
	mu        sync.Mutex
	capacity  int
	entries   map[string]*list.Element
	order     *list.List // front = most recently used
	hits      uint64
	misses    uint64
	evictions uint64
	logger    *log.Logger
}

type cacheEntry struct {
	source  string
	program *Program
}

// NewCache creates an expression cache with the given options
func NewCache(opts Options) *Cache {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefault()
	}

	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		logger:   logger.WithName("expr.cache"),
	}
}

// Get returns the compiled program for source, compiling and caching it on
// a miss. Compile failures are returned and never cached.
func (c *Cache) Get(source string) (*Program, error) {
	c.mu.Lock()
	if elem, ok := c.entries[source]; ok {
		c.order.MoveToFront(elem)
		c.hits++
		program := elem.Value.(*cacheEntry).program
		c.mu.Unlock()
		return program, nil
	}
	c.misses++
	c.mu.Unlock()

	// Compile outside the lock; compilation is pure and a duplicate compile
	// under contention is cheaper than serializing all callers.
	program, err := Compile(source)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[source]; ok {
		// Another goroutine compiled the same source first
		c.order.MoveToFront(elem)
		return elem.Value.(*cacheEntry).program, nil
	}

	elem := c.order.PushFront(&cacheEntry{source: source, program: program})
	c.entries[source] = elem

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		evicted := oldest.Value.(*cacheEntry)
		c.order.Remove(oldest)
		delete(c.entries, evicted.source)
		c.evictions++
		c.logger.Trace("evicted compiled expression", log.Fields{
			"source": evicted.source,
		})
	}

	return program, nil
}

// Evaluate compiles (or reuses) and runs an expression against the bindings
func (c *Cache) Evaluate(source string, r Resolver) (interface{}, error) {
	program, err := c.Get(source)
	if err != nil {
		return nil, err
	}
	return program.Run(r)
}

// EvaluateCondition evaluates an expression and coerces the result to a
// boolean using the standard truthiness rules
func (c *Cache) EvaluateCondition(source string, r Resolver) (bool, error) {
	value, err := c.Evaluate(source, r)
	if err != nil {
		return false, err
	}
	return Truthy(value)
}

// Precompile compiles and caches an expression without evaluating it.
// Useful for validating expressions ahead of execution.
func (c *Cache) Precompile(source string) error {
	_, err := c.Get(source)
	return err
}

// Invalidate removes a single cached program
func (c *Cache) Invalidate(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[source]; ok {
		c.order.Remove(elem)
		delete(c.entries, source)
	}
}

// Clear drops all cached programs, keeping the counters
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Stats returns a snapshot of the cache counters
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}

	return Stats{
		Entries:   c.order.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRate:   rate,
	}
}
