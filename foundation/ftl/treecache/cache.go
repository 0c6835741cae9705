// File: cache.go
// Title: Parsed-Tree Cache
// Description: Caches parsed node trees keyed by source path. Staleness is
//              detected through the file's modification time and size; in
//              strict mode a SHA-256 content hash is compared as well.
//              Invalidation cascades through registered dependencies, and
//              dependency registration rejects cycles.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial tree cache implementation

package treecache

import (
	"crypto/sha256"
	"os"
	"sync"
	"time"

	formaerror "github.com/formalang/forma/foundation/core/error"
	"github.com/formalang/forma/foundation/core/log"
	"github.com/formalang/forma/foundation/ftl/ast"
)

// ParseFunc produces the node tree for a source identity. The external
// parser is supplied through this hook.
type ParseFunc func(identity string) (ast.Node, error)

// Options configures a Cache
type Options struct {
	// Strict enables content hashing: an entry is stale when its SHA-256
	// differs, even if modification time and size are unchanged
	Strict bool

	// Logger for cache diagnostics (optional)
	Logger *log.Logger
}

// Stats is a snapshot of the cache counters
type Stats struct {
	Entries       int    `json:"entries"`
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Invalidations uint64 `json:"invalidations"`
}

// Cache stores parsed trees with staleness checking and cascading
// invalidation. Thread-safe.
type Cache struct {
	mu            sync.Mutex
	entries       map[string]*entry
	dependents    map[string]map[string]bool // identity -> identities to invalidate with it
	strict        bool
	hits          uint64
	misses        uint64
	invalidations uint64
	logger        *log.Logger
}

type entry struct {
	root    ast.Node
	modTime time.Time
	size    int64
	hash    [sha256.Size]byte
	hashed  bool
}

// NewCache creates an empty tree cache
func NewCache(opts Options) *Cache {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefault()
	}

	return &Cache{
		entries:    make(map[string]*entry),
		dependents: make(map[string]map[string]bool),
		strict:     opts.Strict,
		logger:     logger.WithName("treecache"),
	}
}

// GetOrParse returns the cached tree for identity if its signature is
// unchanged, otherwise invokes parse and stores the fresh result
func (c *Cache) GetOrParse(identity string, parse ParseFunc) (ast.Node, error) {
	info, err := os.Stat(identity)
	if err != nil {
		return nil, formaerror.Wrap(err, "cannot stat source").
			WithCode(formaerror.CodeNotFound).
			WithOperation("treecache.GetOrParse").
			WithDetail("identity", identity)
	}

	c.mu.Lock()
	cached, ok := c.entries[identity]
	if ok && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		if !c.strict {
			c.hits++
			root := cached.root
			c.mu.Unlock()
			return root, nil
		}
		// Strict mode re-hashes the content outside the lock
		hash := cached.hash
		hashed := cached.hashed
		c.mu.Unlock()

		current, err := hashFile(identity)
		if err == nil && hashed && current == hash {
			c.mu.Lock()
			c.hits++
			c.mu.Unlock()
			return cached.root, nil
		}
		c.mu.Lock()
	}
	c.misses++
	c.mu.Unlock()

	root, err := parse(identity)
	if err != nil {
		return nil, formaerror.Wrap(err, "parse failed").
			WithOperation("treecache.GetOrParse").
			WithDetail("identity", identity)
	}

	fresh := &entry{
		root:    root,
		modTime: info.ModTime(),
		size:    info.Size(),
	}
	if c.strict {
		if hash, err := hashFile(identity); err == nil {
			fresh.hash = hash
			fresh.hashed = true
		}
	}

	c.mu.Lock()
	c.entries[identity] = fresh
	c.mu.Unlock()

	c.logger.Debug("parsed and cached tree", log.Fields{
		"identity": identity,
		"size":     info.Size(),
	})
	return root, nil
}

// Invalidate removes the entry for identity and, transitively, every entry
// registered as depending on it
func (c *Cache) Invalidate(identity string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	visited := make(map[string]bool)
	c.invalidateLocked(identity, visited)
}

func (c *Cache) invalidateLocked(identity string, visited map[string]bool) {
	if visited[identity] {
		return
	}
	visited[identity] = true

	if _, ok := c.entries[identity]; ok {
		delete(c.entries, identity)
		c.invalidations++
	}

	for dependent := range c.dependents[identity] {
		c.invalidateLocked(dependent, visited)
	}
}

// RegisterDependency records that invalidating child must also invalidate
// parent (parent includes or imports child). Registrations that would close
// a cycle are rejected.
func (c *Cache) RegisterDependency(child, parent string) error {
	if child == parent {
		return formaerror.Newf("source %q cannot depend on itself", child).
			WithCode(formaerror.CodeConfigError).
			WithOperation("treecache.RegisterDependency")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// The new edge child->parent closes a cycle if child is already
	// reachable from parent through existing edges
	if c.reachableLocked(parent, child, make(map[string]bool)) {
		return formaerror.Newf("dependency from %q to %q would create a cycle", child, parent).
			WithCode(formaerror.CodeConfigError).
			WithOperation("treecache.RegisterDependency")
	}

	if c.dependents[child] == nil {
		c.dependents[child] = make(map[string]bool)
	}
	c.dependents[child][parent] = true
	return nil
}

// reachableLocked reports whether target is reachable from start through
// the dependents graph
func (c *Cache) reachableLocked(start, target string, visited map[string]bool) bool {
	if start == target {
		return true
	}
	if visited[start] {
		return false
	}
	visited[start] = true

	for next := range c.dependents[start] {
		if c.reachableLocked(next, target, visited) {
			return true
		}
	}
	return false
}

// Has reports whether a tree is resident for identity
func (c *Cache) Has(identity string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[identity]
	return ok
}

// Clear drops all entries and dependency registrations
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.dependents = make(map[string]map[string]bool)
}

// Stats returns a snapshot of the counters
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Entries:       len(c.entries),
		Hits:          c.hits,
		Misses:        c.misses,
		Invalidations: c.invalidations,
	}
}

// hashFile computes the SHA-256 of a file's content
func hashFile(path string) ([sha256.Size]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [sha256.Size]byte{}, err
	}
	return sha256.Sum256(data), nil
}
