// File: registry.go
// Title: Elevated-Scope Registry
// Description: Process-wide owner of the long-lived scopes: one application
//              scope and the session scopes keyed by session ID. Sessions
//              are created on first use, cleared explicitly, or pruned
//              after an idle period. Registry map mutations take a
//              registry-level lock; binding access locks per scope, so
//              different sessions never contend on one lock.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial registry implementation

package scope

import (
	"sync"
	"time"

	"github.com/formalang/forma/foundation/core/log"
)

// RegistryOptions configures a Registry
type RegistryOptions struct {
	// Logger for registry diagnostics (optional)
	Logger *log.Logger
}

// Registry owns the application scope and all session scopes of one process
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*sessionEntry
	application *Scope
	logger      *log.Logger
}

type sessionEntry struct {
	scope      *Scope
	lastAccess time.Time
}

// NewRegistry creates an empty registry with a fresh application scope
func NewRegistry(opts RegistryOptions) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefault()
	}

	return &Registry{
		sessions:    make(map[string]*sessionEntry),
		application: NewScope(KindApplication),
		logger:      logger.WithName("scope.registry"),
	}
}

// Application returns the shared application scope
func (r *Registry) Application() *Scope {
	return r.application
}

// Session returns the scope for the given session ID, creating it on first
// use and refreshing its idle timer
func (r *Registry) Session(id string) *Scope {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok {
		entry = &sessionEntry{scope: NewScope(KindSession)}
		r.sessions[id] = entry
		r.logger.Debug("created session scope", log.Fields{
			"session_id": id,
		})
	}
	entry.lastAccess = time.Now()
	return entry.scope
}

// HasSession reports whether a session scope exists without creating it
func (r *Registry) HasSession(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.sessions[id]
	return ok
}

// ClearSession removes a session scope and all its bindings
func (r *Registry) ClearSession(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; ok {
		delete(r.sessions, id)
		r.logger.Debug("cleared session scope", log.Fields{
			"session_id": id,
		})
	}
}

// SessionCount returns the number of live sessions
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// PruneIdle removes sessions untouched for longer than maxIdle and returns
// the number removed
func (r *Registry) PruneIdle(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	pruned := 0
	for id, entry := range r.sessions {
		if entry.lastAccess.Before(cutoff) {
			delete(r.sessions, id)
			pruned++
		}
	}

	if pruned > 0 {
		r.logger.Info("pruned idle sessions", log.Fields{
			"pruned":    pruned,
			"remaining": len(r.sessions),
		})
	}
	return pruned
}
