// File: scope.go
// Title: Variable Scopes
// Description: Defines the scope kinds and the thread-safe binding
//              environment used by the execution context. Scopes of the
//              session and application kinds are shared between concurrent
//              executions, so every scope guards its bindings with its own
//              RWMutex.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial scope implementation

package scope

import (
	"fmt"
	"strings"
	"sync"
)

// Kind classifies a scope by lifetime, ordered from widest to narrowest
type Kind int

const (
	KindApplication Kind = iota
	KindSession
	KindComponent
	KindFunction
	KindLocal
)

// String returns the scope kind name
func (k Kind) String() string {
	switch k {
	case KindApplication:
		return "application"
	case KindSession:
		return "session"
	case KindComponent:
		return "component"
	case KindFunction:
		return "function"
	case KindLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Elevated reports whether writes hinted at this kind always target the
// scope of this kind, regardless of where the name already exists
func (k Kind) Elevated() bool {
	return k == KindFunction || k == KindComponent || k == KindSession || k == KindApplication
}

// ParseKind parses a scope hint string. The empty string means local.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "local":
		return KindLocal, nil
	case "function":
		return KindFunction, nil
	case "component":
		return KindComponent, nil
	case "session":
		return KindSession, nil
	case "application":
		return KindApplication, nil
	default:
		return KindLocal, fmt.Errorf("unknown scope kind %q", s)
	}
}

// Scope is one binding environment. Bindings are name to value; values use
// the dynamic value model of the expression engine.
type Scope struct {
	kind Kind
	mu   sync.RWMutex
	vars map[string]interface{}
}

// NewScope creates an empty scope of the given kind
func NewScope(kind Kind) *Scope {
	return &Scope{
		kind: kind,
		vars: make(map[string]interface{}),
	}
}

// Kind returns the scope's lifetime kind
func (s *Scope) Kind() Kind {
	return s.kind
}

// Get returns the value bound to name and whether the binding exists
func (s *Scope) Get(name string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.vars[name]
	return value, ok
}

// Set binds name to value in this scope
func (s *Scope) Set(name string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vars[name] = value
}

// Has reports whether name is bound in this scope
func (s *Scope) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.vars[name]
	return ok
}

// Delete removes the binding for name, if any
func (s *Scope) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.vars, name)
}

// Len returns the number of bindings
func (s *Scope) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.vars)
}

// Snapshot returns a shallow copy of the bindings
func (s *Scope) Snapshot() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make(map[string]interface{}, len(s.vars))
	for k, v := range s.vars {
		copied[k] = v
	}
	return copied
}

// Clear removes all bindings
func (s *Scope) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vars = make(map[string]interface{})
}
