// Package registry provides the name-to-handler lookup shared by the task
// scheduler (resolving executor factories) and generic job execution
// (resolving named handlers). It supports static, in-memory registration and
// dynamic resolution through injected resolvers.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/sapling/pkg/domain"
	"github.com/aretw0/sapling/pkg/schema"
)

// Entry is a registered capability plus its declared metadata. A nil Schema
// means the handler declared nothing; schema.Any() is an explicit
// accept-anything declaration.
type Entry struct {
	Name   string
	Schema schema.Schema
	Value  any
}

// Resolver resolves names the static table does not know. Implementations
// return domain.ErrNotFound when the name is simply absent; any other error
// signals a genuine resolution failure (malformed name, unreadable backing
// store, symbol missing).
type Resolver interface {
	Resolve(name string) (*Entry, error)
}

// SymbolNotFoundError reports a ref whose module resolved but whose exported
// symbol is missing. It is distinct from domain.ErrNotFound.
type SymbolNotFoundError struct {
	Module string
	Symbol string
}

func (e *SymbolNotFoundError) Error() string {
	return fmt.Sprintf("module %q has no symbol %q", e.Module, e.Symbol)
}

// Registry manages the available handlers.
type Registry struct {
	mu        sync.RWMutex
	entries   map[string]*Entry
	resolvers []Resolver
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Register adds a handler to the registry. If a handler with the same name
// exists, it is overwritten.
func (r *Registry) Register(name string, value any, s schema.Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = &Entry{Name: name, Schema: s, Value: value}
}

// AddResolver appends a dynamic resolver consulted, in order, after the
// static table.
func (r *Registry) AddResolver(res Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers = append(r.resolvers, res)
}

// Get returns the statically registered entry bound to name, or false.
// It never returns both a value and a miss.
func (r *Registry) Get(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	return entry, ok
}

// Names lists the statically registered names, unordered.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// Lookup resolves name through the static table, then each dynamic resolver
// in registration order. A miss everywhere yields domain.ErrNotFound; a
// resolver failure other than a miss is returned as-is, so callers can
// distinguish "not found" from "resolution failed".
func (r *Registry) Lookup(name string) (*Entry, error) {
	if entry, ok := r.Get(name); ok {
		return entry, nil
	}

	r.mu.RLock()
	resolvers := append([]Resolver(nil), r.resolvers...)
	r.mu.RUnlock()

	for _, res := range resolvers {
		entry, err := res.Resolve(name)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolving %q: %w", name, err)
		}
		return entry, nil
	}
	return nil, fmt.Errorf("handler %q: %w", name, domain.ErrNotFound)
}

// ParseRef splits a dynamic handler reference of the form "module#Symbol".
// The symbol part is optional. Malformed refs (empty module, repeated
// separator) fail with a parse error, which resolvers must not conflate
// with domain.ErrNotFound.
func ParseRef(ref string) (module, symbol string, err error) {
	if ref == "" {
		return "", "", fmt.Errorf("empty handler ref")
	}
	parts := strings.Split(ref, "#")
	switch len(parts) {
	case 1:
		return parts[0], "", nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return "", "", fmt.Errorf("malformed handler ref %q", ref)
		}
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("malformed handler ref %q: multiple separators", ref)
	}
}
