package collection

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/sapling/pkg/domain"
)

// Resolver resolves a collection name to its definition. Unknown names
// yield an error wrapping domain.ErrUnknownCollection.
type Resolver interface {
	Resolve(name string) (*Collection, error)
	// List returns the resolvable collection names, sorted.
	List() ([]string, error)
}

// StaticResolver serves collections registered in memory. It is the
// resolver of choice for embedding schematics in a Go program.
type StaticResolver struct {
	mu          sync.RWMutex
	collections map[string]*Collection
}

// NewStaticResolver creates a resolver pre-loaded with the given collections.
func NewStaticResolver(collections ...*Collection) *StaticResolver {
	r := &StaticResolver{collections: make(map[string]*Collection)}
	for _, c := range collections {
		r.collections[c.Name] = c
	}
	return r
}

// Register adds a collection, overwriting any previous one with its name.
func (r *StaticResolver) Register(c *Collection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collections[c.Name] = c
}

func (r *StaticResolver) Resolve(name string) (*Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", name, domain.ErrUnknownCollection)
	}
	return c, nil
}

func (r *StaticResolver) List() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.collections))
	for name := range r.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Multi chains resolvers; the first one that resolves a name wins.
type Multi []Resolver

func (m Multi) Resolve(name string) (*Collection, error) {
	for _, r := range m {
		c, err := r.Resolve(name)
		if err == nil {
			return c, nil
		}
	}
	return nil, fmt.Errorf("collection %q: %w", name, domain.ErrUnknownCollection)
}

func (m Multi) List() ([]string, error) {
	seen := make(map[string]bool)
	var names []string
	for _, r := range m {
		sub, err := r.List()
		if err != nil {
			return nil, err
		}
		for _, name := range sub {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}
