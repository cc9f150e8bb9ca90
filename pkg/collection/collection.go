// Package collection models named bundles of schematics and resolves
// collection references to runnable rule factories. It is the boundary
// between stored schematic definitions and the engine.
package collection

import (
	"fmt"
	"sort"

	"github.com/aretw0/sapling/pkg/domain"
	"github.com/aretw0/sapling/pkg/rules"
	"github.com/aretw0/sapling/pkg/schema"
)

// RuleFactory builds a schematic's entry rule from its resolved options.
type RuleFactory func(options map[string]any) (rules.Rule, error)

// Schematic is one named transformation inside a collection.
type Schematic struct {
	Name        string
	Description string

	// Private schematics can be invoked by other schematics (run-schematic,
	// nested factories) but are hidden from listings.
	Private bool

	// Schema declares the accepted options. nil means the schematic declared
	// nothing; schema.Any() accepts anything explicitly.
	Schema schema.Schema

	// Defaults are merged under caller options before validation.
	Defaults map[string]any

	Factory RuleFactory
}

// Collection is a named set of schematics plus collection-wide defaults.
type Collection struct {
	Name        string
	Description string

	// Defaults apply to every schematic in the collection, under the
	// schematic's own defaults.
	Defaults map[string]any

	schematics map[string]*Schematic
}

// New creates an empty collection.
func New(name, description string) *Collection {
	return &Collection{
		Name:        name,
		Description: description,
		schematics:  make(map[string]*Schematic),
	}
}

// Add registers a schematic, overwriting any previous one with the same name.
func (c *Collection) Add(s *Schematic) *Collection {
	c.schematics[s.Name] = s
	return c
}

// Schematic returns the named schematic. Unknown names yield an error
// wrapping domain.ErrUnknownSchematic so callers can tell "collection
// missing" from "schematic missing".
func (c *Collection) Schematic(name string) (*Schematic, error) {
	s, ok := c.schematics[name]
	if !ok {
		return nil, fmt.Errorf("collection %q has no schematic %q: %w", c.Name, name, domain.ErrUnknownSchematic)
	}
	return s, nil
}

// Names lists the public schematic names, sorted.
func (c *Collection) Names() []string {
	names := make([]string, 0, len(c.schematics))
	for name, s := range c.schematics {
		if s.Private {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveOptions layers collection defaults, schematic defaults and caller
// options, applies the schema's field defaults, then validates. Lower
// layers never override a key the caller supplied.
func (c *Collection) ResolveOptions(s *Schematic, caller map[string]any) (map[string]any, error) {
	resolved := make(map[string]any)
	for key, value := range c.Defaults {
		resolved[key] = value
	}
	for key, value := range s.Defaults {
		resolved[key] = value
	}
	for key, value := range caller {
		resolved[key] = value
	}
	resolved = s.Schema.ApplyDefaults(resolved)
	if err := s.Schema.Validate(resolved); err != nil {
		return nil, fmt.Errorf("options for %s:%s: %w", c.Name, s.Name, err)
	}
	return resolved, nil
}
