package collection

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/sapling/pkg/adapters/osfs"
	"github.com/aretw0/sapling/pkg/domain"
	"github.com/aretw0/sapling/pkg/rules"
	"github.com/aretw0/sapling/pkg/schema"
)

// ManifestName is the file that marks a directory as a collection.
const ManifestName = "collection.yaml"

// manifest is the on-disk shape of collection.yaml.
type manifest struct {
	Name        string                       `yaml:"name"`
	Description string                       `yaml:"description"`
	Defaults    map[string]any               `yaml:"defaults"`
	Schematics  map[string]schematicManifest `yaml:"schematics"`
}

type schematicManifest struct {
	Description string                   `yaml:"description"`
	Private     bool                     `yaml:"private"`
	Templates   string                   `yaml:"templates"`
	Defaults    map[string]any           `yaml:"defaults"`
	Schema      map[string]fieldManifest `yaml:"schema"`
}

type fieldManifest struct {
	Type        string `yaml:"type"`
	Required    bool   `yaml:"required"`
	Default     any    `yaml:"default"`
	Description string `yaml:"description"`
}

// FSResolver serves collections from a directory tree. Each subdirectory
// holding a collection.yaml is one collection; schematic template files
// live in the directory the manifest's "templates" field names, relative
// to the manifest.
type FSResolver struct {
	root string
}

// NewFSResolver creates a resolver rooted at dir.
func NewFSResolver(dir string) (*FSResolver, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve collections root: %w", err)
	}
	return &FSResolver{root: abs}, nil
}

func (r *FSResolver) Resolve(name string) (*Collection, error) {
	// Collection names are single directory entries; anything that would
	// resolve outside the root is treated as unknown. Names may arrive from
	// URL parameters.
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("collection %q: %w", name, domain.ErrUnknownCollection)
	}
	dir := filepath.Join(r.root, name)
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("collection %q: %w", name, domain.ErrUnknownCollection)
		}
		return nil, fmt.Errorf("failed to read manifest for %q: %w", name, err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s for %q: %w", ManifestName, name, err)
	}
	if m.Name == "" {
		m.Name = name
	}

	c := New(m.Name, m.Description)
	c.Defaults = m.Defaults
	for schematicName, sm := range m.Schematics {
		s, err := r.buildSchematic(dir, schematicName, sm)
		if err != nil {
			return nil, fmt.Errorf("collection %q: %w", name, err)
		}
		c.Add(s)
	}
	return c, nil
}

func (r *FSResolver) buildSchematic(dir, name string, sm schematicManifest) (*Schematic, error) {
	declared, err := parseSchema(sm.Schema)
	if err != nil {
		return nil, fmt.Errorf("schematic %q: %w", name, err)
	}

	templates := sm.Templates
	if templates == "" {
		templates = name
	}
	templateDir := filepath.Join(dir, templates)
	if _, err := os.Stat(templateDir); err != nil {
		return nil, fmt.Errorf("schematic %q: templates directory %q: %w", name, templates, err)
	}

	return &Schematic{
		Name:        name,
		Description: sm.Description,
		Private:     sm.Private,
		Schema:      declared,
		Defaults:    sm.Defaults,
		Factory:     TemplateFactory(templateDir),
	}, nil
}

func (r *FSResolver) List() ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(r.root, entry.Name(), ManifestName)); err == nil {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// TemplateFactory builds the standard template-expansion rule for a
// directory of template files: read every file, expand its content and
// path placeholders with the options, merge the result into the target.
func TemplateFactory(templateDir string) RuleFactory {
	return func(options map[string]any) (rules.Rule, error) {
		host, err := osfs.NewHost(templateDir)
		if err != nil {
			return nil, err
		}
		source := rules.Apply(rules.FromHost(host), rules.Template(options))
		return rules.MergeWith(source, domain.MergeDefault), nil
	}
}

func parseSchema(fields map[string]fieldManifest) (schema.Schema, error) {
	if fields == nil {
		return nil, nil
	}
	declared := make(schema.Schema, len(fields))
	for name, fm := range fields {
		fieldType, err := schema.ParseType(fm.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		declared[name] = schema.Field{
			Type:        fieldType,
			Required:    fm.Required,
			Default:     fm.Default,
			Description: fm.Description,
		}
	}
	return declared, nil
}
