package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/sapling/pkg/collection"
)

// NewMarkdownRenderer returns a function that renders markdown using
// glamour, auto-detecting light/dark backgrounds.
func NewMarkdownRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// DescribeSchematic builds the markdown shown by the describe command.
func DescribeSchematic(collectionName string, s *collection.Schematic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s:%s\n\n", collectionName, s.Name)
	if s.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", s.Description)
	}

	if len(s.Schema) == 0 {
		b.WriteString("_No declared options._\n")
		return b.String()
	}

	b.WriteString("## Options\n\n")
	b.WriteString("| Name | Type | Required | Default | Description |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")

	names := make([]string, 0, len(s.Schema))
	for name := range s.Schema {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field := s.Schema[name]
		required := ""
		if field.Required {
			required = "yes"
		}
		defaultValue := ""
		if field.Default != nil {
			defaultValue = fmt.Sprintf("`%v`", field.Default)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			name, field.Type.Name(), required, defaultValue, field.Description)
	}
	return b.String()
}
