package rules

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/aretw0/sapling/pkg/tree"
)

// Template renders every file of a generated subtree through text/template
// with the given data, and substitutes __key__ tokens in file paths with
// the corresponding data value. Meant for use inside Apply.
func Template(data map[string]any) Rule {
	return func(ctx context.Context, ec *Context, t *tree.Tree) (*tree.Tree, error) {
		rendered := tree.Empty()
		err := t.Visit(func(filePath string, content []byte) error {
			tmpl, err := template.New(filePath).Option("missingkey=error").Parse(string(content))
			if err != nil {
				return fmt.Errorf("parsing template %q: %w", filePath, err)
			}
			var buf bytes.Buffer
			if err := tmpl.Execute(&buf, data); err != nil {
				return fmt.Errorf("rendering template %q: %w", filePath, err)
			}
			return rendered.Create(renamePath(filePath, data), buf.Bytes())
		})
		if err != nil {
			return nil, err
		}
		return rendered, nil
	}
}

// renamePath substitutes __key__ tokens with the string form of data[key].
// Unknown tokens are left untouched so stray underscores don't corrupt
// paths.
func renamePath(filePath string, data map[string]any) string {
	out := filePath
	for key, value := range data {
		token := "__" + key + "__"
		if strings.Contains(out, token) {
			out = strings.ReplaceAll(out, token, fmt.Sprintf("%v", value))
		}
	}
	return out
}
