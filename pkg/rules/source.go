package rules

import (
	"context"

	"github.com/aretw0/sapling/pkg/domain"
	"github.com/aretw0/sapling/pkg/ports"
	"github.com/aretw0/sapling/pkg/tree"
)

// Source lazily materializes a tree, typically from a template directory.
// Sources are only evaluated when the enclosing rule runs.
type Source func(ctx context.Context, ec *Context) (*tree.Tree, error)

// EmptySource yields an empty tree.
func EmptySource() Source {
	return func(ctx context.Context, ec *Context) (*tree.Tree, error) {
		return tree.Empty(), nil
	}
}

// FromHost materializes every file of the given host as staged creates on
// an empty tree, so the result merges into a parent as generated content.
func FromHost(host ports.Host) Source {
	return func(ctx context.Context, ec *Context) (*tree.Tree, error) {
		t := tree.Empty()
		err := host.Walk(func(filePath string) error {
			content, err := host.Read(filePath)
			if err != nil {
				return err
			}
			return t.Create(filePath, content)
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}

// Apply materializes a source and pipes the result through the given
// operator rules, producing a transformed source. The child tree is
// ephemeral; it only lives until it is merged into a parent.
func Apply(source Source, operators ...Rule) Source {
	return func(ctx context.Context, ec *Context) (*tree.Tree, error) {
		t, err := source(ctx, ec)
		if err != nil {
			return nil, err
		}
		return Chain(operators...)(ctx, ec, t)
	}
}

// MergeWith materializes a source and merges it into the current tree under
// the given strategy. domain.MergeDefault inherits the context's strategy.
func MergeWith(source Source, strategy domain.MergeStrategy) Rule {
	return func(ctx context.Context, ec *Context, t *tree.Tree) (*tree.Tree, error) {
		generated, err := source(ctx, ec)
		if err != nil {
			return nil, err
		}
		if strategy == domain.MergeDefault {
			strategy = ec.Strategy
		}
		if err := t.Merge(generated, strategy); err != nil {
			return nil, err
		}
		return t, nil
	}
}
