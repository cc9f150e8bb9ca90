// Package rules implements the composable transformation algebra applied to
// virtual trees: sequential chains, template-driven sources, merges, path
// rewrites and bulk edits. Rules are lazy; nothing touches persistent
// storage while they run.
package rules

import (
	"context"
	"fmt"
	"path"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/sapling/pkg/domain"
	"github.com/aretw0/sapling/pkg/tree"
)

// Rule transforms one tree state into another. Returning a nil tree means
// "the input tree, unchanged". A rule may block on external state through
// ctx; the engine awaits each rule before advancing and checks cancellation
// between steps.
type Rule func(ctx context.Context, ec *Context, t *tree.Tree) (*tree.Tree, error)

// Noop returns the identity rule.
func Noop() Rule {
	return func(ctx context.Context, ec *Context, t *tree.Tree) (*tree.Tree, error) {
		return t, nil
	}
}

// Chain executes rules strictly in order, each consuming the tree produced
// by the previous one. If any rule fails, the chain fails with that rule's
// error and no further rules run. Cancellation is honored between steps;
// this is the rule executor's suspension point.
func Chain(rules ...Rule) Rule {
	return func(ctx context.Context, ec *Context, t *tree.Tree) (*tree.Tree, error) {
		current := t
		for _, rule := range rules {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, err)
			}
			next, err := rule(ctx, ec, current)
			if err != nil {
				return nil, err
			}
			if next != nil {
				current = next
			}
		}
		return current, nil
	}
}

// When applies rule only if the predicate holds for the current context.
func When(predicate func(ec *Context) bool, rule Rule) Rule {
	return func(ctx context.Context, ec *Context, t *tree.Tree) (*tree.Tree, error) {
		if !predicate(ec) {
			return t, nil
		}
		return rule(ctx, ec, t)
	}
}

// FileTransform edits one file during ForEach. Returning nil content leaves
// the file unchanged.
type FileTransform func(filePath string, content []byte) ([]byte, error)

// ForEach applies a per-file transform to every existing file in the tree.
func ForEach(transform FileTransform) Rule {
	return func(ctx context.Context, ec *Context, t *tree.Tree) (*tree.Tree, error) {
		var edits []domain.Action
		err := t.Visit(func(filePath string, content []byte) error {
			edited, err := transform(filePath, content)
			if err != nil {
				return fmt.Errorf("transforming %q: %w", filePath, err)
			}
			if edited != nil {
				edits = append(edits, domain.NewOverwrite(filePath, edited))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		for _, edit := range edits {
			if err := t.Overwrite(edit.Path, edit.Content); err != nil {
				return nil, err
			}
		}
		return t, nil
	}
}

// Move rewrites every path in the tree by prefixing it with root. It is
// meant for generated subtrees inside Apply; the result is a fresh tree
// containing only the moved files.
func Move(root string) Rule {
	return func(ctx context.Context, ec *Context, t *tree.Tree) (*tree.Tree, error) {
		moved := tree.Empty()
		err := t.Visit(func(filePath string, content []byte) error {
			return moved.Create(path.Join(root, filePath), content)
		})
		if err != nil {
			return nil, err
		}
		return moved, nil
	}
}

// Filter keeps only the files whose path matches at least one of the given
// doublestar globs. Like Move, it is meant for generated subtrees.
func Filter(globs ...string) Rule {
	return func(ctx context.Context, ec *Context, t *tree.Tree) (*tree.Tree, error) {
		for _, glob := range globs {
			if !doublestar.ValidatePattern(glob) {
				return nil, fmt.Errorf("invalid glob %q", glob)
			}
		}
		kept := tree.Empty()
		err := t.Visit(func(filePath string, content []byte) error {
			for _, glob := range globs {
				match, err := doublestar.Match(glob, filePath)
				if err != nil {
					return err
				}
				if match {
					return kept.Create(filePath, content)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return kept, nil
	}
}

// Abort returns a rule that aborts the whole workflow with the given reason.
// Useful for guarding unsupported option combinations.
func Abort(format string, args ...any) Rule {
	return func(ctx context.Context, ec *Context, t *tree.Tree) (*tree.Tree, error) {
		return nil, domain.Abort(format, args...)
	}
}
