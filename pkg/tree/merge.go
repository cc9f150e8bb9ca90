package tree

import (
	"bytes"
	"fmt"

	"github.com/aretw0/sapling/pkg/domain"
)

// Merge replays another tree's action log onto this tree under the given
// strategy. Identical actions (same path, same content) merge silently;
// genuine per-path conflicts are resolved according to the strategy or fail
// with a domain.MergeConflictError. On error the receiving tree may hold a
// partial merge and must be discarded by the caller.
func (t *Tree) Merge(other *Tree, strategy domain.MergeStrategy) error {
	if strategy == domain.MergeDefault {
		strategy = domain.MergeError
	}

	for _, action := range other.Log() {
		if err := t.mergeAction(action, strategy); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) mergeAction(action domain.Action, strategy domain.MergeStrategy) error {
	switch action.Kind {
	case domain.ActionCreate:
		return t.mergeCreate(action, strategy)
	case domain.ActionOverwrite:
		return t.mergeOverwrite(action, strategy)
	case domain.ActionDelete:
		return t.mergeDelete(action, strategy)
	case domain.ActionRename:
		return t.mergeRename(action)
	default:
		return fmt.Errorf("merge: unknown action kind %q", action.Kind)
	}
}

func (t *Tree) mergeCreate(action domain.Action, strategy domain.MergeStrategy) error {
	if !t.Exists(action.Path) {
		return t.Create(action.Path, action.Content)
	}

	existing, err := t.Read(action.Path)
	if err == nil && bytes.Equal(existing, action.Content) {
		// Both trees produced the same file; nothing to reconcile.
		return nil
	}
	if !strategy.Allows(domain.AllowCreationConflict) {
		return &domain.MergeConflictError{Path: action.Path}
	}
	return t.Overwrite(action.Path, action.Content)
}

func (t *Tree) mergeOverwrite(action domain.Action, strategy domain.MergeStrategy) error {
	if !t.Exists(action.Path) {
		// The receiving tree dropped the path the other tree edited.
		if !strategy.Allows(domain.AllowOverwriteConflict) {
			return &domain.MergeConflictError{Path: action.Path}
		}
		return t.Create(action.Path, action.Content)
	}

	if rec, staged := t.staged[action.Path]; staged && rec.content != nil && !bytes.Equal(rec.content, action.Content) {
		if !strategy.Allows(domain.AllowOverwriteConflict) {
			return &domain.MergeConflictError{Path: action.Path}
		}
	}
	return t.Overwrite(action.Path, action.Content)
}

func (t *Tree) mergeDelete(action domain.Action, strategy domain.MergeStrategy) error {
	if !t.Exists(action.Path) {
		// Already gone here, either deleted by this tree or never present.
		if !strategy.Allows(domain.AllowDeleteConflict) {
			return &domain.MergeConflictError{Path: action.Path}
		}
		return nil
	}
	return t.Delete(action.Path)
}

func (t *Tree) mergeRename(action domain.Action) error {
	if rec, staged := t.staged[action.Path]; staged && rec.kind == recRenameOut && rec.to == action.ToPath {
		// The identical rename is already staged here.
		return nil
	}
	if !t.Exists(action.Path) || t.Exists(action.ToPath) {
		// No allow-class covers renames; colliding moves always conflict.
		return &domain.MergeConflictError{Path: action.Path}
	}
	return t.Rename(action.Path, action.ToPath)
}
