// Package tree implements the virtual file tree: an in-memory overlay of
// staged actions over a base host. Rules mutate the overlay; nothing touches
// the backing store until the workflow's commit phase replays the finalized
// action set.
package tree

import (
	"fmt"
	"sort"

	"github.com/aretw0/sapling/pkg/domain"
	"github.com/aretw0/sapling/pkg/ports"
)

// recordKind tracks the effective staged state of a single path.
type recordKind int

const (
	recCreate    recordKind = iota // staged new file, absent from base
	recOverwrite                   // staged content for an existing base file
	recDelete                      // base file staged for deletion
	recRenameOut                   // base file staged to move elsewhere
	recRenameIn                    // destination of a staged rename
)

type record struct {
	kind    recordKind
	content []byte

	// to is the destination path for recRenameOut records.
	to string

	// from is the origin path for recRenameIn records.
	from string

	// dirty marks a recRenameIn whose content was edited after the rename,
	// which finalizes as a rename followed by an overwrite.
	dirty bool

	// recreated marks a recRenameOut whose path was re-created after the
	// move; it finalizes as the rename followed by a create. content then
	// holds the re-created file.
	recreated bool
}

// Tree owns an ordered sequence of staged actions over a base host.
// A Tree is created fresh per schematic invocation and is exclusively owned
// by one workflow execution; it is not safe for concurrent use.
type Tree struct {
	base   ports.Host
	log    []domain.Action
	staged map[string]*record
	order  []string // first-touch order of staged paths
}

// New returns a tree overlaying the given host. A nil host yields an empty
// tree with no base files.
func New(base ports.Host) *Tree {
	return &Tree{
		base:   base,
		staged: make(map[string]*record),
	}
}

// Empty returns a tree with no base files.
func Empty() *Tree {
	return New(nil)
}

func (t *Tree) touch(path string) *record {
	rec, ok := t.staged[path]
	if !ok {
		rec = &record{}
		t.staged[path] = rec
		t.order = append(t.order, path)
	}
	return rec
}

func (t *Tree) drop(path string) {
	delete(t.staged, path)
	for i, p := range t.order {
		if p == path {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *Tree) baseExists(path string) bool {
	return t.base != nil && t.base.Exists(path)
}

// Exists reports whether path resolves to a live file, considering staged
// actions first and falling through to the base host.
func (t *Tree) Exists(path string) bool {
	if rec, ok := t.staged[path]; ok {
		switch rec.kind {
		case recDelete:
			return false
		case recRenameOut:
			return rec.recreated
		default:
			return true
		}
	}
	return t.baseExists(path)
}

// Read resolves the effective content of path by replaying staged actions
// over the base host. Unaffected paths fall through to the base.
func (t *Tree) Read(path string) ([]byte, error) {
	if rec, ok := t.staged[path]; ok {
		switch {
		case rec.kind == recDelete, rec.kind == recRenameOut && !rec.recreated:
			return nil, fmt.Errorf("reading %q: %w", path, domain.ErrPathDoesNotExist)
		default:
			return append([]byte(nil), rec.content...), nil
		}
	}
	if t.base == nil {
		return nil, fmt.Errorf("reading %q: %w", path, domain.ErrPathDoesNotExist)
	}
	return t.base.Read(path)
}

// Create stages a new file. It fails with domain.ErrPathAlreadyExists if a
// live file is already present at path.
func (t *Tree) Create(path string, content []byte) error {
	if rec, ok := t.staged[path]; ok {
		switch rec.kind {
		case recDelete:
			// The base file was deleted and is now being recreated; the net
			// effect on the store is an overwrite.
			rec.kind = recOverwrite
			rec.content = content
			t.log = append(t.log, domain.NewCreate(path, content))
			return nil
		case recRenameOut:
			if rec.recreated {
				return fmt.Errorf("creating %q: %w", path, domain.ErrPathAlreadyExists)
			}
			// The original moved away, so the path is free again. The
			// record stays rename-out so the move still finalizes; it
			// carries the fresh create alongside.
			rec.recreated = true
			rec.content = content
			t.log = append(t.log, domain.NewCreate(path, content))
			return nil
		default:
			return fmt.Errorf("creating %q: %w", path, domain.ErrPathAlreadyExists)
		}
	}
	if t.baseExists(path) {
		return fmt.Errorf("creating %q: %w", path, domain.ErrPathAlreadyExists)
	}
	rec := t.touch(path)
	rec.kind = recCreate
	rec.content = content
	t.log = append(t.log, domain.NewCreate(path, content))
	return nil
}

// Overwrite stages new content for an existing file. It fails with
// domain.ErrPathDoesNotExist if no live file is present at path.
func (t *Tree) Overwrite(path string, content []byte) error {
	if !t.Exists(path) {
		return fmt.Errorf("overwriting %q: %w", path, domain.ErrPathDoesNotExist)
	}
	rec, ok := t.staged[path]
	if !ok {
		rec = t.touch(path)
		rec.kind = recOverwrite
	}
	switch rec.kind {
	case recCreate:
		// create-then-overwrite collapses to create-with-final-content.
		rec.content = content
	case recRenameIn:
		rec.content = content
		rec.dirty = true
	case recRenameOut:
		// Only reachable when the slot was re-created after the move;
		// fold into the pending create, keeping the move intact.
		rec.content = content
	default:
		rec.kind = recOverwrite
		rec.content = content
	}
	t.log = append(t.log, domain.NewOverwrite(path, content))
	return nil
}

// Delete stages removal of an existing file. It fails with
// domain.ErrPathDoesNotExist if no live file is present at path.
func (t *Tree) Delete(path string) error {
	if !t.Exists(path) {
		return fmt.Errorf("deleting %q: %w", path, domain.ErrPathDoesNotExist)
	}
	rec, ok := t.staged[path]
	if !ok {
		rec = t.touch(path)
		rec.kind = recDelete
		rec.content = nil
		t.log = append(t.log, domain.NewDelete(path))
		return nil
	}
	switch rec.kind {
	case recCreate:
		// create-then-delete cancels to a no-op.
		t.drop(path)
	case recRenameOut:
		// Only reachable when the slot was re-created after the move;
		// the pending create cancels, the move stands.
		rec.recreated = false
		rec.content = nil
	case recRenameIn:
		// Deleting a rename destination deletes the origin instead; the
		// rename itself never happens.
		origin := t.staged[rec.from]
		if origin != nil && origin.kind == recRenameOut {
			if origin.recreated {
				// The origin slot was re-created after the move; with the
				// move cancelled that content lands over the base file.
				origin.kind = recOverwrite
				origin.recreated = false
			} else {
				origin.kind = recDelete
			}
			origin.to = ""
		}
		t.drop(path)
	default:
		rec.kind = recDelete
		rec.content = nil
	}
	t.log = append(t.log, domain.NewDelete(path))
	return nil
}

// Rename stages a move from one path to another. It fails if from does not
// resolve to a live file or if to already does.
func (t *Tree) Rename(from, to string) error {
	if from == to {
		return nil
	}
	if !t.Exists(from) {
		return fmt.Errorf("renaming %q: %w", from, domain.ErrPathDoesNotExist)
	}
	if t.Exists(to) {
		return fmt.Errorf("renaming to %q: %w", to, domain.ErrPathAlreadyExists)
	}

	rec, staged := t.staged[from]
	if staged {
		switch rec.kind {
		case recCreate:
			// A staged create never hit the store, so the rename folds to a
			// create at the destination.
			content := rec.content
			t.drop(from)
			dest := t.touch(to)
			dest.kind = recCreate
			dest.content = content
			t.log = append(t.log, domain.NewRename(from, to))
			return nil
		case recRenameIn:
			// Chained rename: p -> from -> to becomes p -> to.
			origin := t.staged[rec.from]
			content, dirty, root := rec.content, rec.dirty, rec.from
			t.drop(from)
			if origin != nil && origin.kind == recRenameOut {
				origin.to = to
			}
			dest := t.touch(to)
			dest.kind = recRenameIn
			dest.content = content
			dest.dirty = dirty
			dest.from = root
			t.log = append(t.log, domain.NewRename(from, to))
			return nil
		case recRenameOut:
			// Only reachable when the slot was re-created after the move.
			// That file never hit the store, so this rename folds to a
			// create at the destination and the original move stands.
			content := rec.content
			rec.recreated = false
			rec.content = nil
			dest := t.touch(to)
			dest.kind = recCreate
			dest.content = content
			t.log = append(t.log, domain.NewRename(from, to))
			return nil
		case recOverwrite:
			content := rec.content
			rec.kind = recRenameOut
			rec.to = to
			rec.content = nil
			dest := t.touch(to)
			dest.kind = recRenameIn
			dest.content = content
			dest.dirty = true
			dest.from = from
			t.log = append(t.log, domain.NewRename(from, to))
			return nil
		}
	}

	// Untouched base file.
	content, err := t.base.Read(from)
	if err != nil {
		return fmt.Errorf("renaming %q: %w", from, err)
	}
	src := t.touch(from)
	src.kind = recRenameOut
	src.to = to
	dest := t.touch(to)
	dest.kind = recRenameIn
	dest.content = content
	dest.from = from
	t.log = append(t.log, domain.NewRename(from, to))
	return nil
}

// Paths returns every live file path in the tree, sorted lexically.
func (t *Tree) Paths() ([]string, error) {
	seen := make(map[string]bool)
	var paths []string

	if t.base != nil {
		err := t.base.Walk(func(path string) error {
			if rec, ok := t.staged[path]; ok {
				if rec.kind == recDelete || (rec.kind == recRenameOut && !rec.recreated) {
					return nil
				}
			}
			seen[path] = true
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	for path, rec := range t.staged {
		if seen[path] {
			continue
		}
		if rec.kind == recCreate || rec.kind == recRenameIn || (rec.kind == recRenameOut && rec.recreated) {
			paths = append(paths, path)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// Visit calls fn with the path and effective content of every live file.
func (t *Tree) Visit(fn func(path string, content []byte) error) error {
	paths, err := t.Paths()
	if err != nil {
		return err
	}
	for _, path := range paths {
		content, err := t.Read(path)
		if err != nil {
			return err
		}
		if err := fn(path, content); err != nil {
			return err
		}
	}
	return nil
}

// Log returns a copy of the raw staged action log, in staging order.
func (t *Tree) Log() []domain.Action {
	return append([]domain.Action(nil), t.log...)
}

// Branch produces an independent child tree over the same base. The child
// starts with a copy of the parent's staged state; changes to either tree do
// not affect the other until the child is merged back.
func (t *Tree) Branch() *Tree {
	child := New(t.base)
	child.log = append(child.log, t.log...)
	child.order = append(child.order, t.order...)
	for path, rec := range t.staged {
		cp := *rec
		cp.content = append([]byte(nil), rec.content...)
		child.staged[path] = &cp
	}
	return child
}

// Finalize folds the action log per path and returns the effective action
// set, ordered by the first time each path was touched. A path whose staged
// operations cancel out produces no action.
func (t *Tree) Finalize() []domain.Action {
	var actions []domain.Action
	seen := make(map[string]bool)

	for _, path := range t.order {
		if seen[path] {
			continue
		}
		seen[path] = true
		rec, ok := t.staged[path]
		if !ok {
			continue
		}

		switch rec.kind {
		case recCreate:
			actions = append(actions, domain.NewCreate(path, rec.content))
		case recOverwrite:
			actions = append(actions, domain.NewOverwrite(path, rec.content))
		case recDelete:
			actions = append(actions, domain.NewDelete(path))
		case recRenameOut:
			if rec.recreated {
				// Emit the move first so the commit frees the path before
				// the re-created file lands. The destination is resolved
				// here too, so its own slot is skipped.
				if dest, ok := t.staged[rec.to]; ok && dest.kind == recRenameIn && dest.from == path {
					actions = append(actions, domain.NewRename(path, rec.to))
					if dest.dirty {
						actions = append(actions, domain.NewOverwrite(rec.to, dest.content))
					}
					seen[rec.to] = true
				}
				actions = append(actions, domain.NewCreate(path, rec.content))
				break
			}
			// Plain rename-out is emitted at the destination's slot.
		case recRenameIn:
			if origin, ok := t.staged[rec.from]; ok && origin.kind == recRenameOut {
				actions = append(actions, domain.NewRename(rec.from, path))
				if rec.dirty {
					actions = append(actions, domain.NewOverwrite(path, rec.content))
				}
			} else {
				// Origin collapsed away; the destination stands alone.
				actions = append(actions, domain.NewCreate(path, rec.content))
			}
		}
	}

	return actions
}
