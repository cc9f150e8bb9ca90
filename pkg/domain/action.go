package domain

// ActionKind identifies the type of a staged file operation.
type ActionKind string

const (
	// ActionCreate stages a new file at a path where none exists.
	ActionCreate ActionKind = "create"

	// ActionOverwrite replaces the content of an existing file.
	ActionOverwrite ActionKind = "overwrite"

	// ActionDelete removes an existing file.
	ActionDelete ActionKind = "delete"

	// ActionRename moves a file from Path to ToPath.
	ActionRename ActionKind = "rename"
)

// Action is a single staged file operation. Actions are immutable once
// recorded; a tree's action log is append-only and is folded per path to
// compute the effective operation before commit.
type Action struct {
	Kind ActionKind

	// Path is the file the action applies to. Paths are slash-separated and
	// relative to the tree root.
	Path string

	// Content is set for create and overwrite actions.
	Content []byte

	// ToPath is set for rename actions.
	ToPath string
}

// NewCreate returns a create action for path with the given content.
func NewCreate(path string, content []byte) Action {
	return Action{Kind: ActionCreate, Path: path, Content: content}
}

// NewOverwrite returns an overwrite action for path with the given content.
func NewOverwrite(path string, content []byte) Action {
	return Action{Kind: ActionOverwrite, Path: path, Content: content}
}

// NewDelete returns a delete action for path.
func NewDelete(path string) Action {
	return Action{Kind: ActionDelete, Path: path}
}

// NewRename returns a rename action from path to toPath.
func NewRename(path, toPath string) Action {
	return Action{Kind: ActionRename, Path: path, ToPath: toPath}
}
