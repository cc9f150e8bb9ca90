package domain

import (
	"errors"
	"fmt"
)

// ErrPathAlreadyExists is returned when creating a path that already holds a
// live file, considering prior staged actions.
var ErrPathAlreadyExists = errors.New("path already exists")

// ErrPathDoesNotExist is returned when overwriting, deleting, renaming or
// reading a path with no live file.
var ErrPathDoesNotExist = errors.New("path does not exist")

// ErrUnknownCollection is returned when a collection name cannot be resolved.
var ErrUnknownCollection = errors.New("unknown collection")

// ErrUnknownSchematic is returned when a collection resolves but does not
// contain the requested schematic.
var ErrUnknownSchematic = errors.New("unknown schematic")

// ErrNotFound is returned by registries when no handler is bound to a name.
// It is distinct from resolution errors caused by malformed names.
var ErrNotFound = errors.New("not found")

// ErrTaskCycle is returned when a caller-built task set contains a
// dependency cycle.
var ErrTaskCycle = errors.New("task dependency cycle")

// ErrCancelled is returned when an execution is stopped at a suspension
// point because its context was cancelled.
var ErrCancelled = errors.New("execution cancelled")

// MergeConflictError reports a per-path collision that the merge strategy
// rejected.
type MergeConflictError struct {
	Path string
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("merge conflict on path %q", e.Path)
}

// AbortError signals that a rule deliberately aborted the workflow. The tree
// accumulated so far is discarded, never partially committed.
type AbortError struct {
	Reason string
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("schematic aborted: %s", e.Reason)
}

// Abort returns an AbortError with the given reason.
func Abort(format string, args ...any) error {
	return &AbortError{Reason: fmt.Sprintf(format, args...)}
}

// UnknownTaskDependencyError reports a task dependency id that does not
// reference a registered task.
type UnknownTaskDependencyError struct {
	ID TaskID
}

func (e *UnknownTaskDependencyError) Error() string {
	return fmt.Sprintf("unknown task dependency: %d", e.ID)
}

// WorkflowError wraps any error surfaced during the dry-run or commit phase
// of an execution. Callers can distinguish "the workflow failed" from I/O
// failures outside the workflow by checking for this type.
type WorkflowError struct {
	ExecutionID string
	Phase       string
	Err         error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("workflow execution failed (%s phase): %v", e.Phase, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}
