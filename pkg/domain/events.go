package domain

import (
	"context"
	"time"
)

// EventKind categorizes a reporter event.
type EventKind string

const (
	EventCreate EventKind = "create"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
	EventRename EventKind = "rename"
	EventError  EventKind = "error"
)

// Event describes one finalized action of a dry run. Events are emitted in
// finalization order, as a finite sequence, before anything is committed.
type Event struct {
	Kind EventKind `json:"kind"`
	Path string    `json:"path"`

	// ContentLen is the size of the staged content for create/update events.
	ContentLen int `json:"content_len,omitempty"`

	// ToPath is the destination for rename events.
	ToPath string `json:"to_path,omitempty"`

	// Err carries the failure for error events.
	Err error `json:"-"`
}

// TaskNotice describes a registered task during a dry run. Tasks are only
// reported, never resolved or executed, while simulating.
type TaskNotice struct {
	ID       TaskID `json:"id"`
	Executor string `json:"executor"`
	DepCount int    `json:"dep_count"`
}

// WorkflowEvent marks a phase boundary of a workflow execution.
type WorkflowEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	ExecutionID string    `json:"execution_id"`
	Collection  string    `json:"collection"`
	Schematic   string    `json:"schematic"`
	DryRun      bool      `json:"dry_run"`

	// Err is set on the end event when the workflow failed.
	Err error `json:"-"`
}

// LifecycleHooks defines callbacks for workflow observability. Hooks fire at
// phase boundaries so buffered output can be flushed only once a phase free
// of errors completes.
type LifecycleHooks struct {
	// OnStart fires when an execution enters the dry-run phase.
	OnStart func(context.Context, *WorkflowEvent)

	// OnPostTasks fires after a successful commit, before any task runs.
	OnPostTasks func(context.Context, *WorkflowEvent)

	// OnEnd fires exactly once per execution, after tasks finish or on
	// failure.
	OnEnd func(context.Context, *WorkflowEvent)
}
