package rules

import (
	"log/slog"

	"github.com/aretw0/sapling/pkg/domain"
)

// TaskRecorder registers deferred post-commit tasks. The returned id can be
// used as a dependency by tasks registered later; referencing an id that
// does not exist yet is rejected, which prevents cycles by construction.
type TaskRecorder interface {
	AddTask(executor string, options map[string]any, deps ...domain.TaskID) (domain.TaskID, error)
}

// Context is the per-invocation execution context handed to every rule.
// Rules are pure with respect to the outer world except for context side
// effects: task registration and logging.
type Context struct {
	// Collection and Schematic identify the running transformation.
	Collection string
	Schematic  string

	// ExecutionID correlates log lines and events of one execution.
	ExecutionID string

	// Options are the resolved, validated schematic options.
	Options map[string]any

	// Strategy is the merge strategy inherited by MergeWith rules that use
	// domain.MergeDefault.
	Strategy domain.MergeStrategy

	// DryRun is true while simulating; rules can use it to skip registering
	// tasks that only make sense against a real store.
	DryRun bool

	// Debug enables verbose diagnostics.
	Debug bool

	// Tasks records deferred tasks. Never nil during an engine execution.
	Tasks TaskRecorder

	// Logger is the structured logger for this execution. Never nil.
	Logger *slog.Logger
}

// AddTask registers a deferred task through the context's recorder.
func (c *Context) AddTask(executor string, options map[string]any, deps ...domain.TaskID) (domain.TaskID, error) {
	return c.Tasks.AddTask(executor, options, deps...)
}
