package domain

// TaskID is an opaque handle returned when a task is registered. IDs are
// monotonically increasing arena indices, so a task can only depend on tasks
// registered before it.
type TaskID int

// Task is a deferred, side-effecting unit of work registered during rule
// execution and run after the tree commits successfully. The executor is
// resolved by name, lazily, only when the task is about to run.
type Task struct {
	// ID is the task's position in the registration arena.
	ID TaskID

	// Executor names the factory that produces the task's executor.
	Executor string

	// Options is the opaque configuration passed to the executor.
	Options map[string]any

	// DependsOn lists tasks that must complete successfully before this one
	// starts. Every entry must reference an already-registered task.
	DependsOn []TaskID
}
