// Package tasks collects deferred side-effecting work registered during
// rule execution and runs it after a successful commit, in an order that
// respects each task's dependencies.
package tasks

import (
	"github.com/aretw0/sapling/pkg/domain"
)

// Arena is the per-execution task registry. Task ids are monotonically
// increasing indices, so a dependency can only reference a task registered
// earlier; forward references are rejected at registration time, which
// makes cycles impossible through this API.
type Arena struct {
	tasks []domain.Task
}

// NewArena creates an empty task arena.
func NewArena() *Arena {
	return &Arena{}
}

// AddTask registers a deferred task and returns its id.
func (a *Arena) AddTask(executor string, options map[string]any, deps ...domain.TaskID) (domain.TaskID, error) {
	for _, dep := range deps {
		if dep < 0 || int(dep) >= len(a.tasks) {
			return 0, &domain.UnknownTaskDependencyError{ID: dep}
		}
	}
	id := domain.TaskID(len(a.tasks))
	a.tasks = append(a.tasks, domain.Task{
		ID:        id,
		Executor:  executor,
		Options:   options,
		DependsOn: append([]domain.TaskID(nil), deps...),
	})
	return id, nil
}

// Tasks returns the registered tasks in creation order.
func (a *Arena) Tasks() []domain.Task {
	return append([]domain.Task(nil), a.tasks...)
}

// Len returns the number of registered tasks.
func (a *Arena) Len() int {
	return len(a.tasks)
}
