package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/aretw0/sapling/pkg/domain"
	"github.com/aretw0/sapling/pkg/ports"
	"github.com/aretw0/sapling/pkg/registry"
)

// Executor performs one task's side effect against the committed store.
type Executor func(ctx context.Context, options map[string]any, host ports.Host) error

// Factory produces an Executor for a task's options. Factories are resolved
// from the registry lazily, only when their task is about to run.
type Factory func(options map[string]any) (Executor, error)

// Scheduler resolves a dependency-respecting execution order and runs each
// task's executor after the tree has committed.
type Scheduler struct {
	registry *registry.Registry
	logger   *slog.Logger

	// observe, when set, is called with each task's duration. Used by the
	// metrics layer.
	observe func(executor string, d time.Duration, err error)
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithLogger sets the scheduler's structured logger.
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithObserver registers a callback invoked with each task's outcome.
func WithObserver(observe func(executor string, d time.Duration, err error)) SchedulerOption {
	return func(s *Scheduler) {
		s.observe = observe
	}
}

// NewScheduler creates a scheduler resolving executors from reg.
func NewScheduler(reg *registry.Registry, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		registry: reg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Order returns a valid topological ordering of the task dependency graph.
// Ties among tasks with no ordering constraint preserve creation order.
// Unknown dependency ids and cycles are rejected before any task runs.
func Order(taskList []domain.Task) ([]domain.Task, error) {
	known := make(map[domain.TaskID]bool, len(taskList))
	for _, task := range taskList {
		known[task.ID] = true
	}

	indegree := make(map[domain.TaskID]int, len(taskList))
	dependents := make(map[domain.TaskID][]domain.TaskID)
	byID := make(map[domain.TaskID]domain.Task, len(taskList))

	for _, task := range taskList {
		byID[task.ID] = task
		for _, dep := range task.DependsOn {
			if !known[dep] {
				return nil, &domain.UnknownTaskDependencyError{ID: dep}
			}
			indegree[task.ID]++
			dependents[dep] = append(dependents[dep], task.ID)
		}
	}

	// Kahn's algorithm with a sorted ready set for stable creation order.
	var ready []domain.TaskID
	for _, task := range taskList {
		if indegree[task.ID] == 0 {
			ready = append(ready, task.ID)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })

	ordered := make([]domain.Task, 0, len(taskList))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		ordered = append(ordered, byID[id])

		for _, next := range dependents[id] {
			indegree[next]--
			if indegree[next] == 0 {
				// Insert keeping the ready set sorted by creation order.
				pos := sort.Search(len(ready), func(i int) bool { return ready[i] > next })
				ready = append(ready, 0)
				copy(ready[pos+1:], ready[pos:])
				ready[pos] = next
			}
		}
	}

	if len(ordered) != len(taskList) {
		return nil, domain.ErrTaskCycle
	}
	return ordered, nil
}

// Run executes the given tasks in dependency order against the committed
// host. The first executor failure stops launching further tasks and is
// returned; tasks are not retried.
func (s *Scheduler) Run(ctx context.Context, taskList []domain.Task, host ports.Host) error {
	ordered, err := Order(taskList)
	if err != nil {
		return err
	}

	for _, task := range ordered {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrCancelled, err)
		}

		executor, err := s.resolve(task)
		if err != nil {
			return err
		}

		s.logger.Debug("running task", "id", task.ID, "executor", task.Executor)
		start := time.Now()
		err = executor(ctx, task.Options, host)
		if s.observe != nil {
			s.observe(task.Executor, time.Since(start), err)
		}
		if err != nil {
			return fmt.Errorf("task %d (%s): %w", task.ID, task.Executor, err)
		}
	}
	return nil
}

// resolve looks up the task's factory and builds its executor. Resolution
// happens per task so work is never done for tasks behind an earlier
// failure.
func (s *Scheduler) resolve(task domain.Task) (Executor, error) {
	entry, err := s.registry.Lookup(task.Executor)
	if err != nil {
		return nil, err
	}
	factory, ok := entry.Value.(Factory)
	if !ok {
		return nil, fmt.Errorf("handler %q is not a task factory", task.Executor)
	}
	if entry.Schema != nil {
		if err := entry.Schema.Validate(task.Options); err != nil {
			return nil, fmt.Errorf("task %d options: %w", task.ID, err)
		}
	}
	return factory(task.Options)
}
