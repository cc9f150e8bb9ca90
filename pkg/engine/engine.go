// Package engine drives the schematic workflow: resolve, simulate, report,
// commit, then run deferred tasks. The staged tree is the unit of isolation;
// nothing touches the backing store until the commit phase.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/sapling/pkg/collection"
	"github.com/aretw0/sapling/pkg/domain"
	"github.com/aretw0/sapling/pkg/ports"
	"github.com/aretw0/sapling/pkg/registry"
	"github.com/aretw0/sapling/pkg/rules"
	"github.com/aretw0/sapling/pkg/tasks"
	"github.com/aretw0/sapling/pkg/tree"
)

// Phase is the workflow state an execution is in or ended at.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseDryRun       Phase = "dry-run"
	PhaseCommit       Phase = "commit"
	PhaseDiscarded    Phase = "discarded"
	PhaseTasksRunning Phase = "tasks-running"
	PhaseDone         Phase = "done"
	PhaseErrored      Phase = "errored"
)

// Request identifies one schematic invocation.
type Request struct {
	Collection string
	Schematic  string
	Options    map[string]any

	// DryRun simulates and reports without committing or running tasks.
	DryRun bool

	// Force allows the commit to overwrite files that appeared on the store
	// after staging, and relaxes merge conflicts to overwrite semantics.
	Force bool

	// Strategy is the merge strategy inherited by rules that merge with
	// domain.MergeDefault. Zero means strict (conflicts are errors).
	Strategy domain.MergeStrategy

	Debug bool
}

// Result summarizes a finished execution.
type Result struct {
	ExecutionID string
	Phase       Phase
	Actions     []domain.Action
	Tasks       []domain.Task
}

// Metrics receives execution outcomes. Implemented by pkg/observability;
// a nil Metrics disables recording.
type Metrics interface {
	ExecutionFinished(status string)
	ActionCommitted(kind domain.ActionKind)
	TaskObserved(executor string, d time.Duration, err error)
}

// nopReporter discards all events.
type nopReporter struct{}

func (nopReporter) Report(domain.Event) {}

func (nopReporter) ReportTask(domain.TaskNotice) {}

// Engine executes schematic workflows against a single backing store.
type Engine struct {
	resolver collection.Resolver
	host     ports.Host
	registry *registry.Registry
	reporter ports.Reporter
	logger   *slog.Logger
	locker   ports.Locker
	lockTTL  time.Duration
	hooks    domain.LifecycleHooks
	metrics  Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithReporter sets the event reporter. Defaults to a discarding one.
func WithReporter(r ports.Reporter) Option {
	return func(e *Engine) { e.reporter = r }
}

// WithLogger sets the engine's structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithLocker serializes executions through a distributed lock keyed by the
// store root. ttl bounds how long a crashed holder blocks others.
func WithLocker(locker ports.Locker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithMetrics records execution outcomes into the given sink.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an engine resolving collections through resolver, committing
// to host, and resolving task executors from reg. The engine registers its
// own run-schematic executor on reg so schematics can invoke each other as
// post-commit tasks.
func New(resolver collection.Resolver, host ports.Host, reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		resolver: resolver,
		host:     host,
		registry: reg,
		reporter: nopReporter{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		lockTTL:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.registerRunSchematic()
	return e
}

// Execute runs one schematic invocation through the full workflow. The
// returned Result is valid even on error and names the phase reached.
func (e *Engine) Execute(ctx context.Context, req Request) (*Result, error) {
	return e.run(ctx, req, true)
}

// run is the lock-aware execution body. Nested invocations (run-schematic
// tasks) pass lock=false because the outer execution already holds the
// store lock.
func (e *Engine) run(ctx context.Context, req Request, lock bool) (*Result, error) {
	result := &Result{
		ExecutionID: uuid.NewString(),
		Phase:       PhaseIdle,
	}
	logger := e.logger.With(
		"execution_id", result.ExecutionID,
		"collection", req.Collection,
		"schematic", req.Schematic,
	)

	if lock && e.locker != nil {
		unlock, err := e.locker.Lock(ctx, e.lockKey(), e.lockTTL)
		if err != nil {
			result.Phase = PhaseErrored
			return result, fmt.Errorf("failed to acquire store lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("failed to release store lock", "err", err)
			}
		}()
	}

	workflowEvent := &domain.WorkflowEvent{
		Timestamp:   time.Now(),
		ExecutionID: result.ExecutionID,
		Collection:  req.Collection,
		Schematic:   req.Schematic,
		DryRun:      req.DryRun,
	}
	e.fireStart(ctx, workflowEvent)

	err := e.execute(ctx, req, result, logger)
	if err != nil {
		result.Phase = PhaseErrored
		logger.Error("workflow failed", "err", err, "phase", result.Phase)
	}
	e.fireEnd(ctx, workflowEvent, err)
	e.recordOutcome(req, err)
	return result, err
}

func (e *Engine) execute(ctx context.Context, req Request, result *Result, logger *slog.Logger) error {
	coll, err := e.resolver.Resolve(req.Collection)
	if err != nil {
		return err
	}
	schematic, err := coll.Schematic(req.Schematic)
	if err != nil {
		return err
	}
	options, err := coll.ResolveOptions(schematic, req.Options)
	if err != nil {
		return err
	}

	strategy := req.Strategy
	if req.Force {
		strategy = domain.MergeOverwrite
	}

	arena := tasks.NewArena()
	ec := &rules.Context{
		Collection:  req.Collection,
		Schematic:   req.Schematic,
		ExecutionID: result.ExecutionID,
		Options:     options,
		Strategy:    strategy,
		DryRun:      req.DryRun,
		Debug:       req.Debug,
		Tasks:       arena,
		Logger:      logger,
	}

	rule, err := schematic.Factory(options)
	if err != nil {
		return fmt.Errorf("schematic %s:%s: %w", req.Collection, req.Schematic, err)
	}

	result.Phase = PhaseDryRun
	if err := ctx.Err(); err != nil {
		return &domain.WorkflowError{
			ExecutionID: result.ExecutionID,
			Phase:       string(PhaseDryRun),
			Err:         fmt.Errorf("%w: %v", domain.ErrCancelled, err),
		}
	}
	staged, err := rule(ctx, ec, tree.New(e.host))
	if err != nil {
		return &domain.WorkflowError{
			ExecutionID: result.ExecutionID,
			Phase:       string(PhaseDryRun),
			Err:         err,
		}
	}
	if staged == nil {
		staged = tree.New(e.host)
	}

	result.Actions = staged.Finalize()
	result.Tasks = arena.Tasks()
	e.report(result)

	if req.DryRun {
		// Dry runs discard the staged tree; the store is never touched.
		result.Phase = PhaseDiscarded
		logger.Info("dry run finished",
			"actions", len(result.Actions),
			"tasks", len(result.Tasks),
		)
		return nil
	}

	result.Phase = PhaseCommit
	if err := e.commit(ctx, req, result); err != nil {
		return err
	}
	logger.Info("committed", "actions", len(result.Actions))

	result.Phase = PhaseTasksRunning
	e.firePostTasks(ctx, result, req)
	if err := e.runTasks(ctx, result, logger); err != nil {
		return err
	}

	result.Phase = PhaseDone
	return nil
}

// commit applies the finalized actions to the host, in order, each exactly
// once. The first failure stops further application; already-applied
// actions are not rolled back.
func (e *Engine) commit(ctx context.Context, req Request, result *Result) error {
	for _, action := range result.Actions {
		if err := ctx.Err(); err != nil {
			return e.commitError(result, fmt.Errorf("%w: %v", domain.ErrCancelled, err))
		}
		if err := e.apply(req, action); err != nil {
			e.reporter.Report(domain.Event{Kind: domain.EventError, Path: action.Path, Err: err})
			return e.commitError(result, err)
		}
		if e.metrics != nil {
			e.metrics.ActionCommitted(action.Kind)
		}
	}
	return nil
}

func (e *Engine) apply(req Request, action domain.Action) error {
	switch action.Kind {
	case domain.ActionCreate:
		if e.host.Exists(action.Path) && !req.Force {
			return fmt.Errorf("%s: %w", action.Path, domain.ErrPathAlreadyExists)
		}
		return e.host.Write(action.Path, action.Content)
	case domain.ActionOverwrite:
		return e.host.Write(action.Path, action.Content)
	case domain.ActionDelete:
		return e.host.Delete(action.Path)
	case domain.ActionRename:
		return e.host.Rename(action.Path, action.ToPath)
	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
}

func (e *Engine) commitError(result *Result, err error) error {
	return &domain.WorkflowError{
		ExecutionID: result.ExecutionID,
		Phase:       string(PhaseCommit),
		Err:         err,
	}
}

func (e *Engine) runTasks(ctx context.Context, result *Result, logger *slog.Logger) error {
	if len(result.Tasks) == 0 {
		return nil
	}
	opts := []tasks.SchedulerOption{tasks.WithLogger(logger)}
	if e.metrics != nil {
		opts = append(opts, tasks.WithObserver(e.metrics.TaskObserved))
	}
	sched := tasks.NewScheduler(e.registry, opts...)
	if err := sched.Run(ctx, result.Tasks, e.host); err != nil {
		return &domain.WorkflowError{
			ExecutionID: result.ExecutionID,
			Phase:       string(PhaseTasksRunning),
			Err:         err,
		}
	}
	return nil
}

// report streams the finalized actions and registered tasks, in order, to
// the reporter. This happens before commit in both modes, so dry-run and
// real runs describe the same plan.
func (e *Engine) report(result *Result) {
	for _, action := range result.Actions {
		e.reporter.Report(EventFor(action))
	}
	for _, task := range result.Tasks {
		e.reporter.ReportTask(domain.TaskNotice{
			ID:       task.ID,
			Executor: task.Executor,
			DepCount: len(task.DependsOn),
		})
	}
}

// EventFor maps a finalized action to its reporter event.
func EventFor(action domain.Action) domain.Event {
	switch action.Kind {
	case domain.ActionCreate:
		return domain.Event{Kind: domain.EventCreate, Path: action.Path, ContentLen: len(action.Content)}
	case domain.ActionOverwrite:
		return domain.Event{Kind: domain.EventUpdate, Path: action.Path, ContentLen: len(action.Content)}
	case domain.ActionDelete:
		return domain.Event{Kind: domain.EventDelete, Path: action.Path}
	case domain.ActionRename:
		return domain.Event{Kind: domain.EventRename, Path: action.Path, ToPath: action.ToPath}
	default:
		return domain.Event{Kind: domain.EventError, Path: action.Path}
	}
}

func (e *Engine) lockKey() string {
	if r, ok := e.host.(interface{ Root() string }); ok {
		return "sapling:store:" + r.Root()
	}
	return "sapling:store"
}

func (e *Engine) fireStart(ctx context.Context, event *domain.WorkflowEvent) {
	if e.hooks.OnStart != nil {
		e.hooks.OnStart(ctx, event)
	}
}

func (e *Engine) firePostTasks(ctx context.Context, result *Result, req Request) {
	if e.hooks.OnPostTasks == nil {
		return
	}
	e.hooks.OnPostTasks(ctx, &domain.WorkflowEvent{
		Timestamp:   time.Now(),
		ExecutionID: result.ExecutionID,
		Collection:  req.Collection,
		Schematic:   req.Schematic,
	})
}

func (e *Engine) fireEnd(ctx context.Context, event *domain.WorkflowEvent, err error) {
	if e.hooks.OnEnd == nil {
		return
	}
	end := *event
	end.Timestamp = time.Now()
	end.Err = err
	e.hooks.OnEnd(ctx, &end)
}

func (e *Engine) recordOutcome(req Request, err error) {
	if e.metrics == nil {
		return
	}
	switch {
	case err != nil:
		e.metrics.ExecutionFinished("failed")
	case req.DryRun:
		e.metrics.ExecutionFinished("dry-run")
	default:
		e.metrics.ExecutionFinished("succeeded")
	}
}
