package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sapling/pkg/adapters/memory"
	"github.com/aretw0/sapling/pkg/collection"
	"github.com/aretw0/sapling/pkg/domain"
	"github.com/aretw0/sapling/pkg/ports"
	"github.com/aretw0/sapling/pkg/registry"
	"github.com/aretw0/sapling/pkg/rules"
	"github.com/aretw0/sapling/pkg/schema"
	"github.com/aretw0/sapling/pkg/tasks"
	"github.com/aretw0/sapling/pkg/tree"
)

// recordingReporter captures the event stream for assertions.
type recordingReporter struct {
	events []domain.Event
	tasks  []domain.TaskNotice
}

func (r *recordingReporter) Report(event domain.Event) { r.events = append(r.events, event) }

func (r *recordingReporter) ReportTask(notice domain.TaskNotice) { r.tasks = append(r.tasks, notice) }

// recordingHost counts mutations so tests can prove dry runs never write.
type recordingHost struct {
	ports.Host
	mu      sync.Mutex
	applied []string
}

func newRecordingHost(files map[string]string) *recordingHost {
	return &recordingHost{Host: memory.NewHostFrom(files)}
}

func (h *recordingHost) Write(path string, content []byte) error {
	h.mu.Lock()
	h.applied = append(h.applied, "write "+path)
	h.mu.Unlock()
	return h.Host.Write(path, content)
}

func (h *recordingHost) Delete(path string) error {
	h.mu.Lock()
	h.applied = append(h.applied, "delete "+path)
	h.mu.Unlock()
	return h.Host.Delete(path)
}

func (h *recordingHost) Rename(path, toPath string) error {
	h.mu.Lock()
	h.applied = append(h.applied, "rename "+path+" "+toPath)
	h.mu.Unlock()
	return h.Host.Rename(path, toPath)
}

func ruleCollection(name string, factory collection.RuleFactory) *collection.Collection {
	c := collection.New(name, "")
	c.Add(&collection.Schematic{Name: "gen", Factory: factory})
	return c
}

// componentFactory stages __name__/main.go expanded with the options, the
// shape of a minimal real schematic.
func componentFactory(options map[string]any) (rules.Rule, error) {
	templates := memory.NewHostFrom(map[string]string{
		"__name__/main.go": "package {{.name}}\n",
	})
	source := rules.Apply(rules.FromHost(templates), rules.Template(options))
	return rules.MergeWith(source, domain.MergeDefault), nil
}

func newTestEngine(t *testing.T, host ports.Host, opts ...Option) (*Engine, *recordingReporter) {
	t.Helper()
	c := collection.New("starter", "")
	c.Add(&collection.Schematic{
		Name: "component",
		Schema: schema.Schema{
			"name": {Type: schema.String(), Required: true},
		},
		Factory: componentFactory,
	})
	reporter := &recordingReporter{}
	opts = append([]Option{WithReporter(reporter)}, opts...)
	return New(collection.NewStaticResolver(c), host, registry.New(), opts...), reporter
}

func TestExecute_DryRunNeverWrites(t *testing.T) {
	host := newRecordingHost(map[string]string{"README.md": "hi"})
	engine, reporter := newTestEngine(t, host)

	result, err := engine.Execute(context.Background(), Request{
		Collection: "starter",
		Schematic:  "component",
		Options:    map[string]any{"name": "widget"},
		DryRun:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, PhaseDiscarded, result.Phase)
	assert.Empty(t, host.applied, "dry run must not touch the store")
	require.Len(t, reporter.events, 1)
	assert.Equal(t, domain.EventCreate, reporter.events[0].Kind)
	assert.Equal(t, "widget/main.go", reporter.events[0].Path)
	assert.False(t, host.Exists("widget/main.go"))
}

func TestExecute_CommitAppliesEachActionOnceInOrder(t *testing.T) {
	host := newRecordingHost(map[string]string{"old.txt": "x"})
	c := ruleCollection("starter", func(options map[string]any) (rules.Rule, error) {
		return func(ctx context.Context, ec *rules.Context, t *tree.Tree) (*tree.Tree, error) {
			if err := t.Create("a.txt", []byte("a")); err != nil {
				return nil, err
			}
			if err := t.Rename("old.txt", "new.txt"); err != nil {
				return nil, err
			}
			if err := t.Create("b.txt", []byte("b")); err != nil {
				return nil, err
			}
			return t, nil
		}, nil
	})
	engine := New(collection.NewStaticResolver(c), host, registry.New())

	result, err := engine.Execute(context.Background(), Request{Collection: "starter", Schematic: "gen"})
	require.NoError(t, err)

	assert.Equal(t, PhaseDone, result.Phase)
	assert.Equal(t, []string{
		"write a.txt",
		"rename old.txt new.txt",
		"write b.txt",
	}, host.applied)
	assert.True(t, host.Exists("a.txt"))
	assert.True(t, host.Exists("new.txt"))
	assert.False(t, host.Exists("old.txt"))
}

func TestExecute_UnknownCollectionAndSchematic(t *testing.T) {
	engine, _ := newTestEngine(t, memory.NewHost())

	_, err := engine.Execute(context.Background(), Request{Collection: "nope", Schematic: "component"})
	assert.ErrorIs(t, err, domain.ErrUnknownCollection)

	_, err = engine.Execute(context.Background(), Request{Collection: "starter", Schematic: "nope"})
	assert.ErrorIs(t, err, domain.ErrUnknownSchematic)
}

func TestExecute_OptionsValidatedBeforeRuleRuns(t *testing.T) {
	host := newRecordingHost(nil)
	engine, reporter := newTestEngine(t, host)

	_, err := engine.Execute(context.Background(), Request{
		Collection: "starter",
		Schematic:  "component",
	})
	var agg *schema.AggregateError
	require.ErrorAs(t, err, &agg)
	assert.Empty(t, reporter.events)
	assert.Empty(t, host.applied)
}

func TestExecute_RuleErrorWrappedAsWorkflowError(t *testing.T) {
	boom := errors.New("boom")
	c := ruleCollection("starter", func(options map[string]any) (rules.Rule, error) {
		return func(ctx context.Context, ec *rules.Context, t *tree.Tree) (*tree.Tree, error) {
			return nil, boom
		}, nil
	})
	engine := New(collection.NewStaticResolver(c), memory.NewHost(), registry.New())

	result, err := engine.Execute(context.Background(), Request{Collection: "starter", Schematic: "gen"})

	var wf *domain.WorkflowError
	require.ErrorAs(t, err, &wf)
	assert.Equal(t, string(PhaseDryRun), wf.Phase)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, PhaseErrored, result.Phase)
}

func TestExecute_AbortSurfacesAndNothingCommits(t *testing.T) {
	host := newRecordingHost(nil)
	c := ruleCollection("starter", func(options map[string]any) (rules.Rule, error) {
		return rules.Chain(
			rules.Noop(),
			rules.Abort("unsupported layout"),
		), nil
	})
	engine := New(collection.NewStaticResolver(c), host, registry.New())

	_, err := engine.Execute(context.Background(), Request{Collection: "starter", Schematic: "gen"})

	var abort *domain.AbortError
	require.ErrorAs(t, err, &abort)
	assert.Empty(t, host.applied)
}

func TestExecute_MergeConflictSurfaces(t *testing.T) {
	host := newRecordingHost(map[string]string{"widget/main.go": "package old\n"})
	engine, _ := newTestEngine(t, host)

	_, err := engine.Execute(context.Background(), Request{
		Collection: "starter",
		Schematic:  "component",
		Options:    map[string]any{"name": "widget"},
	})

	var wf *domain.WorkflowError
	require.ErrorAs(t, err, &wf)
	var conflict *domain.MergeConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, "widget/main.go", conflict.Path)
	assert.Empty(t, host.applied)
}

func TestExecute_ForceOverwritesConflicts(t *testing.T) {
	host := newRecordingHost(map[string]string{"widget/main.go": "package old\n"})
	engine, _ := newTestEngine(t, host)

	result, err := engine.Execute(context.Background(), Request{
		Collection: "starter",
		Schematic:  "component",
		Options:    map[string]any{"name": "widget"},
		Force:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, PhaseDone, result.Phase)

	content, err := host.Read("widget/main.go")
	require.NoError(t, err)
	assert.Equal(t, "package widget\n", string(content))
}

func TestExecute_TasksRunAfterCommit(t *testing.T) {
	host := newRecordingHost(nil)
	reg := registry.New()

	var order []string
	reg.Register("record", tasks.Factory(func(options map[string]any) (tasks.Executor, error) {
		return func(ctx context.Context, options map[string]any, h ports.Host) error {
			order = append(order, fmt.Sprintf("task %v", options["n"]))
			return nil
		}, nil
	}), nil)

	c := ruleCollection("starter", func(options map[string]any) (rules.Rule, error) {
		return func(ctx context.Context, ec *rules.Context, t *tree.Tree) (*tree.Tree, error) {
			if err := t.Create("main.go", []byte("package main\n")); err != nil {
				return nil, err
			}
			first, err := ec.AddTask("record", map[string]any{"n": 1})
			if err != nil {
				return nil, err
			}
			if _, err := ec.AddTask("record", map[string]any{"n": 2}, first); err != nil {
				return nil, err
			}
			return t, nil
		}, nil
	})

	var postTasksFired bool
	engine := New(collection.NewStaticResolver(c), host, reg, WithHooks(domain.LifecycleHooks{
		OnPostTasks: func(ctx context.Context, event *domain.WorkflowEvent) {
			postTasksFired = true
			// Tasks only start after the commit finished.
			assert.Contains(t, host.applied, "write main.go")
		},
	}))

	result, err := engine.Execute(context.Background(), Request{Collection: "starter", Schematic: "gen"})
	require.NoError(t, err)
	assert.Equal(t, PhaseDone, result.Phase)
	assert.True(t, postTasksFired)
	assert.Equal(t, []string{"task 1", "task 2"}, order)
}

func TestExecute_DryRunReportsTasksWithoutResolving(t *testing.T) {
	host := newRecordingHost(nil)
	// Registry is empty: resolution would fail, but a dry run never resolves.
	c := ruleCollection("starter", func(options map[string]any) (rules.Rule, error) {
		return func(ctx context.Context, ec *rules.Context, t *tree.Tree) (*tree.Tree, error) {
			if _, err := ec.AddTask("not-registered", nil); err != nil {
				return nil, err
			}
			return t, nil
		}, nil
	})
	reporter := &recordingReporter{}
	engine := New(collection.NewStaticResolver(c), host, registry.New(), WithReporter(reporter))

	result, err := engine.Execute(context.Background(), Request{
		Collection: "starter",
		Schematic:  "gen",
		DryRun:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, PhaseDiscarded, result.Phase)
	require.Len(t, reporter.tasks, 1)
	assert.Equal(t, "not-registered", reporter.tasks[0].Executor)
}

func TestExecute_TaskFailureSurfacesAfterCommit(t *testing.T) {
	host := newRecordingHost(nil)
	reg := registry.New()
	boom := errors.New("boom")
	reg.Register("fails", tasks.Factory(func(options map[string]any) (tasks.Executor, error) {
		return func(ctx context.Context, options map[string]any, h ports.Host) error {
			return boom
		}, nil
	}), nil)

	c := ruleCollection("starter", func(options map[string]any) (rules.Rule, error) {
		return func(ctx context.Context, ec *rules.Context, t *tree.Tree) (*tree.Tree, error) {
			if err := t.Create("main.go", []byte("x")); err != nil {
				return nil, err
			}
			_, err := ec.AddTask("fails", nil)
			return t, err
		}, nil
	})
	engine := New(collection.NewStaticResolver(c), host, reg)

	result, err := engine.Execute(context.Background(), Request{Collection: "starter", Schematic: "gen"})

	var wf *domain.WorkflowError
	require.ErrorAs(t, err, &wf)
	assert.Equal(t, string(PhaseTasksRunning), wf.Phase)
	assert.ErrorIs(t, err, boom)
	// The commit itself stands; there is no rollback.
	assert.True(t, host.Exists("main.go"))
	assert.Equal(t, PhaseErrored, result.Phase)
}

func TestExecute_LifecycleHooksFireOnce(t *testing.T) {
	var starts, ends int
	engine, _ := newTestEngine(t, memory.NewHost(), WithHooks(domain.LifecycleHooks{
		OnStart: func(ctx context.Context, event *domain.WorkflowEvent) { starts++ },
		OnEnd: func(ctx context.Context, event *domain.WorkflowEvent) {
			ends++
			assert.NoError(t, event.Err)
		},
	}))

	_, err := engine.Execute(context.Background(), Request{
		Collection: "starter",
		Schematic:  "component",
		Options:    map[string]any{"name": "widget"},
		DryRun:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, ends)
}

func TestExecute_Cancellation(t *testing.T) {
	host := newRecordingHost(nil)
	engine, _ := newTestEngine(t, host)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Execute(ctx, Request{
		Collection: "starter",
		Schematic:  "component",
		Options:    map[string]any{"name": "widget"},
	})
	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.Empty(t, host.applied)
}

func TestExecute_RunSchematicTask(t *testing.T) {
	host := newRecordingHost(nil)
	reg := registry.New()

	c := collection.New("starter", "")
	c.Add(&collection.Schematic{Name: "base", Factory: func(options map[string]any) (rules.Rule, error) {
		return func(ctx context.Context, ec *rules.Context, t *tree.Tree) (*tree.Tree, error) {
			if err := t.Create("base.txt", []byte("base")); err != nil {
				return nil, err
			}
			_, err := ec.AddTask(tasks.ExecutorRunSchematic, map[string]any{
				"collection": "starter",
				"schematic":  "extra",
			})
			return t, err
		}, nil
	}})
	c.Add(&collection.Schematic{Name: "extra", Private: true, Factory: func(options map[string]any) (rules.Rule, error) {
		return func(ctx context.Context, ec *rules.Context, t *tree.Tree) (*tree.Tree, error) {
			return t, t.Create("extra.txt", []byte("extra"))
		}, nil
	}})

	engine := New(collection.NewStaticResolver(c), host, reg)

	result, err := engine.Execute(context.Background(), Request{Collection: "starter", Schematic: "base"})
	require.NoError(t, err)
	assert.Equal(t, PhaseDone, result.Phase)
	assert.True(t, host.Exists("base.txt"))
	assert.True(t, host.Exists("extra.txt"), "nested schematic committed against the same store")
}

func TestExecute_MetricsRecorded(t *testing.T) {
	host := newRecordingHost(nil)
	sink := &metricsSink{}
	engine, _ := newTestEngine(t, host, WithMetrics(sink))

	_, err := engine.Execute(context.Background(), Request{
		Collection: "starter",
		Schematic:  "component",
		Options:    map[string]any{"name": "widget"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"succeeded"}, sink.statuses)
	assert.Equal(t, []domain.ActionKind{domain.ActionCreate}, sink.actions)
}

type metricsSink struct {
	statuses []string
	actions  []domain.ActionKind
	tasks    []string
}

func (m *metricsSink) ExecutionFinished(status string) { m.statuses = append(m.statuses, status) }

func (m *metricsSink) ActionCommitted(kind domain.ActionKind) { m.actions = append(m.actions, kind) }

func (m *metricsSink) TaskObserved(executor string, d time.Duration, err error) {
	m.tasks = append(m.tasks, executor)
}
