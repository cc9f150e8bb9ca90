package sapling

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/sapling/internal/logging"
	"github.com/aretw0/sapling/pkg/adapters/osfs"
	"github.com/aretw0/sapling/pkg/collection"
	"github.com/aretw0/sapling/pkg/domain"
	"github.com/aretw0/sapling/pkg/engine"
	"github.com/aretw0/sapling/pkg/ports"
	"github.com/aretw0/sapling/pkg/registry"
	"github.com/aretw0/sapling/pkg/tasks"
)

// Version is the build version, overridden at link time.
var Version = "dev"

// Workspace is the high-level entry point for the Sapling library. It wires
// the workflow engine to a target store and a collection resolver, and
// provides a simplified API for consumers.
type Workspace struct {
	engine   *engine.Engine
	resolver collection.Resolver
	host     ports.Host
	registry *registry.Registry
	reporter ports.Reporter
	logger   *slog.Logger
	locker   ports.Locker
	lockTTL  time.Duration
	hooks    domain.LifecycleHooks
	metrics  engine.Metrics
	runner   tasks.CommandRunner
	Name     string
}

// Option defines a functional option for configuring the Workspace.
type Option func(*Workspace)

// WithResolver injects a collection resolver, bypassing the default
// filesystem resolver.
func WithResolver(r collection.Resolver) Option {
	return func(w *Workspace) {
		w.resolver = r
	}
}

// WithHost injects a custom target store, bypassing the default
// directory-rooted one.
func WithHost(h ports.Host) Option {
	return func(w *Workspace) {
		w.host = h
	}
}

// WithReporter sets the event reporter fed during dry runs and commits.
func WithReporter(r ports.Reporter) Option {
	return func(w *Workspace) {
		w.reporter = r
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		w.logger = logger
	}
}

// WithLocker serializes executions targeting the same store through a
// distributed lock.
func WithLocker(locker ports.Locker, ttl time.Duration) Option {
	return func(w *Workspace) {
		w.locker = locker
		w.lockTTL = ttl
	}
}

// WithHooks registers workflow lifecycle hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(w *Workspace) {
		w.hooks = hooks
	}
}

// WithMetrics records execution outcomes into the given sink.
func WithMetrics(m engine.Metrics) Option {
	return func(w *Workspace) {
		w.metrics = m
	}
}

// WithCommandRunner replaces the os/exec runner used by shell-out task
// executors. Mostly useful in tests.
func WithCommandRunner(runner tasks.CommandRunner) Option {
	return func(w *Workspace) {
		w.runner = runner
	}
}

// New initializes a Workspace targeting the given directory. By default
// collections are resolved from <root>/.sapling/collections; inject
// WithResolver to change that, and WithHost to replace the store entirely
// (then root can be empty).
func New(root string, opts ...Option) (*Workspace, error) {
	w := &Workspace{
		registry: registry.New(),
		lockTTL:  30 * time.Second,
		runner:   tasks.ExecRunner{},
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.host == nil {
		if root == "" {
			return nil, fmt.Errorf("root is required when no custom host is provided")
		}
		host, err := osfs.NewHost(root)
		if err != nil {
			return nil, fmt.Errorf("failed to open workspace root: %w", err)
		}
		w.host = host
	}
	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		w.Name = filepath.Base(abs)
	}

	if w.resolver == nil {
		if root == "" {
			return nil, fmt.Errorf("root is required when no custom resolver is provided")
		}
		resolver, err := collection.NewFSResolver(filepath.Join(root, ".sapling", "collections"))
		if err != nil {
			return nil, err
		}
		w.resolver = resolver
	}

	if w.logger == nil {
		w.logger = logging.NewNop()
	}
	if w.Name != "" {
		w.logger = w.logger.With("workspace", w.Name)
	}

	tasks.RegisterBuiltins(w.registry, w.runner)

	engineOpts := []engine.Option{
		engine.WithLogger(w.logger),
		engine.WithHooks(w.hooks),
	}
	if w.reporter != nil {
		engineOpts = append(engineOpts, engine.WithReporter(w.reporter))
	}
	if w.locker != nil {
		engineOpts = append(engineOpts, engine.WithLocker(w.locker, w.lockTTL))
	}
	if w.metrics != nil {
		engineOpts = append(engineOpts, engine.WithMetrics(w.metrics))
	}
	w.engine = engine.New(w.resolver, w.host, w.registry, engineOpts...)

	return w, nil
}

// Generate runs a schematic and commits the result to the store.
func (w *Workspace) Generate(ctx context.Context, collectionName, schematicName string, options map[string]any) (*engine.Result, error) {
	return w.engine.Execute(ctx, engine.Request{
		Collection: collectionName,
		Schematic:  schematicName,
		Options:    options,
	})
}

// DryRun simulates a schematic and reports what would change, without
// touching the store or running tasks.
func (w *Workspace) DryRun(ctx context.Context, collectionName, schematicName string, options map[string]any) (*engine.Result, error) {
	return w.engine.Execute(ctx, engine.Request{
		Collection: collectionName,
		Schematic:  schematicName,
		Options:    options,
		DryRun:     true,
	})
}

// Execute runs a fully specified workflow request.
func (w *Workspace) Execute(ctx context.Context, req engine.Request) (*engine.Result, error) {
	return w.engine.Execute(ctx, req)
}

// Resolver returns the collection resolver used by the workspace.
func (w *Workspace) Resolver() collection.Resolver {
	return w.resolver
}

// Host returns the target store.
func (w *Workspace) Host() ports.Host {
	return w.host
}

// Registry returns the task executor registry, so hosts can register their
// own executors next to the built-ins.
func (w *Workspace) Registry() *registry.Registry {
	return w.registry
}

// Engine returns the underlying workflow engine.
func (w *Workspace) Engine() *engine.Engine {
	return w.engine
}
