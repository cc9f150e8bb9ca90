package tasks

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sapling/pkg/adapters/memory"
	"github.com/aretw0/sapling/pkg/adapters/osfs"
	"github.com/aretw0/sapling/pkg/registry"
)

type fakeRunner struct {
	commands []string
	dirs     []string
}

func (r *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	r.commands = append(r.commands, strings.Join(append([]string{name}, args...), " "))
	r.dirs = append(r.dirs, dir)
	return nil
}

func builtinExecutor(t *testing.T, reg *registry.Registry, name string, options map[string]any) Executor {
	t.Helper()
	entry, ok := reg.Get(name)
	require.True(t, ok, "executor %q not registered", name)
	factory, ok := entry.Value.(Factory)
	require.True(t, ok)
	executor, err := factory(options)
	require.NoError(t, err)
	return executor
}

func TestRegisterBuiltins_PackageInstall(t *testing.T) {
	reg := registry.New()
	runner := &fakeRunner{}
	RegisterBuiltins(reg, runner)

	host, err := osfs.NewHost(t.TempDir())
	require.NoError(t, err)

	options := map[string]any{"package": "left-pad", "quiet": true}
	executor := builtinExecutor(t, reg, ExecutorPackageInstall, options)
	require.NoError(t, executor(context.Background(), options, host))

	require.Len(t, runner.commands, 1)
	assert.Equal(t, "npm install left-pad --quiet", runner.commands[0])
	assert.Equal(t, host.Root(), runner.dirs[0])
}

func TestRegisterBuiltins_PackageLinkRequiresPackage(t *testing.T) {
	reg := registry.New()
	RegisterBuiltins(reg, &fakeRunner{})

	host, err := osfs.NewHost(t.TempDir())
	require.NoError(t, err)

	executor := builtinExecutor(t, reg, ExecutorPackageLink, nil)
	err = executor(context.Background(), nil, host)
	assert.ErrorContains(t, err, "package")
}

func TestRegisterBuiltins_RepoInit(t *testing.T) {
	reg := registry.New()
	runner := &fakeRunner{}
	RegisterBuiltins(reg, runner)

	host, err := osfs.NewHost(t.TempDir())
	require.NoError(t, err)

	options := map[string]any{"message": "scaffold"}
	executor := builtinExecutor(t, reg, ExecutorRepoInit, options)
	require.NoError(t, executor(context.Background(), options, host))

	assert.Equal(t, []string{
		"git init",
		"git add -A",
		"git commit -m scaffold",
	}, runner.commands)
}

func TestRegisterBuiltins_RepoInitSkipCommit(t *testing.T) {
	reg := registry.New()
	runner := &fakeRunner{}
	RegisterBuiltins(reg, runner)

	host, err := osfs.NewHost(t.TempDir())
	require.NoError(t, err)

	options := map[string]any{"skipCommit": true}
	executor := builtinExecutor(t, reg, ExecutorRepoInit, options)
	require.NoError(t, executor(context.Background(), options, host))

	assert.Equal(t, []string{"git init"}, runner.commands)
}

func TestRegisterBuiltins_RequireFilesystemRoot(t *testing.T) {
	reg := registry.New()
	RegisterBuiltins(reg, &fakeRunner{})

	executor := builtinExecutor(t, reg, ExecutorRepoInit, nil)
	err := executor(context.Background(), nil, memory.NewHost())
	assert.ErrorContains(t, err, "filesystem root")
}
