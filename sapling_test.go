package sapling_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sapling"
	"github.com/aretw0/sapling/pkg/adapters/memory"
	"github.com/aretw0/sapling/pkg/collection"
	"github.com/aretw0/sapling/pkg/domain"
	"github.com/aretw0/sapling/pkg/engine"
	"github.com/aretw0/sapling/pkg/rules"
	"github.com/aretw0/sapling/pkg/schema"
	"github.com/aretw0/sapling/pkg/tasks"
	"github.com/aretw0/sapling/pkg/tree"
)

type fakeRunner struct {
	commands []string
}

func (r *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	r.commands = append(r.commands, strings.Join(append([]string{name}, args...), " "))
	return nil
}

// newWorkspaceDir lays out a target directory with an embedded collection,
// the default on-disk layout.
func newWorkspaceDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, ".sapling", "collections", "starter")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "component"), 0o755))

	manifest := `name: starter
schematics:
  component:
    description: generates a component
    templates: component
    schema:
      name:
        type: string
        required: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "collection.yaml"), []byte(manifest), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "component", "__name__.go"),
		[]byte("package {{.name}}\n"),
		0o644,
	))
	return root
}

func TestWorkspace_DryRunThenGenerate(t *testing.T) {
	root := newWorkspaceDir(t)
	ws, err := sapling.New(root)
	require.NoError(t, err)
	ctx := context.Background()

	result, err := ws.DryRun(ctx, "starter", "component", map[string]any{"name": "widget"})
	require.NoError(t, err)
	require.Len(t, result.Actions, 1)
	assert.Equal(t, domain.ActionCreate, result.Actions[0].Kind)
	assert.NoFileExists(t, filepath.Join(root, "widget.go"))

	_, err = ws.Generate(ctx, "starter", "component", map[string]any{"name": "widget"})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(root, "widget.go"))
	require.NoError(t, err)
	assert.Equal(t, "package widget\n", string(content))
}

func TestWorkspace_GenerateValidatesOptions(t *testing.T) {
	ws, err := sapling.New(newWorkspaceDir(t))
	require.NoError(t, err)

	_, err = ws.Generate(context.Background(), "starter", "component", nil)
	var agg *schema.AggregateError
	assert.ErrorAs(t, err, &agg)
}

func TestWorkspace_UnknownCollection(t *testing.T) {
	ws, err := sapling.New(newWorkspaceDir(t))
	require.NoError(t, err)

	_, err = ws.Generate(context.Background(), "nope", "component", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownCollection)
}

func TestWorkspace_TasksUseInjectedRunner(t *testing.T) {
	root := t.TempDir()
	runner := &fakeRunner{}

	c := collection.New("starter", "")
	c.Add(&collection.Schematic{
		Name: "app",
		Factory: func(options map[string]any) (rules.Rule, error) {
			return rules.Chain(
				rules.MergeWith(rules.Apply(rules.FromHost(memory.NewHostFrom(map[string]string{
					"main.go": "package main\n",
				}))), domain.MergeDefault),
				func(ctx context.Context, ec *rules.Context, t *tree.Tree) (*tree.Tree, error) {
					_, err := ec.AddTask(tasks.ExecutorRepoInit, map[string]any{"skipCommit": true})
					return t, err
				},
			), nil
		},
	})

	ws, err := sapling.New(root,
		sapling.WithResolver(collection.NewStaticResolver(c)),
		sapling.WithCommandRunner(runner),
	)
	require.NoError(t, err)

	result, err := ws.Generate(context.Background(), "starter", "app", nil)
	require.NoError(t, err)
	assert.Equal(t, engine.PhaseDone, result.Phase)
	assert.FileExists(t, filepath.Join(root, "main.go"))
	assert.Equal(t, []string{"git init"}, runner.commands)
}

func TestWorkspace_CustomHostSkipsRoot(t *testing.T) {
	host := memory.NewHost()
	c := collection.New("starter", "")
	c.Add(&collection.Schematic{Name: "noop", Factory: func(map[string]any) (rules.Rule, error) {
		return rules.Noop(), nil
	}})

	ws, err := sapling.New("",
		sapling.WithHost(host),
		sapling.WithResolver(collection.NewStaticResolver(c)),
	)
	require.NoError(t, err)

	result, err := ws.Generate(context.Background(), "starter", "noop", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Actions)
}

func TestWorkspace_RequiresRootWithoutHost(t *testing.T) {
	_, err := sapling.New("")
	assert.Error(t, err)
}
