package engine

import (
	"context"
	"fmt"

	"github.com/aretw0/sapling/pkg/ports"
	"github.com/aretw0/sapling/pkg/schema"
	"github.com/aretw0/sapling/pkg/tasks"
)

// registerRunSchematic wires the nested-workflow executor into the task
// registry. It lives on the engine because the executor re-enters Execute
// against the freshly committed store.
func (e *Engine) registerRunSchematic() {
	e.registry.Register(tasks.ExecutorRunSchematic, tasks.Factory(func(options map[string]any) (tasks.Executor, error) {
		collectionName, _ := options["collection"].(string)
		schematicName, _ := options["schematic"].(string)
		if collectionName == "" || schematicName == "" {
			return nil, fmt.Errorf("run-schematic: %q and %q options are required", "collection", "schematic")
		}
		nested, _ := options["options"].(map[string]any)

		return func(ctx context.Context, _ map[string]any, host ports.Host) error {
			_, err := e.run(ctx, Request{
				Collection: collectionName,
				Schematic:  schematicName,
				Options:    nested,
			}, false)
			return err
		}, nil
	}), schema.Schema{
		"collection": {Type: schema.String(), Required: true},
		"schematic":  {Type: schema.String(), Required: true},
		"options":    {Type: schema.AnyValue()},
	})
}
