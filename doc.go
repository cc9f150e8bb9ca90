/*
Package sapling is a code scaffolding engine built around a virtual file
tree: schematics describe file transformations as composable rules, the
engine simulates them against a staged overlay, and nothing touches the
real store until the simulation succeeds and is committed.

It separates the transformation description (Rules) from the staging area
(Tree) and the side effects (Hosts, Tasks). This Hexagonal Architecture
allows Sapling to be embedded in any interface: CLI, HTTP server, or a
larger code generation pipeline.

# Key Features

  - Staged Execution: every change is simulated on a virtual tree first;
    a failed schematic leaves the target untouched.
  - Composable Rules: chains, template sources, merges, moves and filters
    combine into larger transformations.
  - Deferred Tasks: package installs, git init and nested schematics run
    after a successful commit, in dependency order.
  - Hexagonal Architecture: core logic is decoupled from adapters
    (stores, reporters, lockers, HTTP).

# Usage

Initialize a Workspace against a target directory. Collections are read
from <root>/.sapling/collections by default, or injected with WithResolver.

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/sapling"
	)

	func main() {
		ws, err := sapling.New(".")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()

		// Simulate first.
		if _, err := ws.DryRun(ctx, "starter", "component", map[string]any{
			"name": "widget",
		}); err != nil {
			log.Fatal(err)
		}

		// Then commit for real.
		result, err := ws.Generate(ctx, "starter", "component", map[string]any{
			"name": "widget",
		})
		if err != nil {
			os.Exit(1)
		}
		log.Printf("committed %d actions", len(result.Actions))
	}
*/
package sapling
