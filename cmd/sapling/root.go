package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/aretw0/sapling"
	"github.com/aretw0/sapling/internal/logging"
	"github.com/aretw0/sapling/internal/presentation/report"
	redisadapter "github.com/aretw0/sapling/pkg/adapters/redis"
	"github.com/aretw0/sapling/pkg/collection"
)

var rootCmd = &cobra.Command{
	Use:   "sapling",
	Short: "Sapling is a virtual-tree code scaffolding engine",
	Long:  `Sapling runs schematics against a staged virtual file tree: changes are simulated and reported first, and only committed to disk when the whole transformation succeeds.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Target directory for generated files")
	rootCmd.PersistentFlags().String("collections", "", "Collections directory (default <dir>/.sapling/collections)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// newWorkspace builds a Workspace from the persistent flags.
func newWorkspace(cmd *cobra.Command, extra ...sapling.Option) (*sapling.Workspace, error) {
	dir, _ := cmd.Flags().GetString("dir")
	collectionsDir, _ := cmd.Flags().GetString("collections")
	debug, _ := cmd.Flags().GetBool("debug")

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := []sapling.Option{
		sapling.WithLogger(logging.New(level)),
		sapling.WithReporter(report.NewConsoleReporter(os.Stdout)),
	}
	if collectionsDir != "" {
		resolver, err := collection.NewFSResolver(collectionsDir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sapling.WithResolver(resolver))
	}
	opts = append(opts, extra...)
	return sapling.New(dir, opts...)
}

// lockerOptions wires a Redis locker when --redis-lock is set.
func lockerOptions(cmd *cobra.Command) []sapling.Option {
	addr, _ := cmd.Flags().GetString("redis-lock")
	if addr == "" {
		return nil
	}
	client := backend.NewClient(&backend.Options{Addr: addr})
	locker := redisadapter.NewLocker(client, "sapling:")
	return []sapling.Option{sapling.WithLocker(locker, 30 * time.Second)}
}
