package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/sapling/pkg/engine"
)

var generateCmd = &cobra.Command{
	Use:     "generate <collection> <schematic> [key=value ...]",
	Aliases: []string{"g"},
	Short:   "Run a schematic against the target directory",
	Long: `Runs a schematic. Options are passed as key=value pairs. With --dry-run
the planned changes are reported but nothing is written.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		force, _ := cmd.Flags().GetBool("force")
		debug, _ := cmd.Flags().GetBool("debug")

		options, err := parseOptions(args[2:])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		ws, err := newWorkspace(cmd, lockerOptions(cmd)...)
		if err != nil {
			fmt.Printf("Error initializing sapling: %v\n", err)
			os.Exit(1)
		}

		result, err := ws.Execute(cmd.Context(), engine.Request{
			Collection: args[0],
			Schematic:  args[1],
			Options:    options,
			DryRun:     dryRun,
			Force:      force,
			Debug:      debug,
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if dryRun {
			fmt.Printf("Dry run: %d action(s), %d task(s). Nothing was written.\n",
				len(result.Actions), len(result.Tasks))
			return
		}
		fmt.Printf("Committed %d action(s).\n", len(result.Actions))
	},
}

// parseOptions turns key=value arguments into an options map. Values stay
// strings except the true/false literals; schemas do not coerce, so numeric
// options should use the HTTP or library APIs.
func parseOptions(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	options := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid option %q, expected key=value", arg)
		}
		switch value {
		case "true":
			options[key] = true
		case "false":
			options[key] = false
		default:
			options[key] = value
		}
	}
	return options, nil
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().Bool("dry-run", false, "Report changes without writing them")
	generateCmd.Flags().Bool("force", false, "Overwrite conflicting files")
	generateCmd.Flags().String("redis-lock", "", "Redis address used to serialize runs against a shared target")
}
