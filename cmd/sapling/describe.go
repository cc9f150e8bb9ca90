package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/sapling/internal/presentation/report"
)

var describeCmd = &cobra.Command{
	Use:   "describe <collection> <schematic>",
	Short: "Show a schematic's declared options",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ws, err := newWorkspace(cmd)
		if err != nil {
			fmt.Printf("Error initializing sapling: %v\n", err)
			os.Exit(1)
		}

		c, err := ws.Resolver().Resolve(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		schematic, err := c.Schematic(args[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		markdown := report.DescribeSchematic(c.Name, schematic)
		render := report.NewMarkdownRenderer()
		out, err := render(markdown)
		if err != nil {
			// Fall back to the raw markdown on rendering failures.
			fmt.Println(markdown)
			return
		}
		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
