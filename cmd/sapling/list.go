package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [collection]",
	Short: "List available collections, or the schematics of one",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ws, err := newWorkspace(cmd)
		if err != nil {
			fmt.Printf("Error initializing sapling: %v\n", err)
			os.Exit(1)
		}

		if len(args) == 0 {
			names, err := ws.Resolver().List()
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			if len(names) == 0 {
				fmt.Println("No collections found.")
				return
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return
		}

		c, err := ws.Resolver().Resolve(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		for _, name := range c.Names() {
			fmt.Println(name)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
