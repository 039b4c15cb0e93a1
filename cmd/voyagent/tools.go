package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List available tools",
	Long: `List every tool the assistant can call: the built-in ones plus
whatever the configured tool servers expose.

Examples:
  voyagent tools           # names and descriptions
  voyagent tools --verbose # include parameter schemas`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTools()
	},
}

func runTools() error {
	ctx := context.Background()
	application, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	specs := application.registry.List()
	for _, spec := range specs {
		fmt.Printf("%s\n", spec.Name)
		fmt.Printf("    %s\n", spec.Description)
		if verbose && spec.Parameters != nil {
			if props, ok := spec.Parameters["properties"].(map[string]any); ok {
				for name := range props {
					fmt.Printf("    - %s\n", name)
				}
			}
		}
	}
	fmt.Printf("\nTotal: %d tools available\n", len(specs))
	if !verbose {
		fmt.Println("Use --verbose for parameter details")
	}
	return nil
}
