package main

import (
	"fmt"

	"github.com/aretw0/tandem"
	"github.com/aretw0/tandem/internal/presentation/graph"
	"github.com/aretw0/tandem/pkg/agents"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the workflow graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the agent workflow. No credentials are needed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Only names and topology are rendered, so the agents need no capabilities.
		g, err := tandem.BuildGraph(
			agents.NewResearcher(nil, nil),
			agents.NewChartGenerator(nil, nil),
		)
		if err != nil {
			return fmt.Errorf("failed to build graph: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
