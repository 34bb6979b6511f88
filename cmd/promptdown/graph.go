package main

import (
	"fmt"

	"github.com/aretw0/promptdown/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export the include graph visualization",
	Long: `Walks every include reachable from a document and outputs a Mermaid diagram
(graph TD). An include cycle is still drawn, highlighted, before the error is reported.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := cli.IncludeGraph(cmd.Context(), engineOptions(), args[0], newLogger(false))
		if out != "" {
			fmt.Fprint(cmd.OutOrStdout(), out)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
