package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/promptdown"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of promptdown",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "promptdown version %s\n", strings.TrimSpace(promptdown.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
