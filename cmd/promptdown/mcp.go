package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aretw0/promptdown/internal/cli"
	"github.com/aretw0/promptdown/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the render_prompt and list_placeholders tools to AI agents.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		debug, _ := cmd.Flags().GetBool("debug")
		logger := newLogger(debug)

		engine, err := cli.CreateEngine(engineOptions(), logger)
		if err != nil {
			return err
		}
		srv := mcp.NewServer(engine, logger)

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("Starting MCP server (stdio)")
			return srv.ServeStdio(cmd.Context(), os.Stdin, os.Stdout)
		case "sse":
			return srv.ServeSSE(cmd.Context(), cfg.Addr)
		default:
			return fmt.Errorf("unknown transport %q: supported are stdio and sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", "", "Address to listen on (only for SSE, default :8080)")
	mcpCmd.Flags().Bool("debug", false, "Log every tool call at debug level")
}
