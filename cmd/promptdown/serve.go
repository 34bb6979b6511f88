package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/promptdown"
	httpAdapter "github.com/aretw0/promptdown/internal/adapters/http"
	"github.com/aretw0/promptdown/internal/cli"
	"github.com/aretw0/promptdown/internal/presentation/tui"
	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/aretw0/promptdown/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves POST /render and POST /placeholders over HTTP, with GET /healthz
and Prometheus metrics on GET /metrics. Request paths are taken relative to --root.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		noBanner, _ := cmd.Flags().GetBool("no-banner")
		debug, _ := cmd.Flags().GetBool("debug")
		logger := newLogger(debug)

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := observability.NewMetrics(reg)

		opts := engineOptions()
		opts.Hooks = []domain.Hooks{metrics.Hooks()}
		engine, err := cli.CreateEngine(opts, logger)
		if err != nil {
			return err
		}

		if !noBanner {
			tui.PrintBanner(cmd.ErrOrStderr(), strings.TrimSpace(promptdown.Version))
			fmt.Fprintf(cmd.ErrOrStderr(), "  serving %s on %s\n\n", displayRoot(engine.Root()), cfg.Addr)
		}

		ctx := cmd.Context()
		err = httpAdapter.ListenAndServe(ctx, cfg.Addr, httpAdapter.NewHandler(engine, logger, reg), logger)
		if sc, ok := ctx.(*cli.SignalContext); ok && sc.Signal() != nil {
			logger.Info("Server stopped", "signal", sc.Signal().String())
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Address to listen on (default :8080)")
	serveCmd.Flags().Bool("no-banner", false, "Do not print the startup banner")
	serveCmd.Flags().Bool("debug", false, "Log every request and include at debug level")
}

func displayRoot(root string) string {
	if root == "" {
		return "the whole filesystem"
	}
	return root
}
