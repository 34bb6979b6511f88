package main

import (
	"log/slog"

	"github.com/aretw0/promptdown/internal/cli"
	"github.com/aretw0/promptdown/internal/config"
	"github.com/aretw0/promptdown/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// cfg is resolved before any subcommand runs.
	cfg *config.Config
	v   = config.New()

	// jsonErrors makes main print the failure as JSON on stdout.
	jsonErrors bool
)

// flagKeys binds command-line flags to configuration keys.
var flagKeys = map[string]string{
	"root":          config.KeyRoot,
	"log-level":     config.KeyLogLevel,
	"schema":        config.KeySchema,
	"closed-schema": config.KeyClosed,
	"outdir":        config.KeyOutDir,
	"addr":          config.KeyAddr,
}

var rootCmd = &cobra.Command{
	Use:   "promptdown",
	Short: "Promptdown renders prompt documents made of manifests and components",
	Long: `Promptdown loads prompt manifests (YAML or JSON with named sections) and
text components, resolves their includes and renders the final text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd, v); err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(v, file)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./promptdown.yaml)")
	rootCmd.PersistentFlags().String("root", "", "Project root; includes may not leave it")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("schema", "", "Manifest schema descriptor (YAML or JSON)")
	rootCmd.PersistentFlags().Bool("closed-schema", false, "Reject manifest fields the schema does not declare")
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for name, key := range flagKeys {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return err
			}
		}
	}
	return nil
}

// newLogger builds the logger for the resolved log level; --debug wins.
func newLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	return logging.New(level)
}

func engineOptions() cli.EngineOptions {
	return cli.EngineOptions{
		Root:         cfg.Root,
		Schema:       cfg.Schema,
		ClosedSchema: cfg.Closed,
		Strict:       cfg.Strict,
	}
}
