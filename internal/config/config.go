// Package config loads CLI and server settings with viper from, in increasing
// priority: defaults, a promptdown.yaml file, PROMPTDOWN_* environment variables
// and command-line flags bound by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/promptdown/internal/logging"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable, e.g. PROMPTDOWN_LOG_LEVEL.
const EnvPrefix = "PROMPTDOWN"

// Keys understood in the config file and the environment.
const (
	KeyStrict   = "strict"
	KeyRoot     = "root"
	KeyLogLevel = "log_level"
	KeyOutDir   = "outdir"
	KeyAddr     = "addr"
	KeySchema   = "schema"
	KeyClosed   = "closed_schema"
	KeyVars     = "vars"
)

// Config is the resolved configuration.
type Config struct {
	Strict   bool   `mapstructure:"strict"`
	Root     string `mapstructure:"root"`
	LogLevel string `mapstructure:"log_level"`
	OutDir   string `mapstructure:"outdir"`
	Addr     string `mapstructure:"addr"`
	// Schema is the path of a manifest schema descriptor; empty means the default schema.
	Schema string `mapstructure:"schema"`
	Closed bool   `mapstructure:"closed_schema"`
	// Vars are the lowest-priority render variables.
	Vars map[string]any `mapstructure:"-"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// New returns a viper instance with defaults and environment binding in place.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyStrict, true)
	v.SetDefault(KeyRoot, "")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyOutDir, "")
	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeySchema, "")
	v.SetDefault(KeyClosed, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file, or promptdown.yaml in the working directory when file is empty,
// and resolves the configuration. A missing default file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("promptdown")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	// viper lowercases keys; variable names are case-sensitive, so they are read
	// from the file directly.
	if cfg.File != "" {
		vars, err := readVars(cfg.File)
		if err != nil {
			return nil, err
		}
		cfg.Vars = vars
	}

	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func readVars(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var doc struct {
		Vars map[string]any `yaml:"vars"`
	}
	// JSON config files are valid YAML.
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode vars in %s: %w", path, err)
	}
	return doc.Vars, nil
}
