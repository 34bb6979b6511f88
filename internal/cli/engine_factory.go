package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/promptdown"
	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/aretw0/promptdown/pkg/observability"
)

// EngineOptions are the settings shared by every command that builds an engine.
type EngineOptions struct {
	Root         string
	Schema       string
	ClosedSchema bool
	Strict       bool
	Hooks        []domain.Hooks
}

// CreateEngine initializes an engine with standard CLI conventions: includes are
// confined to Root when set, and traversal events are logged at debug level.
func CreateEngine(opts EngineOptions, logger *slog.Logger) (*promptdown.Engine, error) {
	policy := domain.PermissivePolicy
	if opts.Strict {
		policy = domain.StrictPolicy
	}

	hooks := append([]domain.Hooks{observability.LoggingHooks(logger)}, opts.Hooks...)
	engineOpts := []promptdown.Option{
		promptdown.WithHooks(observability.Combine(hooks...)),
		promptdown.WithPolicy(policy),
	}

	if opts.Root != "" {
		engineOpts = append(engineOpts, promptdown.WithRoot(opts.Root))
	}

	if opts.Schema != "" {
		data, err := os.ReadFile(opts.Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema: %w", err)
		}
		s, err := promptdown.LoadSchema(opts.Schema, data)
		if err != nil {
			return nil, err
		}
		engineOpts = append(engineOpts, promptdown.WithManifestSchema(s))
	}
	if opts.ClosedSchema {
		engineOpts = append(engineOpts, promptdown.WithClosedSchema())
	}

	engine, err := promptdown.New(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}
