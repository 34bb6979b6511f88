package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/promptdown/internal/presentation/graph"
	"github.com/aretw0/promptdown/pkg/domain"
)

// IncludeGraph walks every include reachable from path and returns the Mermaid
// diagram of the graph. On a circular include the diagram is still returned,
// with the cycle highlighted, together with the error.
func IncludeGraph(ctx context.Context, opts EngineOptions, path string, logger *slog.Logger) (string, error) {
	var edges []graph.Edge
	opts.Hooks = append(opts.Hooks, domain.Hooks{
		OnIncludeEnter: func(_ context.Context, e *domain.IncludeEvent) {
			edges = append(edges, graph.Edge{From: e.From, To: e.Path, Section: e.Target.Section})
		},
	})

	engine, err := CreateEngine(opts, logger)
	if err != nil {
		return "", err
	}
	doc, err := engine.Load(path)
	if err != nil {
		return "", err
	}

	_, err = engine.CollectPlaceholders(ctx, doc, true)

	var overlay *graph.Overlay
	var cycle *domain.CircularIncludeError
	if errors.As(err, &cycle) && len(cycle.Chain) > 1 {
		// The closing include fails before it is entered.
		n := len(cycle.Chain)
		edges = append(edges, graph.Edge{From: cycle.Chain[n-2], To: cycle.Chain[n-1]})
		overlay = &graph.Overlay{Cycle: cycle.Chain}
	} else if err != nil {
		return "", err
	}

	return graph.GenerateMermaid(doc.Path(), edges, engine.Root(), overlay), err
}
