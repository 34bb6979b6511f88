package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/promptdown/pkg/domain"
)

// Combine returns hooks that call every non-nil callback of each argument, in order.
func Combine(all ...domain.Hooks) domain.Hooks {
	var out domain.Hooks

	var starts, finishes []func(context.Context, *domain.RenderEvent)
	var enters, leaves []func(context.Context, *domain.IncludeEvent)
	for _, h := range all {
		if h.OnRenderStart != nil {
			starts = append(starts, h.OnRenderStart)
		}
		if h.OnRenderFinish != nil {
			finishes = append(finishes, h.OnRenderFinish)
		}
		if h.OnIncludeEnter != nil {
			enters = append(enters, h.OnIncludeEnter)
		}
		if h.OnIncludeLeave != nil {
			leaves = append(leaves, h.OnIncludeLeave)
		}
	}

	if len(starts) > 0 {
		out.OnRenderStart = fanRender(starts)
	}
	if len(finishes) > 0 {
		out.OnRenderFinish = fanRender(finishes)
	}
	if len(enters) > 0 {
		out.OnIncludeEnter = fanInclude(enters)
	}
	if len(leaves) > 0 {
		out.OnIncludeLeave = fanInclude(leaves)
	}
	return out
}

func fanRender(fns []func(context.Context, *domain.RenderEvent)) func(context.Context, *domain.RenderEvent) {
	return func(ctx context.Context, e *domain.RenderEvent) {
		for _, fn := range fns {
			fn(ctx, e)
		}
	}
}

func fanInclude(fns []func(context.Context, *domain.IncludeEvent)) func(context.Context, *domain.IncludeEvent) {
	return func(ctx context.Context, e *domain.IncludeEvent) {
		for _, fn := range fns {
			fn(ctx, e)
		}
	}
}

// LoggingHooks logs traversal events: includes at debug level, finished calls at
// info level, or error level when they failed.
func LoggingHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnRenderFinish: func(ctx context.Context, e *domain.RenderEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, e.Mode+" failed",
					"document", e.Document,
					"duration", e.Duration,
					"error", e.Err,
				)
				return
			}
			logger.InfoContext(ctx, e.Mode+" finished",
				"document", e.Document,
				"duration", e.Duration,
			)
		},
		OnIncludeEnter: func(ctx context.Context, e *domain.IncludeEvent) {
			logger.DebugContext(ctx, "include_enter",
				"from", e.From,
				"target", e.Target.String(),
				"path", e.Path,
				"depth", e.Depth,
			)
		},
		OnIncludeLeave: func(ctx context.Context, e *domain.IncludeEvent) {
			logger.DebugContext(ctx, "include_leave", "path", e.Path)
		},
	}
}
