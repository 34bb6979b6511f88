package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/promptdown"
	"github.com/aretw0/promptdown/pkg/ports"
)

// RunWatch renders opts.Path, then renders again every time the document or
// anything it includes changes, until ctx is cancelled. Render failures are
// reported and the watcher keeps waiting for a fix.
func RunWatch(ctx context.Context, engine *promptdown.Engine, opts RenderOptions, logger *slog.Logger) error {
	watcher, ok := engine.Source().(ports.Watchable)
	if !ok {
		return fmt.Errorf("current source does not support watching")
	}

	// Watch the last successful dependency set; on failure keep the previous one
	// so fixing a broken include triggers a render.
	var deps []string
	if abs, err := filepath.Abs(opts.Path); err == nil {
		deps = []string{abs}
	}
	for {
		read, err := renderOnce(ctx, engine, opts, logger)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			PrintError(opts, err)
		}
		deps = union(deps, read)

		logger.Info("Waiting for changes", "files", len(deps))
		changed, err := waitForChange(ctx, watcher, deps)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		logger.Info("Change detected, rendering again")
	}
}

// waitForChange blocks until one of paths changes (true) or ctx ends (false).
func waitForChange(ctx context.Context, watcher ports.Watchable, paths []string) (bool, error) {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes, err := watcher.Watch(watchCtx, paths)
	if err != nil {
		return false, fmt.Errorf("failed to watch: %w", err)
	}

	select {
	case <-ctx.Done():
		return false, nil
	case _, ok := <-changes:
		return ok, nil
	}
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
