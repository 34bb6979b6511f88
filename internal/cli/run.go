package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/promptdown"
	"github.com/aretw0/promptdown/internal/logging"
	"github.com/aretw0/promptdown/internal/presentation/tui"
	"github.com/aretw0/promptdown/pkg/domain"
	"golang.org/x/term"
)

// Execute handles the render command: it renders opts.Path, or lists its
// placeholders, and writes the result to stdout or opts.OutDir.
func Execute(ctx context.Context, opts RenderOptions) error {
	logger := createLogger(opts)

	engine, err := CreateEngine(EngineOptions{
		Root:         opts.Root,
		Schema:       opts.Schema,
		ClosedSchema: opts.ClosedSchema,
		Strict:       opts.Strict,
	}, logger)
	if err != nil {
		return err
	}

	if opts.Watch {
		if opts.Placeholders {
			return fmt.Errorf("--watch and --placeholders cannot be used together")
		}
		return RunWatch(ctx, engine, opts, logger)
	}

	_, err = renderOnce(ctx, engine, opts, logger)
	return err
}

// renderOnce performs one render or placeholder listing and returns the files it read.
func renderOnce(ctx context.Context, engine *promptdown.Engine, opts RenderOptions, logger *slog.Logger) ([]string, error) {
	doc, err := engine.Load(opts.Path)
	if err != nil {
		return nil, err
	}

	if opts.Placeholders {
		names, err := engine.CollectSectionPlaceholders(ctx, doc, opts.Section, !opts.Shallow)
		if err != nil {
			return []string{doc.Path()}, err
		}
		return []string{doc.Path()}, writePlaceholders(ctx, doc, names.Sorted(), opts, logger)
	}

	vars, err := opts.variables()
	if err != nil {
		return []string{doc.Path()}, err
	}

	out, err := engine.RenderSection(ctx, doc, opts.Section, vars, engine.Policy())
	if err != nil {
		return []string{doc.Path()}, err
	}
	return out.Dependencies, writeRendered(ctx, out, opts, logger)
}

func writePlaceholders(ctx context.Context, doc domain.Document, names []string, opts RenderOptions, logger *slog.Logger) error {
	if opts.JSON {
		return emit(ctx, opts, logger, doc.Path(), ".placeholders.json", func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Document     string   `json:"document"`
				Placeholders []string `json:"placeholders"`
			}{doc.Path(), names})
		})
	}
	return emit(ctx, opts, logger, doc.Path(), ".placeholders.txt", func(w io.Writer) error {
		for _, n := range names {
			if _, err := fmt.Fprintln(w, n); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeRendered(ctx context.Context, out *domain.Rendered, opts RenderOptions, logger *slog.Logger) error {
	if opts.JSON {
		return emit(ctx, opts, logger, out.Document, ".json", func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		})
	}

	text, err := out.Join()
	if err != nil {
		return err
	}

	// Only pretty-print for a human at a terminal, never into files or pipes.
	if opts.Pretty && opts.OutDir == "" && isTerminal(opts.stdout()) {
		render, err := tui.NewRenderer(terminalWidth(opts.stdout()))
		if err != nil {
			return err
		}
		if text, err = render(text); err != nil {
			return fmt.Errorf("failed to render markdown: %w", err)
		}
		_, err = io.WriteString(opts.stdout(), text)
		return err
	}

	return emit(ctx, opts, logger, out.Document, ".md", func(w io.Writer) error {
		_, err := io.WriteString(w, text+"\n")
		return err
	})
}

// emit writes to stdout, or to OutDir as <document name><suffix> when set.
func emit(ctx context.Context, opts RenderOptions, logger *slog.Logger, document, suffix string, write func(io.Writer) error) error {
	if opts.OutDir == "" {
		return write(opts.stdout())
	}

	var b strings.Builder
	if err := write(&b); err != nil {
		return err
	}

	base := filepath.Base(document)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + suffix
	if err := opts.output().Save(ctx, name, []byte(b.String())); err != nil {
		return err
	}
	logger.Info("Output written", "path", filepath.Join(opts.OutDir, name))
	return nil
}

// createLogger configures the application logger. Debug forces debug level;
// otherwise the configured level applies.
func createLogger(opts RenderOptions) *slog.Logger {
	if opts.Debug {
		return logging.New(slog.LevelDebug)
	}
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.New(level)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
