// Package validator checks prompt documents without rendering them.
package validator

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/promptdown/pkg/domain"
)

// ConfigFileName is skipped when a directory is expanded.
const ConfigFileName = "promptdown.yaml"

// Engine is the part of the engine the validator needs.
type Engine interface {
	Load(path string) (domain.Document, error)
	CollectPlaceholders(ctx context.Context, doc domain.Document, deep bool) (domain.PlaceholderSet, error)
}

// FileResult is the outcome for one document.
type FileResult struct {
	Path         string
	Kind         domain.DocumentKind
	Placeholders []string
	Err          error
}

// Report lists the outcome of every validated document in input order.
type Report struct {
	Files []FileResult
}

// Failed returns the results that carry an error.
func (r Report) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Validate loads every document and deep-collects its placeholders, which
// parses each body and walks the whole include graph. Missing includes,
// cycles, syntax errors and schema violations are reported per file; one
// failure does not stop the others.
func Validate(ctx context.Context, engine Engine, paths []string) Report {
	var report Report
	for _, path := range paths {
		result := FileResult{Path: path}

		doc, err := engine.Load(path)
		if err != nil {
			result.Err = err
			report.Files = append(report.Files, result)
			continue
		}
		result.Path = doc.Path()
		result.Kind = doc.Kind()

		names, err := engine.CollectPlaceholders(ctx, doc, true)
		if err != nil {
			result.Err = err
		} else {
			result.Placeholders = names.Sorted()
		}
		report.Files = append(report.Files, result)
	}
	return report
}

// ExpandPaths replaces every directory in paths by the documents below it:
// manifests (.yaml, .yml, .json) and components (.pmd). Files named
// explicitly are kept whatever their extension. Hidden directories and the
// project config file are skipped.
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}

		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if isDocument(d.Name()) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", p, err)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

func isDocument(name string) bool {
	if name == ConfigFileName {
		return false
	}
	return domain.IsManifestPath(name) || strings.EqualFold(filepath.Ext(name), ".pmd")
}
