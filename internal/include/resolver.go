package include

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/aretw0/promptdown/pkg/ports"
)

// Resolver resolves include paths relative to the including document.
type Resolver struct {
	source ports.Source
	root   string
}

// NewResolver creates a Resolver backed by source. When root is not empty,
// resolved paths must stay inside it.
func NewResolver(source ports.Source, root string) *Resolver {
	if root != "" {
		root = filepath.Clean(root)
	}
	return &Resolver{source: source, root: root}
}

// Root returns the project root, or "" when resolution is unconfined.
func (r *Resolver) Root() string { return r.root }

// Resolve returns the identity of the file raw names, relative to the directory of from.
// Empty and absolute paths fail with *domain.InvalidIncludePathError, as do paths
// escaping the project root. A missing file fails with *domain.IncludeNotFoundError.
func (r *Resolver) Resolve(from, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &domain.InvalidIncludePathError{Raw: raw, IncludedFrom: from, Reason: "path is empty"}
	}
	if filepath.IsAbs(trimmed) || strings.HasPrefix(trimmed, "/") {
		return "", &domain.InvalidIncludePathError{Raw: raw, IncludedFrom: from, Reason: "absolute paths are not allowed"}
	}

	resolved := filepath.Clean(filepath.Join(filepath.Dir(from), filepath.FromSlash(trimmed)))

	if r.root != "" && !Within(r.root, resolved) {
		return "", &domain.InvalidIncludePathError{Raw: raw, IncludedFrom: from, Reason: "path escapes project root " + r.root}
	}

	ok, err := r.source.Exists(resolved)
	if err != nil {
		return "", fmt.Errorf("resolve %q from %s: %w", raw, from, err)
	}
	if !ok {
		return "", &domain.IncludeNotFoundError{Path: resolved, IncludedFrom: from}
	}
	return resolved, nil
}

// Within reports whether path is root itself or lies below it.
func Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Abs returns the identity of a top-level document path given by a caller.
func Abs(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("document path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return filepath.Clean(abs), nil
}
