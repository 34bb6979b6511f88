package memory

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/aretw0/promptdown/pkg/domain"
)

// Loader implements ports.Source using an in-memory map of absolute paths to content.
// It is read-only after construction and therefore safe for concurrent use.
type Loader struct {
	files map[string][]byte
}

// NewLoader creates a new Loader with the provided files (absolute path -> content).
// Paths are cleaned so that "/p/./a.pmd" and "/p/a.pmd" name the same file.
func NewLoader(files map[string]string) *Loader {
	data := make(map[string][]byte, len(files))
	for path, content := range files {
		data[filepath.Clean(path)] = []byte(content)
	}
	return &Loader{files: data}
}

// ReadFile returns the content stored at path.
func (l *Loader) ReadFile(path string) ([]byte, error) {
	content, ok := l.files[filepath.Clean(path)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	return content, nil
}

// Exists reports whether a file was seeded at path.
func (l *Loader) Exists(path string) (bool, error) {
	_, ok := l.files[filepath.Clean(path)]
	return ok, nil
}

// Paths returns all seeded paths in lexical order.
func (l *Loader) Paths() []string {
	keys := make([]string, 0, len(l.files))
	for k := range l.files {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys
}
