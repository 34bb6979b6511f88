package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/natefinch/atomic"
)

// Store implements ports.OutputStore using the local filesystem.
// It writes each rendered section as a file in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to "out".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = "out"
	}
	return &Store{BasePath: basePath}
}

// Save writes data to BasePath/name atomically.
// Readers never observe a half-written file: the content goes to a temporary file
// in the same directory which is then renamed over the destination.
func (s *Store) Save(ctx context.Context, name string, data []byte) error {
	destPath, err := s.path(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to ensure output directory: %w", err)
	}

	if err := atomic.WriteFile(destPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return nil
}

// Load reads back BasePath/name.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	destPath, err := s.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(destPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("output %s: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read output file: %w", err)
	}
	return data, nil
}

// path keeps name inside BasePath.
func (s *Store) path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("output name cannot be empty")
	}
	clean := filepath.Clean(name)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("output name %q escapes the output directory", name)
	}
	return filepath.Join(s.BasePath, clean), nil
}
