package tests

import (
	"errors"
	"testing"

	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/aretw0/promptdown/pkg/ports"
)

// SourceContractTest is a reusable test suite that verifies if an adapter complies with ports.Source.
// setupData maps absolute paths to the content the source was seeded with.
func SourceContractTest(t *testing.T, source ports.Source, setupData map[string][]byte, missing string) {
	t.Helper()

	// 1. Test ReadFile (Success)
	t.Run("ReadFile_Success", func(t *testing.T) {
		for path, expectedContent := range setupData {
			content, err := source.ReadFile(path)
			if err != nil {
				t.Fatalf("unexpected error reading %s: %v", path, err)
			}
			if string(content) != string(expectedContent) {
				t.Errorf("content mismatch for %s. got %q, want %q", path, content, expectedContent)
			}
		}
	})

	// 2. Test ReadFile (NotFound)
	t.Run("ReadFile_NotFound", func(t *testing.T) {
		_, err := source.ReadFile(missing)
		if err == nil {
			t.Fatal("expected error for missing file, got nil")
		}
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected error wrapping domain.ErrNotFound, got %v", err)
		}
	})

	// 3. Test Exists
	t.Run("Exists", func(t *testing.T) {
		for path := range setupData {
			ok, err := source.Exists(path)
			if err != nil {
				t.Fatalf("unexpected error checking %s: %v", path, err)
			}
			if !ok {
				t.Errorf("expected %s to exist", path)
			}
		}

		ok, err := source.Exists(missing)
		if err != nil {
			t.Fatalf("unexpected error checking %s: %v", missing, err)
		}
		if ok {
			t.Errorf("expected %s to be missing", missing)
		}
	})
}
