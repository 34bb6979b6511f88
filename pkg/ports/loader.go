package ports

import "context"

// Source defines how the engine reads documents.
// This allows the storage layer (FS, Memory) to be decoupled from resolution.
// Paths are cleaned absolute paths; the resolver is responsible for producing them.
type Source interface {
	// ReadFile returns the raw bytes of the document at path.
	// It returns an error wrapping domain.ErrNotFound when the file does not exist.
	ReadFile(path string) ([]byte, error)

	// Exists reports whether a regular file exists at path.
	Exists(path string) (bool, error)
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is typically used for re-render on save (`promptdown render --watch`).
type Watchable interface {
	// Watch returns a channel that is signaled when one of the given paths changes.
	// It abstracts away the specific event details, signaling only that a re-render is required.
	Watch(ctx context.Context, paths []string) (<-chan struct{}, error)
}
