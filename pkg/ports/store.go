package ports

import "context"

// OutputStore defines where rendered sections are written when the caller asks for files
// instead of stdout.
type OutputStore interface {
	// Save writes data under name, replacing any previous content.
	Save(ctx context.Context, name string, data []byte) error

	// Load returns what was last saved under name.
	// Returns an error wrapping domain.ErrNotFound if nothing was saved.
	Load(ctx context.Context, name string) ([]byte, error)
}
