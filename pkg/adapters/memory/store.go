package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/promptdown/pkg/domain"
)

// Store implements ports.OutputStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save keeps a copy of data under name.
func (s *Store) Save(ctx context.Context, name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("output name cannot be empty")
	}

	// Copy to ensure isolation, similar to writing to disk
	copied := append([]byte(nil), data...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = copied
	return nil
}

// Load retrieves a copy of what was saved under name.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[name]
	if !ok {
		return nil, fmt.Errorf("output %s: %w", name, domain.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// Names returns every saved output name.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	return names
}
