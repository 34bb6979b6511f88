package runtime

import (
	"fmt"

	"github.com/aretw0/promptdown/internal/compiler"
	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/aretw0/promptdown/pkg/ports"
)

// Loader reads documents from a Source and parses them.
type Loader struct {
	source ports.Source
	parser *compiler.Parser
}

// NewLoader creates a loader. A nil parser uses the default manifest schema.
func NewLoader(source ports.Source, parser *compiler.Parser) *Loader {
	if parser == nil {
		parser = compiler.NewParser(nil, false)
	}
	return &Loader{source: source, parser: parser}
}

// Source returns the underlying source.
func (l *Loader) Source() ports.Source { return l.source }

// Load reads the document at id, choosing manifest or component by extension.
func (l *Loader) Load(id string) (domain.Document, error) {
	data, err := l.source.ReadFile(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", id, err)
	}
	return l.parser.Parse(id, data)
}

// LoadManifest reads id as a manifest whatever its extension.
func (l *Loader) LoadManifest(id string) (*domain.Manifest, error) {
	data, err := l.source.ReadFile(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", id, err)
	}
	return l.parser.ParseManifest(id, data)
}

// LoadComponent reads id as a component whatever its extension.
func (l *Loader) LoadComponent(id string) (*domain.Component, error) {
	data, err := l.source.ReadFile(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", id, err)
	}
	return l.parser.ParseComponent(id, data), nil
}
