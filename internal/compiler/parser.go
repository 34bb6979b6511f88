package compiler

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/promptdown/internal/dto"
	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/aretw0/promptdown/pkg/schema"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// SectionsKey is the top-level field holding a manifest's sections.
const SectionsKey = "sections"

// DefaultManifestSchema is the schema manifests are validated against unless the
// caller supplies another one.
func DefaultManifestSchema() schema.Schema {
	return schema.Schema{
		"id":          schema.NonEmptyString(),
		"kind":        schema.NonEmptyString(),
		"version":     schema.AllOf(schema.NonEmptyString(), schema.Pattern(`\d`)),
		"title":       schema.NonEmptyString(),
		SectionsKey:   schema.NonEmptyMap(schema.String()),
		"description": schema.Optional(schema.String()),
		"tags":        schema.Optional(schema.Slice(schema.String())),
	}
}

// Parser is responsible for converting raw bytes into a Document.
// It is stateless after construction and safe for concurrent use.
type Parser struct {
	schema schema.Schema
	closed bool
}

// NewParser creates a new parser. A nil schema means DefaultManifestSchema.
// A closed parser also rejects top-level fields the schema does not declare.
func NewParser(s schema.Schema, closed bool) *Parser {
	if s == nil {
		s = DefaultManifestSchema()
	}
	return &Parser{schema: s, closed: closed}
}

// Schema returns the schema manifests are validated against.
func (p *Parser) Schema() schema.Schema { return p.schema }

// Parse decodes data as a manifest or a component depending on the extension of path.
func (p *Parser) Parse(path string, data []byte) (domain.Document, error) {
	if domain.IsManifestPath(path) {
		return p.ParseManifest(path, data)
	}
	return p.ParseComponent(path, data), nil
}

// ParseComponent wraps raw text as a component.
func (p *Parser) ParseComponent(path string, data []byte) *domain.Component {
	return &domain.Component{Location: path, Body: string(data)}
}

// ParseManifest decodes and validates a YAML or JSON manifest.
// Every failure is a *domain.ValidationError; schema violations are all reported at once.
func (p *Parser) ParseManifest(path string, data []byte) (*domain.Manifest, error) {
	invalid := func(err error) error {
		return &domain.ValidationError{Path: path, Err: err}
	}

	// yaml.v3 reads JSON too, and the node tree keeps the section order.
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, invalid(fmt.Errorf("failed to parse manifest: %w", err))
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, invalid(fmt.Errorf("manifest must be a mapping"))
	}
	top := root.Content[0]

	var raw map[string]any
	if err := top.Decode(&raw); err != nil {
		return nil, invalid(fmt.Errorf("failed to decode manifest: %w", err))
	}

	if p.closed {
		if err := schema.ValidateClosed(p.schema, raw); err != nil {
			return nil, invalid(err)
		}
	} else if err := schema.Validate(p.schema, raw); err != nil {
		return nil, invalid(err)
	}

	sections, err := orderedSections(top)
	if err != nil {
		return nil, invalid(err)
	}

	var meta dto.ManifestMetadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &meta,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, invalid(fmt.Errorf("failed to decode manifest: %w", err))
	}

	return &domain.Manifest{
		Location:    path,
		ID:          meta.ID,
		Type:        meta.Kind,
		Version:     meta.Version,
		Title:       meta.Title,
		Description: meta.Description,
		Tags:        meta.Tags,
		Extra:       meta.Extra,
		Body:        sections,
	}, nil
}

// orderedSections reads the sections mapping in declaration order.
func orderedSections(top *yaml.Node) ([]domain.Section, error) {
	for i := 0; i+1 < len(top.Content); i += 2 {
		if top.Content[i].Value != SectionsKey {
			continue
		}
		node := top.Content[i+1]
		if node.Kind != yaml.MappingNode || len(node.Content) == 0 {
			return nil, fmt.Errorf("%s must be a non-empty mapping of section name to text", SectionsKey)
		}

		sections := make([]domain.Section, 0, len(node.Content)/2)
		seen := make(map[string]bool, len(node.Content)/2)
		for j := 0; j+1 < len(node.Content); j += 2 {
			name := node.Content[j].Value
			if seen[name] {
				return nil, fmt.Errorf("section %q is declared twice", name)
			}
			seen[name] = true

			value := node.Content[j+1]
			if value.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("section %q must be text", name)
			}
			var body string
			if err := value.Decode(&body); err != nil {
				return nil, fmt.Errorf("section %q: %w", name, err)
			}
			sections = append(sections, domain.Section{Name: name, Body: body})
		}
		return sections, nil
	}
	return nil, fmt.Errorf("%s: required", SectionsKey)
}

// LoadSchema reads a schema descriptor: a YAML or JSON mapping of field name to
// type string such as {"id": "nonempty", "owner": "?string"}.
func LoadSchema(path string, data []byte) (schema.Schema, error) {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		var s schema.Schema
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse schema %s: %w", path, err)
		}
		if len(s) == 0 {
			return nil, fmt.Errorf("schema %s declares no fields", path)
		}
		return s, nil
	}

	// Default to YAML
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("schema %s declares no fields", path)
	}
	return schema.ParseTypeMap(raw)
}
