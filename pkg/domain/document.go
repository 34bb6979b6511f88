package domain

import (
	"path/filepath"
	"strings"
)

// DocumentKind distinguishes structured manifests from raw components.
type DocumentKind string

const (
	KindManifest  DocumentKind = "manifest"
	KindComponent DocumentKind = "component"
)

// ComponentSection is the synthetic section name a Component renders into.
const ComponentSection = "content"

// Document is a loaded file. Its identity is the cleaned absolute path.
// Documents are immutable once loaded and may be shared between traversals.
type Document interface {
	// Path returns the identity of the document.
	Path() string
	// Kind reports whether this is a manifest or a component.
	Kind() DocumentKind
	// Sections returns the text bodies in declaration order.
	Sections() []Section
}

// Section is one named raw text body.
type Section struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

// Manifest is a structured document with metadata and named sections.
type Manifest struct {
	Location    string         `json:"path"`
	ID          string         `json:"id"`
	Type        string         `json:"kind"`
	Version     string         `json:"version"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
	Body        []Section      `json:"sections"`
}

func (m *Manifest) Path() string        { return m.Location }
func (m *Manifest) Kind() DocumentKind  { return KindManifest }
func (m *Manifest) Sections() []Section { return m.Body }

// Section looks up a section by name.
func (m *Manifest) Section(name string) (Section, bool) {
	for _, s := range m.Body {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// SectionNames returns the section names in declaration order.
func (m *Manifest) SectionNames() []string {
	names := make([]string, len(m.Body))
	for i, s := range m.Body {
		names[i] = s.Name
	}
	return names
}

// Component is a reusable text body without metadata.
type Component struct {
	Location string `json:"path"`
	Body     string `json:"body"`
}

func (c *Component) Path() string       { return c.Location }
func (c *Component) Kind() DocumentKind { return KindComponent }

func (c *Component) Sections() []Section {
	return []Section{{Name: ComponentSection, Body: c.Body}}
}

// Dir returns the directory includes of doc are resolved against.
func Dir(doc Document) string {
	return filepath.Dir(doc.Path())
}

// Target is the payload of an include directive: a path relative to the
// including document and, for include_section, a section name.
type Target struct {
	Path    string
	Section string
}

func (t Target) String() string {
	if t.Section == "" {
		return t.Path
	}
	return t.Path + "#" + t.Section
}

// IsManifestPath reports whether path names a structured manifest file.
func IsManifestPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
