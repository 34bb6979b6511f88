package dsl

import (
	"fmt"
	"path"
	"sort"

	"github.com/aretw0/promptdown/pkg/adapters/memory"
	"gopkg.in/yaml.v3"
)

// Builder manages the project construction.
type Builder struct {
	root       string
	components map[string]string
	manifests  map[string]*ManifestBuilder
	order      []string
}

// New creates a new project builder. Relative document names are placed under root.
func New(root string) *Builder {
	return &Builder{
		root:       path.Clean(root),
		components: make(map[string]string),
		manifests:  make(map[string]*ManifestBuilder),
	}
}

// Path returns the absolute path a relative document name resolves to.
func (b *Builder) Path(name string) string {
	if path.IsAbs(name) {
		return path.Clean(name)
	}
	return path.Join(b.root, name)
}

// Component adds a raw text component, replacing any previous body.
func (b *Builder) Component(name, body string) *Builder {
	b.components[b.Path(name)] = body
	return b
}

// Manifest creates a new manifest with the given id.
// If the manifest already exists, it returns the existing builder.
func (b *Builder) Manifest(name, id string) *ManifestBuilder {
	p := b.Path(name)
	if mb, ok := b.manifests[p]; ok {
		return mb
	}
	mb := &ManifestBuilder{
		id:      id,
		kind:    "prompt",
		version: "1",
		title:   id,
		extra:   make(map[string]any),
	}
	b.manifests[p] = mb
	b.order = append(b.order, p)
	return mb
}

// Build serializes every manifest to YAML and compiles the project into a memory source.
func (b *Builder) Build() (*memory.Loader, error) {
	files := make(map[string]string, len(b.components)+len(b.manifests))
	for p, body := range b.components {
		files[p] = body
	}
	for _, p := range b.order {
		if _, clash := files[p]; clash {
			return nil, fmt.Errorf("%s is declared both as a component and a manifest", p)
		}
		data, err := b.manifests[p].yaml()
		if err != nil {
			return nil, fmt.Errorf("failed to build %s: %w", p, err)
		}
		files[p] = string(data)
	}
	return memory.NewLoader(files), nil
}

// ManifestBuilder provides a fluent API for configuring a manifest.
type ManifestBuilder struct {
	id, kind, version, title, description string
	tags                                  []string
	extra                                 map[string]any
	sections                              []section
	err                                   error
}

type section struct{ name, body string }

// Kind overrides the default kind "prompt".
func (m *ManifestBuilder) Kind(kind string) *ManifestBuilder { m.kind = kind; return m }

// Version overrides the default version "1".
func (m *ManifestBuilder) Version(v string) *ManifestBuilder { m.version = v; return m }

// Title overrides the default title, which is the id.
func (m *ManifestBuilder) Title(title string) *ManifestBuilder { m.title = title; return m }

func (m *ManifestBuilder) Description(d string) *ManifestBuilder { m.description = d; return m }

func (m *ManifestBuilder) Tags(tags ...string) *ManifestBuilder {
	m.tags = append(m.tags, tags...)
	return m
}

// Field sets an extra top-level field.
func (m *ManifestBuilder) Field(key string, value any) *ManifestBuilder {
	m.extra[key] = value
	return m
}

// Section appends a named section. Sections keep the order they are added in.
func (m *ManifestBuilder) Section(name, body string) *ManifestBuilder {
	for _, s := range m.sections {
		if s.name == name && m.err == nil {
			m.err = fmt.Errorf("duplicate section %q", name)
		}
	}
	m.sections = append(m.sections, section{name: name, body: body})
	return m
}

// Include appends a section whose body includes target.
func (m *ManifestBuilder) Include(name, target string) *ManifestBuilder {
	return m.Section(name, fmt.Sprintf("{%% include %q %%}", target))
}

// IncludeSection appends a section whose body includes one section of target.
func (m *ManifestBuilder) IncludeSection(name, target, targetSection string) *ManifestBuilder {
	return m.Section(name, fmt.Sprintf("{%% include_section %q, %q %%}", target, targetSection))
}

func (m *ManifestBuilder) yaml() ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.sections) == 0 {
		return nil, fmt.Errorf("manifest %s has no sections", m.id)
	}

	doc := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value *yaml.Node) {
		doc.Content = append(doc.Content, str(key), value)
	}

	add("id", str(m.id))
	add("kind", str(m.kind))
	add("version", str(m.version))
	add("title", str(m.title))
	if m.description != "" {
		add("description", str(m.description))
	}
	if len(m.tags) > 0 {
		tags := &yaml.Node{Kind: yaml.SequenceNode}
		for _, t := range m.tags {
			tags.Content = append(tags.Content, str(t))
		}
		add("tags", tags)
	}

	keys := make([]string, 0, len(m.extra))
	for k := range m.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var value yaml.Node
		if err := value.Encode(m.extra[k]); err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		add(k, &value)
	}

	sections := &yaml.Node{Kind: yaml.MappingNode}
	for _, s := range m.sections {
		sections.Content = append(sections.Content, str(s.name), str(s.body))
	}
	add("sections", sections)

	return yaml.Marshal(doc)
}

func str(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
