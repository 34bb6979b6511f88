package promptdown

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aretw0/promptdown/internal/compiler"
	"github.com/aretw0/promptdown/internal/include"
	"github.com/aretw0/promptdown/internal/markup"
	"github.com/aretw0/promptdown/internal/runtime"
	"github.com/aretw0/promptdown/pkg/adapters/fs"
	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/aretw0/promptdown/pkg/ports"
	"github.com/aretw0/promptdown/pkg/schema"
)

// Engine is the high-level entry point for the promptdown library.
// It loads manifests and components, renders them and discovers their placeholders.
// An Engine is safe for concurrent use by independent calls.
type Engine struct {
	source ports.Source
	root   string
	schema schema.Schema
	closed bool
	hooks  domain.Hooks
	policy domain.RenderPolicy

	loader    *runtime.Loader
	renderer  *runtime.Renderer
	collector *runtime.Collector
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithSource replaces the default filesystem source, e.g. with an in-memory one.
func WithSource(source ports.Source) Option {
	return func(e *Engine) {
		e.source = source
	}
}

// WithRoot confines includes to dir: an include resolving outside of it fails with
// *domain.InvalidIncludePathError. Request paths given to RenderFile and
// PlaceholdersFile are resolved against it.
func WithRoot(dir string) Option {
	return func(e *Engine) {
		e.root = dir
	}
}

// WithManifestSchema validates manifests against s instead of the default schema.
func WithManifestSchema(s schema.Schema) Option {
	return func(e *Engine) {
		e.schema = s
	}
}

// WithClosedSchema rejects manifest fields the schema does not declare.
func WithClosedSchema() Option {
	return func(e *Engine) {
		e.closed = true
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.Hooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithPolicy sets the policy RenderFile uses when a request does not choose one.
// The default is strict.
func WithPolicy(policy domain.RenderPolicy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

// New initializes a new Engine. By default it reads from the local filesystem,
// validates manifests against DefaultManifestSchema and renders strictly.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{policy: domain.StrictPolicy}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.source == nil {
		eng.source = fs.New()
	}
	if eng.root != "" {
		abs, err := filepath.Abs(eng.root)
		if err != nil {
			return nil, fmt.Errorf("invalid root: %w", err)
		}
		eng.root = abs
	}
	if eng.schema == nil {
		eng.schema = DefaultManifestSchema()
	}

	eval := markup.New()
	resolver := include.NewResolver(eng.source, eng.root)
	eng.loader = runtime.NewLoader(eng.source, compiler.NewParser(eng.schema, eng.closed))
	eng.renderer = runtime.NewRenderer(eng.loader, resolver, eval, eng.hooks)
	eng.collector = runtime.NewCollector(eng.loader, resolver, eval, eng.hooks)

	return eng, nil
}

// DefaultManifestSchema returns the schema manifests are validated against when
// no other is configured: id, kind, title and version (containing a digit) are
// required non-empty strings, sections a non-empty mapping of text, description
// and tags optional.
func DefaultManifestSchema() schema.Schema {
	return compiler.DefaultManifestSchema()
}

// LoadSchema reads a schema descriptor from YAML or JSON, chosen by extension.
func LoadSchema(path string, data []byte) (schema.Schema, error) {
	return compiler.LoadSchema(path, data)
}

// Schema returns the schema manifests are validated against.
func (e *Engine) Schema() schema.Schema {
	return e.schema
}

// LoadManifest loads and validates the manifest at path.
// Validation failures are *domain.ValidationError carrying every violation.
func (e *Engine) LoadManifest(path string) (*domain.Manifest, error) {
	id, err := include.Abs(path)
	if err != nil {
		return nil, err
	}
	return e.loader.LoadManifest(id)
}

// LoadComponent loads the file at path as a raw component.
func (e *Engine) LoadComponent(path string) (*domain.Component, error) {
	id, err := include.Abs(path)
	if err != nil {
		return nil, err
	}
	return e.loader.LoadComponent(id)
}

// Load loads path as a manifest (.yaml, .yml, .json) or a component (anything else).
func (e *Engine) Load(path string) (domain.Document, error) {
	id, err := include.Abs(path)
	if err != nil {
		return nil, err
	}
	return e.loader.Load(id)
}

// Render expands every section of doc with vars. vars is never modified.
func (e *Engine) Render(ctx context.Context, doc domain.Document, vars domain.Variables, policy domain.RenderPolicy) (*domain.Rendered, error) {
	return e.renderer.Render(ctx, doc, vars, policy, "")
}

// RenderSection expands only the named section of doc.
func (e *Engine) RenderSection(ctx context.Context, doc domain.Document, section string, vars domain.Variables, policy domain.RenderPolicy) (*domain.Rendered, error) {
	return e.renderer.Render(ctx, doc, vars, policy, section)
}

// CollectPlaceholders returns the variables doc may need. With deep set, includes
// are followed and a broken include graph is an error.
func (e *Engine) CollectPlaceholders(ctx context.Context, doc domain.Document, deep bool) (domain.PlaceholderSet, error) {
	return e.collector.Collect(ctx, doc, deep)
}

// CollectSectionPlaceholders is CollectPlaceholders restricted to one section.
func (e *Engine) CollectSectionPlaceholders(ctx context.Context, doc domain.Document, section string, deep bool) (domain.PlaceholderSet, error) {
	return e.collector.CollectSection(ctx, doc, section, deep)
}

// RenderFile loads req.Path and renders it.
func (e *Engine) RenderFile(ctx context.Context, req ports.RenderRequest) (*domain.Rendered, error) {
	doc, err := e.loadRequested(req.Path)
	if err != nil {
		return nil, err
	}
	policy := e.policy
	if req.Strict != nil {
		policy = domain.RenderPolicy{Strict: *req.Strict}
	}
	return e.renderer.Render(ctx, doc, req.Variables, policy, req.Section)
}

// PlaceholdersFile loads req.Path and collects its placeholders, deep unless req.Shallow.
func (e *Engine) PlaceholdersFile(ctx context.Context, req ports.PlaceholderRequest) (domain.PlaceholderSet, error) {
	doc, err := e.loadRequested(req.Path)
	if err != nil {
		return nil, err
	}
	return e.collector.CollectSection(ctx, doc, req.Section, !req.Shallow)
}

// loadRequested loads a path received from an adapter. With a root, relative
// paths are taken from the root and must stay inside it.
func (e *Engine) loadRequested(path string) (domain.Document, error) {
	if e.root == "" {
		return e.Load(path)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.root, path)
	}
	path = filepath.Clean(path)
	if !include.Within(e.root, path) {
		return nil, &domain.InvalidIncludePathError{Raw: path, IncludedFrom: "request", Reason: "path escapes project root " + e.root}
	}
	return e.loader.Load(path)
}

// Root returns the absolute project root, or "" when none is configured.
func (e *Engine) Root() string { return e.root }

// Source returns the source documents are read from.
func (e *Engine) Source() ports.Source { return e.source }

// Policy returns the default policy used by RenderFile.
func (e *Engine) Policy() domain.RenderPolicy { return e.policy }

var _ ports.PromptEngine = (*Engine)(nil)
