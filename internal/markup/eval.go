// Package markup evaluates prompt bodies with pongo2, a Django/Jinja style
// template engine, and statically scans them for placeholders and includes.
package markup

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/flosch/pongo2/v6"
)

// maxBodiesPerName bounds how many distinct bodies are cached under one name.
// A manifest keeps one body per section under its path.
const maxBodiesPerName = 8

// IncludeFunc expands an include directive found in the body being evaluated.
type IncludeFunc func(target domain.Target) (string, error)

// Scope is everything one evaluation of one body may see.
type Scope struct {
	// Name identifies the body in error messages (the document path).
	Name      string
	Variables domain.Variables
	Policy    domain.RenderPolicy
	Include   IncludeFunc
}

// Template is a parsed body ready to evaluate or scan.
type Template struct {
	Name     string
	tpl      *pongo2.Template
	analysis *Analysis
}

// Evaluator parses prompt bodies into pongo2 templates and runs them.
// Parsed templates are cached per name; an Evaluator is safe for concurrent use.
type Evaluator struct {
	set *pongo2.TemplateSet

	mu    sync.Mutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	bodies    []string // oldest first
	templates map[string]*Template
}

// bannedTags are pongo2 tags a prompt body may not use: template inheritance,
// file access and tags whose output depends on the clock or on randomness.
// The random filter is banned as well.
var bannedTags = []string{
	"autoescape", "block", "cycle", "extends", "ifchanged", "import",
	"lorem", "macro", "now", "ssi", "templatetag", "widthratio",
}

// New creates an Evaluator.
func New() *Evaluator {
	set := pongo2.NewSet("promptdown", noFiles{})
	for _, tag := range bannedTags {
		if err := set.BanTag(tag); err != nil {
			panic(fmt.Sprintf("markup: ban tag %q: %v", tag, err))
		}
	}
	if err := set.BanFilter("random"); err != nil {
		panic(fmt.Sprintf("markup: ban filter random: %v", err))
	}
	return &Evaluator{set: set, cache: make(map[string]*cacheEntry)}
}

// TrimBody drops a single trailing newline, the way files end.
func TrimBody(body string) string {
	if strings.HasSuffix(body, "\r\n") {
		return body[:len(body)-2]
	}
	return strings.TrimSuffix(body, "\n")
}

// Parse parses body once and caches the result. Syntax errors are
// *domain.TemplateSyntaxError naming the document.
func (e *Evaluator) Parse(name, body string) (*Template, error) {
	body = TrimBody(body)

	// The set records its first template without synchronization, so parsing
	// happens under the cache lock.
	e.mu.Lock()
	defer e.mu.Unlock()

	entry := e.cache[name]
	if entry != nil {
		if t, ok := entry.templates[body]; ok {
			return t, nil
		}
	}

	tpl, err := e.set.FromString(body)
	if err != nil {
		return nil, syntaxError(name, err)
	}

	t := &Template{Name: name, tpl: tpl, analysis: scan(body)}
	if entry == nil {
		entry = &cacheEntry{templates: make(map[string]*Template)}
		e.cache[name] = entry
	}
	if len(entry.bodies) == maxBodiesPerName {
		delete(entry.templates, entry.bodies[0])
		entry.bodies = entry.bodies[1:]
	}
	entry.bodies = append(entry.bodies, body)
	entry.templates[body] = t
	return t, nil
}

// Evaluate renders body against scope. Partial output is discarded on error.
func (e *Evaluator) Evaluate(body string, scope Scope) (string, error) {
	t, err := e.Parse(scope.Name, body)
	if err != nil {
		return "", err
	}
	return t.Execute(scope)
}

// Execute renders the template against scope.
func (t *Template) Execute(scope Scope) (string, error) {
	st := &execState{scope: scope}
	out, err := t.tpl.Execute(st.context(t.analysis))
	if st.err != nil {
		return "", st.err
	}
	if err != nil {
		var pe *pongo2.Error
		if errors.As(err, &pe) && pe.OrigError != nil {
			return "", fmt.Errorf("render %s: line %d: %w", scope.Name, pe.Line, pe.OrigError)
		}
		return "", fmt.Errorf("render %s: %w", scope.Name, err)
	}
	return out, nil
}

// Scan statically analyses body without evaluating it.
func (e *Evaluator) Scan(name, body string) (*Analysis, error) {
	t, err := e.Parse(name, body)
	if err != nil {
		return nil, err
	}
	return t.analysis, nil
}

func syntaxError(name string, err error) error {
	var pe *pongo2.Error
	if errors.As(err, &pe) && pe.OrigError != nil {
		return &domain.TemplateSyntaxError{Path: name, Line: pe.Line, Msg: pe.OrigError.Error()}
	}
	return &domain.TemplateSyntaxError{Path: name, Msg: err.Error()}
}

// noFiles is the loader of the evaluator's template set. Bodies only reach
// other documents through include directives, which go through Scope.Include.
type noFiles struct{}

func (noFiles) Abs(_, name string) string { return name }

func (noFiles) Get(path string) (io.Reader, error) {
	return nil, fmt.Errorf("%s: templates are not loaded from files", path)
}
