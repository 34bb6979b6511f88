package domain

import (
	"sort"
	"strings"
)

// Variables is the read-only context shared by every document of one render.
type Variables map[string]any

// RenderPolicy is threaded explicitly through every recursive render call.
type RenderPolicy struct {
	// Strict turns a reference to an undefined variable into a MissingVariableError.
	// When false the reference renders as an empty string.
	Strict bool `json:"strict"`
}

// StrictPolicy and PermissivePolicy are the two policies a caller normally needs.
var (
	StrictPolicy     = RenderPolicy{Strict: true}
	PermissivePolicy = RenderPolicy{Strict: false}
)

// RenderedSection is the final text of one section.
type RenderedSection struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Rendered is the result of rendering a document.
type Rendered struct {
	Document string            `json:"document"`
	Sections []RenderedSection `json:"sections"`
	// Dependencies lists every file read during the traversal, root first.
	Dependencies []string `json:"dependencies,omitempty"`
}

// Get returns the text of a rendered section.
func (r *Rendered) Get(name string) (string, bool) {
	for _, s := range r.Sections {
		if s.Name == name {
			return s.Text, true
		}
	}
	return "", false
}

// Map returns the section name to text mapping.
func (r *Rendered) Map() map[string]string {
	out := make(map[string]string, len(r.Sections))
	for _, s := range r.Sections {
		out[s.Name] = s.Text
	}
	return out
}

// Join concatenates the rendered sections separated by a single blank line.
// Without arguments the declaration order is used.
func (r *Rendered) Join(order ...string) (string, error) {
	if len(order) == 0 {
		texts := make([]string, len(r.Sections))
		for i, s := range r.Sections {
			texts[i] = s.Text
		}
		return JoinSections(texts...), nil
	}

	texts := make([]string, 0, len(order))
	for _, name := range order {
		text, ok := r.Get(name)
		if !ok {
			return "", &UnknownSectionError{Path: r.Document, Section: name}
		}
		texts = append(texts, text)
	}
	return JoinSections(texts...), nil
}

// JoinSections trims trailing newlines from each text and separates them with one blank line.
func JoinSections(texts ...string) string {
	trimmed := make([]string, len(texts))
	for i, t := range texts {
		trimmed[i] = strings.TrimRight(t, "\n")
	}
	return strings.Join(trimmed, "\n\n")
}

// PlaceholderSet is the set of variable names discovered by a static scan.
type PlaceholderSet map[string]struct{}

// NewPlaceholderSet builds a set from names.
func NewPlaceholderSet(names ...string) PlaceholderSet {
	s := make(PlaceholderSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

func (s PlaceholderSet) Add(name string) { s[name] = struct{}{} }

func (s PlaceholderSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Union adds every name of other to s.
func (s PlaceholderSet) Union(other PlaceholderSet) {
	for n := range other {
		s[n] = struct{}{}
	}
}

// Contains reports whether s is a superset of other.
func (s PlaceholderSet) Contains(other PlaceholderSet) bool {
	for n := range other {
		if !s.Has(n) {
			return false
		}
	}
	return true
}

// Sorted returns the names in lexical order.
func (s PlaceholderSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
