package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/promptdown/internal/include"
	"github.com/aretw0/promptdown/pkg/domain"
)

// traversal is the state of one top-level Render or Collect call: its chain of
// active documents and the documents it has already loaded. It is never shared.
type traversal struct {
	ctx    context.Context
	chain  *include.Chain
	loader *Loader
	docs   map[string]domain.Document
	deps   []string
}

func newTraversal(ctx context.Context, loader *Loader, root domain.Document) *traversal {
	return &traversal{
		ctx:    ctx,
		chain:  include.NewChain(),
		loader: loader,
		docs:   map[string]domain.Document{root.Path(): root},
		deps:   []string{root.Path()},
	}
}

// load returns the document with identity id, reading it at most once per traversal.
func (t *traversal) load(id string) (domain.Document, error) {
	if doc, ok := t.docs[id]; ok {
		return doc, nil
	}
	doc, err := t.loader.Load(id)
	if err != nil {
		return nil, err
	}
	t.docs[id] = doc
	t.deps = append(t.deps, id)
	return doc, nil
}

// Dependencies lists every document read, root first.
func (t *traversal) dependencies() []string {
	return append([]string(nil), t.deps...)
}

// includeError wraps err with the include boundary it crossed.
func includeError(from domain.Document, target domain.Target, err error) error {
	return fmt.Errorf("include %q from %s: %w", target.String(), from.Path(), err)
}

// selectSections returns the sections of doc to process: all of them, or only
// the one named section.
func selectSections(doc domain.Document, section string) ([]domain.Section, error) {
	all := doc.Sections()
	if section == "" {
		return all, nil
	}
	for _, s := range all {
		if s.Name == section {
			return []domain.Section{s}, nil
		}
	}
	return nil, &domain.UnknownSectionError{Path: doc.Path(), Section: section}
}
