package runtime

import (
	"context"
	"time"

	"github.com/aretw0/promptdown/internal/include"
	"github.com/aretw0/promptdown/internal/markup"
	"github.com/aretw0/promptdown/pkg/domain"
)

// Renderer expands documents: it evaluates every section against the variables and
// substitutes includes with the rendered text of their targets.
// A Renderer is safe for concurrent use; each Render call owns its own traversal.
type Renderer struct {
	loader   *Loader
	resolver *include.Resolver
	eval     *markup.Evaluator
	hooks    domain.Hooks
}

// NewRenderer creates a renderer. A nil evaluator gets a fresh one.
func NewRenderer(loader *Loader, resolver *include.Resolver, eval *markup.Evaluator, hooks domain.Hooks) *Renderer {
	if eval == nil {
		eval = markup.New()
	}
	return &Renderer{loader: loader, resolver: resolver, eval: eval, hooks: hooks}
}

// Render renders doc. A manifest yields one entry per section in declaration order,
// or only section when it is not empty. A component yields a single "content" entry.
// vars is never modified.
func (r *Renderer) Render(ctx context.Context, doc domain.Document, vars domain.Variables, policy domain.RenderPolicy, section string) (*domain.Rendered, error) {
	started := time.Now()
	r.hooks.EmitRenderStart(ctx, doc.Path(), "render")

	t := newTraversal(ctx, r.loader, doc)
	sections, err := r.render(t, doc, vars, policy, section)

	r.hooks.EmitRenderFinish(ctx, doc.Path(), "render", started, err)
	if err != nil {
		return nil, err
	}
	return &domain.Rendered{
		Document:     doc.Path(),
		Sections:     sections,
		Dependencies: t.dependencies(),
	}, nil
}

func (r *Renderer) render(t *traversal, doc domain.Document, vars domain.Variables, policy domain.RenderPolicy, section string) ([]domain.RenderedSection, error) {
	if err := t.ctx.Err(); err != nil {
		return nil, err
	}

	release, err := t.chain.Enter(doc.Path())
	if err != nil {
		return nil, err
	}
	defer release()

	sections, err := selectSections(doc, section)
	if err != nil {
		return nil, err
	}

	scope := markup.Scope{
		Name:      doc.Path(),
		Variables: vars,
		Policy:    policy,
		Include: func(target domain.Target) (string, error) {
			return r.include(t, doc, target, vars, policy)
		},
	}

	out := make([]domain.RenderedSection, 0, len(sections))
	for _, s := range sections {
		text, err := r.eval.Evaluate(s.Body, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.RenderedSection{Name: s.Name, Text: text})
	}
	return out, nil
}

// include expands one include directive of from. A component contributes its text,
// include_section the named section and a plain include of a manifest all of its
// sections joined.
func (r *Renderer) include(t *traversal, from domain.Document, target domain.Target, vars domain.Variables, policy domain.RenderPolicy) (string, error) {
	if err := t.ctx.Err(); err != nil {
		return "", err
	}

	id, err := r.resolver.Resolve(from.Path(), target.Path)
	if err != nil {
		return "", includeError(from, target, err)
	}

	// Cycles are reported before the target is read again.
	if t.chain.Contains(id) {
		_, err := t.chain.Enter(id)
		return "", includeError(from, target, err)
	}

	child, err := t.load(id)
	if err != nil {
		return "", includeError(from, target, err)
	}

	event := domain.IncludeEvent{From: from.Path(), Target: target, Path: id, Depth: t.chain.Depth(), Chain: t.chain.Snapshot()}
	r.hooks.EmitIncludeEnter(t.ctx, event)
	defer r.hooks.EmitIncludeLeave(t.ctx, event)

	sections, err := r.render(t, child, vars, policy, target.Section)
	if err != nil {
		return "", includeError(from, target, err)
	}

	if target.Section != "" || child.Kind() == domain.KindComponent {
		return sections[0].Text, nil
	}
	texts := make([]string, len(sections))
	for i, s := range sections {
		texts[i] = s.Text
	}
	return domain.JoinSections(texts...), nil
}
