package runtime

import (
	"context"
	"time"

	"github.com/aretw0/promptdown/internal/include"
	"github.com/aretw0/promptdown/internal/markup"
	"github.com/aretw0/promptdown/pkg/domain"
)

// Collector discovers the variables a document may need without rendering it.
type Collector struct {
	loader   *Loader
	resolver *include.Resolver
	eval     *markup.Evaluator
	hooks    domain.Hooks
}

// NewCollector creates a collector. A nil evaluator gets a fresh one.
func NewCollector(loader *Loader, resolver *include.Resolver, eval *markup.Evaluator, hooks domain.Hooks) *Collector {
	if eval == nil {
		eval = markup.New()
	}
	return &Collector{loader: loader, resolver: resolver, eval: eval, hooks: hooks}
}

// Collect returns every placeholder of doc. When deep is set, every literal include
// is followed, including ones inside conditionals and loops; broken include graphs
// fail exactly like rendering would.
func (c *Collector) Collect(ctx context.Context, doc domain.Document, deep bool) (domain.PlaceholderSet, error) {
	return c.CollectSection(ctx, doc, "", deep)
}

// CollectSection is Collect restricted to one section of doc. An empty section means all.
func (c *Collector) CollectSection(ctx context.Context, doc domain.Document, section string, deep bool) (domain.PlaceholderSet, error) {
	started := time.Now()
	c.hooks.EmitRenderStart(ctx, doc.Path(), "collect")

	w := &collectWalk{traversal: newTraversal(ctx, c.loader, doc), deep: deep, done: map[domain.Target]domain.PlaceholderSet{}}
	set, err := c.collect(w, doc, section)

	c.hooks.EmitRenderFinish(ctx, doc.Path(), "collect", started, err)
	if err != nil {
		return nil, err
	}
	return set, nil
}

type collectWalk struct {
	*traversal
	deep bool
	// done memoizes fully explored (document, section) pairs so diamond graphs are scanned once.
	done map[domain.Target]domain.PlaceholderSet
}

func (c *Collector) collect(w *collectWalk, doc domain.Document, section string) (domain.PlaceholderSet, error) {
	if err := w.ctx.Err(); err != nil {
		return nil, err
	}

	key := domain.Target{Path: doc.Path(), Section: section}
	if set, ok := w.done[key]; ok {
		return set, nil
	}

	release, err := w.chain.Enter(doc.Path())
	if err != nil {
		return nil, err
	}
	defer release()

	sections, err := selectSections(doc, section)
	if err != nil {
		return nil, err
	}

	set := domain.NewPlaceholderSet()
	for _, s := range sections {
		a, err := c.eval.Scan(doc.Path(), s.Body)
		if err != nil {
			return nil, err
		}
		set.Union(a.Placeholders)

		if !w.deep {
			continue
		}
		for _, target := range a.Includes {
			child, err := c.follow(w, doc, target)
			if err != nil {
				return nil, err
			}
			set.Union(child)
		}
	}

	w.done[key] = set
	return set, nil
}

func (c *Collector) follow(w *collectWalk, from domain.Document, target domain.Target) (domain.PlaceholderSet, error) {
	id, err := c.resolver.Resolve(from.Path(), target.Path)
	if err != nil {
		return nil, includeError(from, target, err)
	}
	if w.chain.Contains(id) {
		_, err := w.chain.Enter(id)
		return nil, includeError(from, target, err)
	}

	child, err := w.load(id)
	if err != nil {
		return nil, includeError(from, target, err)
	}

	event := domain.IncludeEvent{From: from.Path(), Target: target, Path: id, Depth: w.chain.Depth(), Chain: w.chain.Snapshot()}
	c.hooks.EmitIncludeEnter(w.ctx, event)
	defer c.hooks.EmitIncludeLeave(w.ctx, event)

	set, err := c.collect(w, child, target.Section)
	if err != nil {
		return nil, includeError(from, target, err)
	}
	return set, nil
}
