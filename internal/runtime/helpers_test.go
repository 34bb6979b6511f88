package runtime_test

import (
	"github.com/aretw0/promptdown/internal/include"
	"github.com/aretw0/promptdown/internal/markup"
	"github.com/aretw0/promptdown/internal/runtime"
	"github.com/aretw0/promptdown/pkg/adapters/memory"
	"github.com/aretw0/promptdown/pkg/domain"
)

type rig struct {
	loader    *runtime.Loader
	renderer  *runtime.Renderer
	collector *runtime.Collector
}

func newRig(files map[string]string) *rig {
	return newRigWith(files, "", domain.Hooks{})
}

func newRigWith(files map[string]string, root string, hooks domain.Hooks) *rig {
	src := memory.NewLoader(files)
	loader := runtime.NewLoader(src, nil)
	resolver := include.NewResolver(src, root)
	eval := markup.New()
	return &rig{
		loader:    loader,
		renderer:  runtime.NewRenderer(loader, resolver, eval, hooks),
		collector: runtime.NewCollector(loader, resolver, eval, hooks),
	}
}

func (r *rig) load(path string) domain.Document {
	doc, err := r.loader.Load(path)
	if err != nil {
		panic(err)
	}
	return doc
}

const libManifest = `id: lib
kind: library
version: "1"
title: Shared pieces
sections:
  persona: "You are {{ role }}."
  rules: "Never {{ forbidden }}."
`
