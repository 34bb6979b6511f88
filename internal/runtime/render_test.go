package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_IncludeSubstitution(t *testing.T) {
	r := newRig(map[string]string{
		"/p/main.yaml": `id: main
kind: prompt
version: "1.0"
title: Main
sections:
  system: |
    Intro
    {% include "parts/greet.pmd" %}
  user: "Question: {{ question }}"
`,
		"/p/parts/greet.pmd": "Hello {{ name }}!\n",
	})

	out, err := r.renderer.Render(context.Background(), r.load("/p/main.yaml"),
		domain.Variables{"name": "Ada", "question": "why?"}, domain.StrictPolicy, "")
	require.NoError(t, err)

	assert.Equal(t, "/p/main.yaml", out.Document)
	assert.Equal(t, []domain.RenderedSection{
		{Name: "system", Text: "Intro\nHello Ada!"},
		{Name: "user", Text: "Question: why?"},
	}, out.Sections)
	assert.Equal(t, []string{"/p/main.yaml", "/p/parts/greet.pmd"}, out.Dependencies)
}

func TestRender_CycleReportsChain(t *testing.T) {
	r := newRig(map[string]string{
		"/p/a.pmd": `A {% include "b.pmd" %}`,
		"/p/b.pmd": `B {% include "a.pmd" %}`,
	})

	_, err := r.renderer.Render(context.Background(), r.load("/p/a.pmd"), nil, domain.StrictPolicy, "")
	require.Error(t, err)

	var cycle *domain.CircularIncludeError
	require.True(t, errors.As(err, &cycle), "got %v", err)
	assert.Equal(t, []string{"/p/a.pmd", "/p/b.pmd", "/p/a.pmd"}, cycle.Chain)
}

func TestRender_SelfInclude(t *testing.T) {
	r := newRig(map[string]string{"/p/a.pmd": `{% include "./a.pmd" %}`})

	_, err := r.renderer.Render(context.Background(), r.load("/p/a.pmd"), nil, domain.StrictPolicy, "")
	var cycle *domain.CircularIncludeError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"/p/a.pmd", "/p/a.pmd"}, cycle.Chain)
}

func TestRender_IncludeSectionSubstitutesOnlyThatSection(t *testing.T) {
	r := newRig(map[string]string{
		"/p/lib.yaml": libManifest,
		"/p/main.pmd": `{% include_section "lib.yaml", "persona" %}`,
	})

	// "forbidden" is missing, which would fail a strict render of the rules section.
	out, err := r.renderer.Render(context.Background(), r.load("/p/main.pmd"),
		domain.Variables{"role": "a reviewer"}, domain.StrictPolicy, "")
	require.NoError(t, err)

	text, ok := out.Get(domain.ComponentSection)
	require.True(t, ok)
	assert.Equal(t, "You are a reviewer.", text)
}

func TestRender_PlainIncludeOfManifestJoinsSections(t *testing.T) {
	r := newRig(map[string]string{
		"/p/lib.yaml": libManifest,
		"/p/main.pmd": `{% include "lib.yaml" %}`,
	})

	out, err := r.renderer.Render(context.Background(), r.load("/p/main.pmd"),
		domain.Variables{"role": "terse", "forbidden": "guess"}, domain.StrictPolicy, "")
	require.NoError(t, err)

	text, _ := out.Get(domain.ComponentSection)
	assert.Equal(t, "You are terse.\n\nNever guess.", text)
}

func TestRender_DiamondSucceeds(t *testing.T) {
	r := newRig(map[string]string{
		"/p/top.pmd":      `{% include "b.pmd" %}|{% include "c.pmd" %}`,
		"/p/b.pmd":        `b:{% include "shared/d.pmd" %}`,
		"/p/c.pmd":        `c:{% include "shared/d.pmd" %}`,
		"/p/shared/d.pmd": `d`,
	})

	out, err := r.renderer.Render(context.Background(), r.load("/p/top.pmd"), nil, domain.StrictPolicy, "")
	require.NoError(t, err)

	text, _ := out.Get(domain.ComponentSection)
	assert.Equal(t, "b:d|c:d", text)
	assert.Equal(t, []string{"/p/top.pmd", "/p/b.pmd", "/p/shared/d.pmd", "/p/c.pmd"}, out.Dependencies)
}

func TestRender_StrictAndPermissive(t *testing.T) {
	r := newRig(map[string]string{
		"/p/main.pmd":  `Hi {% include "inner.pmd" %}`,
		"/p/inner.pmd": `{{ name }}!`,
	})
	doc := r.load("/p/main.pmd")

	_, err := r.renderer.Render(context.Background(), doc, domain.Variables{}, domain.StrictPolicy, "")
	var missing *domain.MissingVariableError
	require.True(t, errors.As(err, &missing), "got %v", err)
	assert.Equal(t, "name", missing.Name)
	assert.Equal(t, "/p/inner.pmd", missing.Document)
	assert.Contains(t, err.Error(), `include "inner.pmd" from /p/main.pmd`)

	out, err := r.renderer.Render(context.Background(), doc, domain.Variables{}, domain.PermissivePolicy, "")
	require.NoError(t, err)
	text, _ := out.Get(domain.ComponentSection)
	assert.Equal(t, "Hi !", text)
}

func TestRender_IncludeErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		main  string
		root  string
		check func(t *testing.T, err error)
	}{
		{
			name:  "missing file",
			files: map[string]string{"/p/main.pmd": `{% include "nope.pmd" %}`},
			main:  "/p/main.pmd",
			check: func(t *testing.T, err error) {
				var nf *domain.IncludeNotFoundError
				require.True(t, errors.As(err, &nf))
				assert.Equal(t, "/p/nope.pmd", nf.Path)
				assert.Equal(t, "/p/main.pmd", nf.IncludedFrom)
			},
		},
		{
			name:  "absolute path",
			files: map[string]string{"/p/main.pmd": `{% include "/etc/passwd" %}`},
			main:  "/p/main.pmd",
			check: func(t *testing.T, err error) {
				var ip *domain.InvalidIncludePathError
				require.True(t, errors.As(err, &ip))
				assert.Equal(t, "/etc/passwd", ip.Raw)
			},
		},
		{
			name: "escapes root",
			files: map[string]string{
				"/p/sub/main.pmd": `{% include "../outside.pmd" %}`,
				"/p/outside.pmd":  `x`,
			},
			main: "/p/sub/main.pmd",
			root: "/p/sub",
			check: func(t *testing.T, err error) {
				var ip *domain.InvalidIncludePathError
				require.True(t, errors.As(err, &ip))
			},
		},
		{
			name: "unknown section",
			files: map[string]string{
				"/p/lib.yaml":     libManifest,
				"/p/sub/main.pmd": `{% include_section "../lib.yaml", "nope" %}`,
			},
			main: "/p/sub/main.pmd",
			check: func(t *testing.T, err error) {
				var us *domain.UnknownSectionError
				require.True(t, errors.As(err, &us))
				assert.Equal(t, "nope", us.Section)
				assert.Equal(t, "/p/lib.yaml", us.Path)
			},
		},
		{
			name: "invalid manifest",
			files: map[string]string{
				"/p/sub/main.pmd": `{% include "bad.yaml" %}`,
				"/p/sub/bad.yaml": "id: x\n",
			},
			main: "/p/sub/main.pmd",
			check: func(t *testing.T, err error) {
				var ve *domain.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "/p/sub/bad.yaml", ve.Path)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRigWith(tt.files, tt.root, domain.Hooks{})
			_, err := r.renderer.Render(context.Background(), r.load(tt.main), nil, domain.StrictPolicy, "")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestRender_SectionFilter(t *testing.T) {
	r := newRig(map[string]string{"/p/lib.yaml": libManifest})
	doc := r.load("/p/lib.yaml")

	out, err := r.renderer.Render(context.Background(), doc, domain.Variables{"role": "x"}, domain.StrictPolicy, "persona")
	require.NoError(t, err)
	assert.Equal(t, []domain.RenderedSection{{Name: "persona", Text: "You are x."}}, out.Sections)

	_, err = r.renderer.Render(context.Background(), doc, nil, domain.StrictPolicy, "missing")
	var us *domain.UnknownSectionError
	assert.True(t, errors.As(err, &us))
}

func TestRender_DoesNotMutateVariables(t *testing.T) {
	r := newRig(map[string]string{
		"/p/main.pmd":  `{% for item in items %}{{ loop.index }}={{ item }} {% endfor %}{% include "inner.pmd" %}`,
		"/p/inner.pmd": `{{ items|join:"," }}`,
	})

	vars := domain.Variables{"items": []any{"a", "b"}}
	out, err := r.renderer.Render(context.Background(), r.load("/p/main.pmd"), vars, domain.StrictPolicy, "")
	require.NoError(t, err)

	text, _ := out.Get(domain.ComponentSection)
	assert.Equal(t, "1=a 2=b a,b", text)
	assert.Equal(t, domain.Variables{"items": []any{"a", "b"}}, vars)
}

func TestRender_Hooks(t *testing.T) {
	var entered, left []string
	var depths []int
	var finished error
	hooks := domain.Hooks{
		OnIncludeEnter: func(_ context.Context, e *domain.IncludeEvent) {
			entered = append(entered, e.Path)
			depths = append(depths, e.Depth)
		},
		OnIncludeLeave: func(_ context.Context, e *domain.IncludeEvent) {
			left = append(left, e.Path)
		},
		OnRenderFinish: func(_ context.Context, e *domain.RenderEvent) {
			assert.Equal(t, "render", e.Mode)
			finished = e.Err
		},
	}

	r := newRigWith(map[string]string{
		"/p/a.pmd": `{% include "b.pmd" %}`,
		"/p/b.pmd": `{% include "c.pmd" %}`,
		"/p/c.pmd": `leaf`,
	}, "", hooks)

	_, err := r.renderer.Render(context.Background(), r.load("/p/a.pmd"), nil, domain.StrictPolicy, "")
	require.NoError(t, err)
	assert.NoError(t, finished)
	assert.Equal(t, []string{"/p/b.pmd", "/p/c.pmd"}, entered)
	assert.Equal(t, []string{"/p/c.pmd", "/p/b.pmd"}, left)
	assert.Equal(t, []int{1, 2}, depths)
}

func TestRender_CancelledContext(t *testing.T) {
	r := newRig(map[string]string{"/p/a.pmd": `text`})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.renderer.Render(ctx, r.load("/p/a.pmd"), nil, domain.StrictPolicy, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRender_Idempotent(t *testing.T) {
	r := newRig(map[string]string{
		"/p/lib.yaml": libManifest,
		"/p/main.pmd": `{% include_section "lib.yaml", "rules" %} {{ role | upper }}`,
	})
	doc := r.load("/p/main.pmd")
	vars := domain.Variables{"role": "dev", "forbidden": "panic"}

	first, err := r.renderer.Render(context.Background(), doc, vars, domain.StrictPolicy, "")
	require.NoError(t, err)
	second, err := r.renderer.Render(context.Background(), doc, vars, domain.StrictPolicy, "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
