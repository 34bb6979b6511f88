package promptdown_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/promptdown"
	"github.com/aretw0/promptdown/pkg/adapters/memory"
	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/aretw0/promptdown/pkg/ports"
	"github.com/aretw0/promptdown/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reviewManifest = `id: review
kind: prompt
version: "1.0"
title: Review
owner: platform
sections:
  system: "{% include_section \"shared.yaml\", \"persona\" %}"
  user: "Review {{ file }}"
`

const sharedManifest = `id: shared
kind: library
version: "1"
title: Shared
sections:
  persona: "You review {{ language }}."
  tone: "Be {{ tone }}."
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return dir
}

func TestEngine_FileSystem(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"review.yaml": reviewManifest,
		"shared.yaml": sharedManifest,
	})

	eng, err := promptdown.New(promptdown.WithRoot(dir))
	require.NoError(t, err)

	m, err := eng.LoadManifest(filepath.Join(dir, "review.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "review", m.ID)
	assert.Equal(t, map[string]any{"owner": "platform"}, m.Extra)

	out, err := eng.Render(context.Background(), m, domain.Variables{"language": "Go", "file": "main.go"}, domain.StrictPolicy)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"system": "You review Go.", "user": "Review main.go"}, out.Map())

	text, err := out.Join("user", "system")
	require.NoError(t, err)
	assert.Equal(t, "Review main.go\n\nYou review Go.", text)

	_, err = out.Join("nope")
	var us *domain.UnknownSectionError
	assert.True(t, errors.As(err, &us))

	names, err := eng.CollectPlaceholders(context.Background(), m, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"file", "language"}, names.Sorted())

	names, err = eng.CollectSectionPlaceholders(context.Background(), m, "user", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"file"}, names.Sorted())
}

func TestEngine_LoadErrors(t *testing.T) {
	eng, err := promptdown.New(promptdown.WithSource(memory.NewLoader(map[string]string{
		"/p/bad.yaml": "id: x\n",
	})))
	require.NoError(t, err)

	_, err = eng.Load("/p/missing.pmd")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = eng.Load("/p/bad.yaml")
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, schema.ValidationErrors(ve.Err), 4)

	_, err = eng.Load("")
	assert.Error(t, err)

	c, err := eng.LoadComponent("/p/bad.yaml")
	require.NoError(t, err)
	assert.Equal(t, "id: x\n", c.Body)
}

func TestEngine_SchemaOptions(t *testing.T) {
	files := map[string]string{"/p/review.yaml": reviewManifest, "/p/shared.yaml": sharedManifest}

	closed, err := promptdown.New(promptdown.WithSource(memory.NewLoader(files)), promptdown.WithClosedSchema())
	require.NoError(t, err)
	_, err = closed.LoadManifest("/p/review.yaml")
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, err.Error(), "unknown field")

	s, err := promptdown.LoadSchema("schema.yaml", []byte(`id: nonempty
kind: nonempty
version: /\d/
title: nonempty
sections: "{string}+"
owner: nonempty
`))
	require.NoError(t, err)
	custom, err := promptdown.New(promptdown.WithSource(memory.NewLoader(files)), promptdown.WithManifestSchema(s))
	require.NoError(t, err)

	_, err = custom.LoadManifest("/p/review.yaml")
	assert.NoError(t, err)
	_, err = custom.LoadManifest("/p/shared.yaml")
	assert.ErrorContains(t, err, `field "owner": required`)
}

func TestEngine_RenderFile(t *testing.T) {
	source := memory.NewLoader(map[string]string{
		"/p/review.yaml": reviewManifest,
		"/p/shared.yaml": sharedManifest,
		"/outside.pmd":   "secret",
	})
	eng, err := promptdown.New(promptdown.WithSource(source), promptdown.WithRoot("/p"))
	require.NoError(t, err)
	assert.Equal(t, "/p", eng.Root())

	var engine ports.PromptEngine = eng

	_, err = engine.RenderFile(context.Background(), ports.RenderRequest{Path: "review.yaml"})
	var missing *domain.MissingVariableError
	require.True(t, errors.As(err, &missing), "strict by default, got %v", err)

	permissive := false
	out, err := engine.RenderFile(context.Background(), ports.RenderRequest{
		Path:      "review.yaml",
		Variables: domain.Variables{"file": "a.go"},
		Strict:    &permissive,
		Section:   "user",
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.RenderedSection{{Name: "user", Text: "Review a.go"}}, out.Sections)

	_, err = engine.RenderFile(context.Background(), ports.RenderRequest{Path: "../outside.pmd"})
	var ip *domain.InvalidIncludePathError
	assert.True(t, errors.As(err, &ip))

	names, err := engine.PlaceholdersFile(context.Background(), ports.PlaceholderRequest{Path: "review.yaml"})
	require.NoError(t, err)
	assert.Equal(t, []string{"file", "language"}, names.Sorted())

	names, err = engine.PlaceholdersFile(context.Background(), ports.PlaceholderRequest{Path: "/p/review.yaml", Shallow: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"file"}, names.Sorted())
}

func TestEngine_DefaultPolicy(t *testing.T) {
	source := memory.NewLoader(map[string]string{"/p/a.pmd": "Hi {{ name }}"})
	eng, err := promptdown.New(promptdown.WithSource(source), promptdown.WithPolicy(domain.PermissivePolicy))
	require.NoError(t, err)

	out, err := eng.RenderFile(context.Background(), ports.RenderRequest{Path: "/p/a.pmd"})
	require.NoError(t, err)
	text, _ := out.Get(domain.ComponentSection)
	assert.Equal(t, "Hi ", text)
}

func TestEngine_Hooks(t *testing.T) {
	var finished []string
	hooks := domain.Hooks{
		OnRenderFinish: func(_ context.Context, e *domain.RenderEvent) {
			finished = append(finished, e.Mode+":"+e.Document)
		},
	}
	source := memory.NewLoader(map[string]string{"/p/a.pmd": "x"})
	eng, err := promptdown.New(promptdown.WithSource(source), promptdown.WithHooks(hooks))
	require.NoError(t, err)

	doc, err := eng.Load("/p/a.pmd")
	require.NoError(t, err)
	_, err = eng.Render(context.Background(), doc, nil, domain.StrictPolicy)
	require.NoError(t, err)
	_, err = eng.CollectPlaceholders(context.Background(), doc, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"render:/p/a.pmd", "collect:/p/a.pmd"}, finished)
}
