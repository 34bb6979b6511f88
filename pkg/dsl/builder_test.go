package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/promptdown"
	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/aretw0/promptdown/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Project(t *testing.T) {
	b := dsl.New("/prompts")

	b.Component("parts/persona.pmd", "You are {{ role }}.\n")

	b.Manifest("lib.yaml", "lib").
		Section("rules", "Never {{ forbidden }}.")

	b.Manifest("greet.yaml", "greet").
		Title("Greeting").
		Version("2.0").
		Description("Says hello").
		Tags("demo", "test").
		Field("owner", "team-a").
		Include("system", "parts/persona.pmd").
		IncludeSection("rules", "lib.yaml", "rules").
		Section("user", "Hello {{ name }}\nBye")

	source, err := b.Build()
	require.NoError(t, err)

	engine, err := promptdown.New(promptdown.WithSource(source), promptdown.WithRoot("/prompts"))
	require.NoError(t, err)

	m, err := engine.LoadManifest(b.Path("greet.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "greet", m.ID)
	assert.Equal(t, "2.0", m.Version)
	assert.Equal(t, "Greeting", m.Title)
	assert.Equal(t, []string{"demo", "test"}, m.Tags)
	assert.Equal(t, "team-a", m.Extra["owner"])

	names := make([]string, len(m.Sections()))
	for i, s := range m.Sections() {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"system", "rules", "user"}, names, "sections keep insertion order")

	out, err := engine.Render(context.Background(), m, domain.Variables{"role": "kind", "forbidden": "lie", "name": "Ada"}, domain.StrictPolicy)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"system": "You are kind.",
		"rules":  "Never lie.",
		"user":   "Hello Ada\nBye",
	}, out.Map())
}

func TestBuilder_Defaults(t *testing.T) {
	b := dsl.New("/p")
	b.Manifest("m.yaml", "m").Section("s", "1")

	source, err := b.Build()
	require.NoError(t, err)
	engine, err := promptdown.New(promptdown.WithSource(source))
	require.NoError(t, err)

	m, err := engine.LoadManifest("/p/m.yaml")
	require.NoError(t, err)
	assert.Equal(t, "prompt", m.Type)
	assert.Equal(t, "1", m.Version)
	assert.Equal(t, "m", m.Title)
	assert.Equal(t, "1", m.Sections()[0].Body, "numeric-looking bodies stay strings")
}

func TestBuilder_SameManifestReturned(t *testing.T) {
	b := dsl.New("/p")
	first := b.Manifest("m.yaml", "m")
	assert.Same(t, first, b.Manifest("m.yaml", "other"))
	assert.Equal(t, "/p/abs.pmd", b.Path("/p/x/../abs.pmd"))
}

func TestBuilder_Errors(t *testing.T) {
	b := dsl.New("/p")
	b.Manifest("empty.yaml", "empty")
	_, err := b.Build()
	assert.Error(t, err, "manifest without sections")

	b = dsl.New("/p")
	b.Manifest("dup.yaml", "dup").Section("a", "x").Section("a", "y")
	_, err = b.Build()
	assert.ErrorContains(t, err, `duplicate section "a"`)

	b = dsl.New("/p")
	b.Component("x.yaml", "raw")
	b.Manifest("x.yaml", "x").Section("a", "x")
	_, err = b.Build()
	assert.ErrorContains(t, err, "both as a component and a manifest")
}
