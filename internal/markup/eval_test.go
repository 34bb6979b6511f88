package markup

import (
	"errors"
	"strconv"
	"testing"

	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strictScope(vars domain.Variables) Scope {
	return Scope{Name: "/p/doc.pmd", Variables: vars, Policy: domain.StrictPolicy}
}

func permissiveScope(vars domain.Variables) Scope {
	return Scope{Name: "/p/doc.pmd", Variables: vars, Policy: domain.PermissivePolicy}
}

func TestEvaluate(t *testing.T) {
	vars := domain.Variables{
		"name":   "Ada",
		"count":  float64(3),
		"ratio":  0.5,
		"admin":  true,
		"tools":  []any{"search", "calc"},
		"user":   map[string]any{"role": "engineer", "langs": []string{"go", "py"}},
		"empty":  []any{},
		"params": map[string]string{"b": "2", "a": "1"},
		"text":   "a\nb",
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"plain text", "Hello", "Hello"},
		{"substitution", "Hello {{ name }}!", "Hello Ada!"},
		{"no spaces", "{{name}}", "Ada"},
		{"whole float prints as int", "{{ count }} / {{ ratio }}", "3 / 0.5"},
		{"bool", "{{ admin }}", "True"},
		{"attribute", "{{ user.role }}", "engineer"},
		{"index", `{{ tools.1 }} {{ tools[1] }} {{ user["role"] }}`, "calc calc engineer"},
		{"list output is json", "{{ tools }}", `["search","calc"]`},
		{"mapping output is json", "{{ params }}", `{"a":"1","b":"2"}`},
		{"if true", "{% if admin %}yes{% endif %}", "yes"},
		{"elif", "{% if count > 5 %}big{% elif count > 2 %}mid{% else %}small{% endif %}", "mid"},
		{"else", "{% if not admin %}a{% else %}b{% endif %}", "b"},
		{"in", "{% if 'calc' in tools %}ok{% endif %}", "ok"},
		{"string in", "{% if 'da' in name %}sub{% endif %}", "sub"},
		{"for", "{% for t in tools %}[{{ t }}]{% endfor %}", "[search][calc]"},
		{"loop helpers", "{% for t in tools %}{{ loop.index }}/{{ loop.length }}{% if not loop.last %},{% endif %}{% endfor %}", "1/2,2/2"},
		{"reversed", "{% for t in tools reversed %}{{ loop.index0 }}{{ t }}{% endfor %}", "0calc1search"},
		{"for else", "{% for t in empty %}x{% else %}none{% endfor %}", "none"},
		{"for empty", "{% for t in empty %}x{% empty %}none{% endfor %}", "none"},
		{"key value", "{% for k, v in params %}{{ k }}={{ v }};{% endfor %}", "a=1;b=2;"},
		{"mapping iterates sorted keys", "{% for k in params %}{{ k }}{% endfor %}", "ab"},
		{"nested attr loop", "{% for l in user.langs %}{{ l|upper }}{% endfor %}", "GOPY"},
		{"arithmetic", "{{ count + 1 }} {{ count - 1 }}", "4 2"},
		{"filters", `{{ name|lower }} {{ "hello world"|title }} {{ "hELLO"|capitalize }}`, "ada Hello World Hello"},
		{"filter args", `{{ tools|join:", " }} {{ name|cut:"A" }}`, "search, calc da"},
		{"length", "{{ tools|length }} {{ name|length }}", "2 3"},
		{"first last", "{{ tools|first }} {{ tools|last }}", "search calc"},
		{"default on defined", `{{ name|default:"x" }}`, "Ada"},
		{"trim", `[{{ "  x "|trim }}]`, "[x]"},
		{"indent", "{{ text|indent:2 }}", "a\n  b"},
		{"tojson", "{{ params|tojson }} {{ name|tojson }}", `{"a":"1","b":"2"} "Ada"`},
		{"set", "{% set greeting = 'Hi ' %}{{ greeting }}{{ name }}", "Hi Ada"},
		{"with", "{% with who=user.role %}{{ who }}{% endwith %}", "engineer"},
		{"comment", "a{# hidden {{ x }} #}b", "ab"},
		{"comment block", "a{% comment %}{{ x }}\n{% endcomment %}b", "ab"},
		{"verbatim", "{% verbatim %}{{ name }}{% endverbatim %}", "{{ name }}"},
		{"no html escaping", "{{ '<b>&' }}", "<b>&"},
		{"whitespace control", "a  {%- if admin -%}  b  {%- endif -%}  c", "abc"},
		{"output whitespace control", "x \n {{- name -}} \n y", "xAday"},
		{"trailing newline dropped", "Hello {{ name }}\n", "Hello Ada"},
		{"only one trailing newline", "Hello\n\n", "Hello\n"},
		{"quoted close inside tag", `{{ "}}" }}{{ name }}`, "}}Ada"},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(tt.body, strictScope(vars))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_StrictMissingVariable(t *testing.T) {
	e := New()

	tests := []struct {
		body string
		name string
	}{
		{"Hi {{ missing }}", "missing"},
		{"{% if missing %}x{% endif %}", "missing"},
		{"{% for x in missing %}x{% endfor %}", "missing"},
		{"{{ ghost.email }}", "ghost"},
		{"{{ missing|upper }}", "missing"},
		{`{{ "a"|add:missing }}`, "missing"},
		{`{{ missing|upper|default:"x" }}`, "missing"},
		{"{% include part %}", "part"},
		{"{% for x in xs %}{% endfor %}{{ x }}", "xs"},
	}

	for _, tt := range tests {
		_, err := e.Evaluate(tt.body, strictScope(domain.Variables{"user": map[string]any{}}))

		var missing *domain.MissingVariableError
		require.ErrorAs(t, err, &missing, tt.body)
		assert.Equal(t, tt.name, missing.Name, tt.body)
		assert.Equal(t, "/p/doc.pmd", missing.Document)
	}
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	e := New()

	got, err := e.Evaluate("{% if flag and missing %}yes{% else %}no{% endif %}", strictScope(domain.Variables{"flag": false}))
	require.NoError(t, err)
	assert.Equal(t, "no", got)

	got, err = e.Evaluate("{% if flag or missing %}yes{% endif %}", strictScope(domain.Variables{"flag": true}))
	require.NoError(t, err)
	assert.Equal(t, "yes", got)

	_, err = e.Evaluate("{% if flag and missing %}yes{% endif %}", strictScope(domain.Variables{"flag": true}))
	var missing *domain.MissingVariableError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "missing", missing.Name)

	_, err = e.Evaluate("{% if flag or missing %}yes{% endif %}", strictScope(domain.Variables{"flag": false}))
	require.ErrorAs(t, err, &missing)
}

func TestEvaluate_StrictEscapeHatches(t *testing.T) {
	body := `{{ missing|default:"anon" }}{{ missing|d:"" }}{{ missing.attr|default_if_none:"-" }}`

	got, err := New().Evaluate(body, strictScope(nil))
	require.NoError(t, err)
	assert.Equal(t, "anon-", got)
}

func TestEvaluate_StrictMissingAttributeIsEmpty(t *testing.T) {
	got, err := New().Evaluate("[{{ user.email }}]", strictScope(domain.Variables{"user": map[string]any{}}))
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestEvaluate_Permissive(t *testing.T) {
	body := "Hello {{ missing }}, {{ ghost.attr }}{% if missing %}hidden{% endif %}" +
		"{% for x in missing %}x{% endfor %}{{ missing|upper }}"

	got, err := New().Evaluate(body, permissiveScope(nil))
	require.NoError(t, err)
	assert.Equal(t, "Hello , ", got)
}

func TestEvaluate_NilIsDefined(t *testing.T) {
	got, err := New().Evaluate(`[{{ maybe }}]{{ maybe|default_if_none:"none" }}`, strictScope(domain.Variables{"maybe": nil}))
	require.NoError(t, err)
	assert.Equal(t, "[]none", got)
}

func TestEvaluate_TwoLoopVariablesNeedAMapping(t *testing.T) {
	_, err := New().Evaluate("{% for k, v in name %}{{ k }}{% endfor %}", strictScope(domain.Variables{"name": "Ada"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "string")
	assert.Contains(t, err.Error(), "not a mapping")
	assert.NotContains(t, err.Error(), "unpack")

	var missing *domain.MissingVariableError
	assert.False(t, errors.As(err, &missing))
}

func TestEvaluate_Include(t *testing.T) {
	var targets []domain.Target
	scope := strictScope(domain.Variables{"part": "b.pmd"})
	scope.Include = func(target domain.Target) (string, error) {
		targets = append(targets, target)
		return "<" + target.String() + ">", nil
	}

	got, err := New().Evaluate(`{% include "a.pmd" %}|{% include_section "m.yaml", "system" %}|{% include part %}`, scope)
	require.NoError(t, err)
	assert.Equal(t, "<a.pmd>|<m.yaml#system>|<b.pmd>", got)
	assert.Equal(t, []domain.Target{
		{Path: "a.pmd"},
		{Path: "m.yaml", Section: "system"},
		{Path: "b.pmd"},
	}, targets)
}

func TestEvaluate_IncludeErrorIsReturnedUnchanged(t *testing.T) {
	cycle := &domain.CircularIncludeError{Chain: []string{"/p/a.pmd", "/p/b.pmd", "/p/a.pmd"}}
	scope := strictScope(nil)
	scope.Include = func(domain.Target) (string, error) { return "", cycle }

	_, err := New().Evaluate(`before {% include "b.pmd" %} after`, scope)
	var got *domain.CircularIncludeError
	require.True(t, errors.As(err, &got))
	assert.Same(t, cycle, got)
}

func TestEvaluate_IncludeInsideFalseBranchIsNotFollowed(t *testing.T) {
	scope := strictScope(domain.Variables{"on": false})
	scope.Include = func(domain.Target) (string, error) {
		t.Fatal("include should not run")
		return "", nil
	}

	got, err := New().Evaluate(`{% if on %}{% include "x.pmd" %}{% endif %}off`, scope)
	require.NoError(t, err)
	assert.Equal(t, "off", got)
}

func TestEvaluate_SyntaxErrors(t *testing.T) {
	tests := []struct {
		body string
		line int
	}{
		{"{% if x %}never closed", 1},
		{"line1\n{{ }}", 2},
		{"a\nb\n{% endfor %}", 3},
		{"{{ x|nosuchfilter }}", 1},
		{"{% unknown %}", 1},
		{"{{ x", 1},
		{"{% for in xs %}{% endfor %}", 1},
		{"{% include %}", 1},
		{"{% include_section 'a.yaml' %}", 1},
		{"{% verbatim %}open", 1},
		{"{% extends 'base.pmd' %}", 1},
		{"a\n{% ssi '/etc/passwd' %}", 2},
		{"{{ xs|random }}", 1},
	}

	e := New()
	for _, tt := range tests {
		_, err := e.Evaluate(tt.body, strictScope(nil))

		var syntax *domain.TemplateSyntaxError
		require.ErrorAs(t, err, &syntax, tt.body)
		assert.Equal(t, "/p/doc.pmd", syntax.Path)
		assert.Equal(t, tt.line, syntax.Line, tt.body)
	}
}

func TestEvaluate_DoesNotMutateVariables(t *testing.T) {
	vars := domain.Variables{"tools": []any{"a", 2.0}, "m": map[string]any{"k": "v"}}
	_, err := New().Evaluate("{% for t in tools %}{{ t }}{% endfor %}{{ m.k }}", strictScope(vars))
	require.NoError(t, err)
	assert.Equal(t, domain.Variables{"tools": []any{"a", 2.0}, "m": map[string]any{"k": "v"}}, vars)
}

func TestEvaluate_LoopVariableShadowsContext(t *testing.T) {
	vars := domain.Variables{"x": "outer", "xs": []any{1, 2}}
	got, err := New().Evaluate("{% for x in xs %}{{ x }}{% endfor %}{{ x }}", strictScope(vars))
	require.NoError(t, err)
	assert.Equal(t, "12outer", got)
}

func TestParse_Cached(t *testing.T) {
	e := New()
	a, err := e.Parse("/p/a.pmd", "{{ x }}\n")
	require.NoError(t, err)
	b, err := e.Parse("/p/a.pmd", "{{ x }}")
	require.NoError(t, err)
	assert.Same(t, a, b, "bodies differing only by the trailing newline share a template")

	// Sections of one manifest share the name.
	c, err := e.Parse("/p/a.pmd", "{{ y }}")
	require.NoError(t, err)
	a2, err := e.Parse("/p/a.pmd", "{{ x }}")
	require.NoError(t, err)
	c2, err := e.Parse("/p/a.pmd", "{{ y }}")
	require.NoError(t, err)
	assert.Same(t, a, a2)
	assert.Same(t, c, c2)
}

func TestParse_CacheIsBoundedPerName(t *testing.T) {
	e := New()
	first, err := e.Parse("/p/a.pmd", "v0")
	require.NoError(t, err)

	var last *Template
	for i := 1; i <= maxBodiesPerName; i++ {
		last, err = e.Parse("/p/a.pmd", "v"+strconv.Itoa(i))
		require.NoError(t, err)
	}
	assert.Len(t, e.cache["/p/a.pmd"].templates, maxBodiesPerName)
	assert.Len(t, e.cache["/p/a.pmd"].bodies, maxBodiesPerName)

	again, err := e.Parse("/p/a.pmd", "v"+strconv.Itoa(maxBodiesPerName))
	require.NoError(t, err)
	assert.Same(t, last, again)

	reparsed, err := e.Parse("/p/a.pmd", "v0")
	require.NoError(t, err)
	assert.NotSame(t, first, reparsed, "the oldest body was evicted")

	out, err := reparsed.Execute(strictScope(nil))
	require.NoError(t, err)
	assert.Equal(t, "v0", out)
}
