/*
Package promptdown loads prompt manifests and components, renders them and discovers
the variables they need.

A manifest is a YAML or JSON file with metadata (id, kind, version, title) and named
sections. A component is any other file and holds a single body. Bodies use a small
template language, the Django/Jinja dialect of pongo2:

	{{ name }}                          output an expression
	{{ user.email|default:"n/a" }}      attributes, indexes and filters
	{% if admin %}…{% elif x %}…{% else %}…{% endif %}
	{% for item in items %}{{ loop.index }}. {{ item }}{% else %}none{% endfor %}
	{% for key, value in mapping %}…{% endfor %}
	{% include "parts/intro.pmd" %}
	{% include_section "shared.yaml", "persona" %}
	{# single line comment #}

Mappings iterate in key order. Lists and mappings print as JSON.

Includes resolve relative to the including file. Cycles are reported with the
chain of files that forms them, while the same file reached through two sibling
branches is fine.

# Usage

	eng, err := promptdown.New(promptdown.WithRoot("./prompts"))
	if err != nil {
		log.Fatal(err)
	}

	doc, err := eng.Load("./prompts/review.yaml")
	if err != nil {
		log.Fatal(err)
	}

	// Which variables does the prompt need, including its includes?
	names, err := eng.CollectPlaceholders(ctx, doc, true)

	out, err := eng.Render(ctx, doc, domain.Variables{"language": "Go"}, domain.StrictPolicy)
	text, _ := out.Join()

In strict mode an undefined variable fails with *domain.MissingVariableError; in
permissive mode it renders as an empty string. Every failure is a typed error from
pkg/domain and can be inspected with errors.As.
*/
package promptdown
