package promptdown_test

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aretw0/promptdown"
	"github.com/aretw0/promptdown/pkg/adapters/memory"
	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/aretw0/promptdown/pkg/dsl"
)

// ExampleNew_memory renders a manifest whose system section includes a component,
// using an in-memory source instead of the file system.
func ExampleNew_memory() {
	source := memory.NewLoader(map[string]string{
		"/prompts/review.yaml": `id: review
kind: prompt
version: "1.0"
title: Code review
sections:
  system: |
    {% include "parts/persona.pmd" %}
  user: "Review this {{ language }} change."
`,
		"/prompts/parts/persona.pmd": "You are a careful {{ language }} reviewer.\n",
	})

	eng, err := promptdown.New(promptdown.WithSource(source))
	if err != nil {
		log.Fatal(err)
	}

	doc, err := eng.Load("/prompts/review.yaml")
	if err != nil {
		log.Fatal(err)
	}

	out, err := eng.Render(context.Background(), doc, domain.Variables{"language": "Go"}, domain.StrictPolicy)
	if err != nil {
		log.Fatal(err)
	}

	for _, s := range out.Sections {
		fmt.Printf("%s: %s\n", s.Name, s.Text)
	}
	// Output:
	// system: You are a careful Go reviewer.
	// user: Review this Go change.
}

// ExampleEngine_CollectPlaceholders lists the variables of a component and its includes.
func ExampleEngine_CollectPlaceholders() {
	source := memory.NewLoader(map[string]string{
		"/p/main.pmd":   `Hi {{ user.name }}! {% if urgent %}{% include "footer.pmd" %}{% endif %}`,
		"/p/footer.pmd": `{% for line in lines %}{{ loop.index }} {{ line }}{% endfor %}{{ signature }}`,
	})

	eng, _ := promptdown.New(promptdown.WithSource(source))
	doc, _ := eng.Load("/p/main.pmd")

	shallow, _ := eng.CollectPlaceholders(context.Background(), doc, false)
	deep, _ := eng.CollectPlaceholders(context.Background(), doc, true)

	fmt.Println(shallow.Sorted())
	fmt.Println(deep.Sorted())
	// Output:
	// [urgent user]
	// [lines signature urgent user]
}

// Example_circularInclude shows the chain carried by a cycle.
func Example_circularInclude() {
	source := memory.NewLoader(map[string]string{
		"/p/a.pmd": `{% include "b.pmd" %}`,
		"/p/b.pmd": `{% include "a.pmd" %}`,
	})

	eng, _ := promptdown.New(promptdown.WithSource(source))
	doc, _ := eng.Load("/p/a.pmd")

	_, err := eng.Render(context.Background(), doc, nil, domain.StrictPolicy)

	var cycle *domain.CircularIncludeError
	if errors.As(err, &cycle) {
		fmt.Println(cycle.Chain)
	}
	// Output:
	// [/p/a.pmd /p/b.pmd /p/a.pmd]
}

// Example_builder declares a project in code and renders one section of it.
func Example_builder() {
	b := dsl.New("/prompts")
	b.Component("tone.pmd", "Answer in {{ language }}.")
	b.Manifest("chat.yaml", "chat").
		Include("system", "tone.pmd").
		Section("user", "{{ question }}")

	source, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	eng, _ := promptdown.New(promptdown.WithSource(source))
	doc, _ := eng.Load(b.Path("chat.yaml"))

	out, err := eng.RenderSection(context.Background(), doc, "system", domain.Variables{"language": "Portuguese"}, domain.StrictPolicy)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out.Sections[0].Text)
	// Output:
	// Answer in Portuguese.
}
