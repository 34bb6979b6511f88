/*
Package dsl provides a Go DSL for programmatically constructing prompt projects.

It allows developers to define manifests and components using a fluent builder
instead of writing YAML files, which is particularly useful for unit testing and
for prompts generated at runtime. The result is an in-memory source.

Example usage:

	b := dsl.New("/prompts")

	b.Component("persona.pmd", "You are {{ role }}.")

	b.Manifest("greet.yaml", "greet").
		Title("Greeting").
		Include("system", "persona.pmd").
		Section("user", "Hello {{ name }}")

	source, err := b.Build()
	if err != nil {
		// handle error
	}
	engine, err := promptdown.New(promptdown.WithSource(source), promptdown.WithRoot("/prompts"))
*/
package dsl
