/*
Package domain contains the core domain models of the promptdown engine.

It defines the documents the engine works on, the render policy and results, the
typed errors every traversal can surface and the observability hooks. This package
is kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Document: a loaded Manifest (metadata + named sections) or Component (one body).
  - Target: the payload of an include directive.
  - RenderPolicy: strict or permissive handling of undefined variables.
  - Rendered: the section-name to text result of a render, in declaration order.
  - PlaceholderSet: the variable names discovered by a static scan.
*/
package domain
