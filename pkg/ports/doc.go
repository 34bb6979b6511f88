/*
Package ports defines the driven ports (interfaces) for the promptdown engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to read documents from various backends and to be served by adapters.

# Key Interfaces

  - Source: Responsible for reading documents by absolute path (e.g., from disk or Memory).
  - Watchable: Optional capability of a Source to signal changes (render --watch).
  - OutputStore: Responsible for persisting rendered sections (render --outdir).
  - PromptEngine: The surface consumed by the HTTP and MCP adapters.
*/
package ports
