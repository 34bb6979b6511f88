package ports

import (
	"context"

	"github.com/aretw0/promptdown/pkg/domain"
)

// RenderRequest describes one render call made through an adapter.
type RenderRequest struct {
	Path      string           `json:"path"`
	Variables domain.Variables `json:"variables,omitempty"`
	Strict    *bool            `json:"strict,omitempty"`
	Section   string           `json:"section,omitempty"`
}

// PlaceholderRequest describes one placeholder discovery call made through an adapter.
type PlaceholderRequest struct {
	Path    string `json:"path"`
	Section string `json:"section,omitempty"`
	Shallow bool   `json:"shallow,omitempty"`
}

// PromptEngine is the interface used by adapters (HTTP, MCP) that serve requests.
// Implementations must be safe for concurrent use by independent calls.
type PromptEngine interface {
	// RenderFile loads the document at path and renders it.
	RenderFile(ctx context.Context, req RenderRequest) (*domain.Rendered, error)

	// PlaceholdersFile loads the document at path and returns every variable it may require.
	PlaceholdersFile(ctx context.Context, req PlaceholderRequest) (domain.PlaceholderSet, error)
}
