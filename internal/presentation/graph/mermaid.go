// Package graph renders include graphs as Mermaid flowcharts.
package graph

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/promptdown/pkg/domain"
)

// Edge is one include: From includes To, optionally a single section of it.
type Edge struct {
	From    string
	To      string
	Section string
}

// Overlay marks documents to highlight on the graph.
type Overlay struct {
	// Cycle is the include chain of a circular include, first path repeated last.
	Cycle []string
}

// GenerateMermaid produces a Mermaid flowchart of the documents reachable from root.
// Labels are shown relative to base when it is set. It applies semantic styling:
// - Root document: ((Circle))
// - Manifest: [[Subroutine]]
// - Component: [Rectangle]
// Duplicate edges are drawn once.
func GenerateMermaid(root string, edges []Edge, base string, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ids := map[string]string{}
	var order []string
	node := func(path string) string {
		if id, ok := ids[path]; ok {
			return id
		}
		id := fmt.Sprintf("n%d", len(ids))
		ids[path] = id
		order = append(order, path)
		return id
	}

	node(root)
	seen := map[Edge]bool{}
	var lines []string
	for _, e := range edges {
		if seen[e] {
			continue
		}
		seen[e] = true
		from, to := node(e.From), node(e.To)
		if e.Section != "" {
			lines = append(lines, fmt.Sprintf("    %s -- \"%s\" --> %s\n", from, escape(e.Section), to))
		} else {
			lines = append(lines, fmt.Sprintf("    %s --> %s\n", from, to))
		}
	}

	for _, path := range order {
		opener, closer := "[", "]"
		switch {
		case path == root:
			opener, closer = "((", "))"
		case domain.IsManifestPath(path):
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", ids[path], opener, escape(label(path, base)), closer)
	}
	for _, l := range lines {
		sb.WriteString(l)
	}

	if overlay != nil && len(overlay.Cycle) > 1 {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef cycle fill:#fee2e2,stroke:#b91c1c,stroke-width:3px,color:#000;\n")
		styled := map[string]bool{}
		for _, path := range overlay.Cycle {
			id, ok := ids[path]
			if !ok || styled[id] {
				continue
			}
			styled[id] = true
			fmt.Fprintf(&sb, "    class %s cycle;\n", id)
		}
	}

	return sb.String()
}

func label(path, base string) string {
	if base == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
