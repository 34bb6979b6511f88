package graph

import (
	"strings"
	"testing"
)

func TestGenerateMermaid(t *testing.T) {
	edges := []Edge{
		{From: "/p/main.yaml", To: "/p/parts/persona.pmd"},
		{From: "/p/main.yaml", To: "/p/lib.yaml", Section: "rules"},
		{From: "/p/lib.yaml", To: "/p/parts/persona.pmd"},
		{From: "/p/main.yaml", To: "/p/parts/persona.pmd"},
	}

	output := GenerateMermaid("/p/main.yaml", edges, "/p", nil)

	expected := []string{
		"graph TD",
		`n0(("main.yaml"))`,
		`n1["parts/persona.pmd"]`,
		`n2[["lib.yaml"]]`,
		"n0 --> n1",
		`n0 -- "rules" --> n2`,
		"n2 --> n1",
	}
	for _, exp := range expected {
		if !strings.Contains(output, exp) {
			t.Errorf("expected output to contain %q, got:\n%s", exp, output)
		}
	}
	if strings.Count(output, "n0 --> n1") != 1 {
		t.Errorf("duplicate edges should be drawn once, got:\n%s", output)
	}
	if strings.Contains(output, "classDef") {
		t.Errorf("no overlay styles expected without an overlay")
	}
}

func TestGenerateMermaid_CycleOverlay(t *testing.T) {
	edges := []Edge{
		{From: "/p/a.pmd", To: "/p/b.pmd"},
		{From: "/p/b.pmd", To: "/p/a.pmd"},
	}
	overlay := &Overlay{Cycle: []string{"/p/a.pmd", "/p/b.pmd", "/p/a.pmd"}}

	output := GenerateMermaid("/p/a.pmd", edges, "", overlay)

	for _, exp := range []string{
		`n0(("/p/a.pmd"))`,
		"n1 --> n0",
		"classDef cycle",
		"class n0 cycle;",
		"class n1 cycle;",
	} {
		if !strings.Contains(output, exp) {
			t.Errorf("expected output to contain %q, got:\n%s", exp, output)
		}
	}
	if strings.Count(output, "class n0 cycle;") != 1 {
		t.Errorf("each node should be styled once, got:\n%s", output)
	}
}

func TestLabel(t *testing.T) {
	if got := label("/p/x/y.pmd", "/p"); got != "x/y.pmd" {
		t.Errorf("label() = %q", got)
	}
	if got := label("/q/y.pmd", "/p"); got != "/q/y.pmd" {
		t.Errorf("paths outside base should stay absolute, got %q", got)
	}
}
