package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/muesli/termenv"
)

// PrintError writes a one-line summary of r followed by the details it carries:
// the include chain, the violations of a manifest or the offending variable.
// Colors are only used when w is a terminal that supports them.
func PrintError(w io.Writer, r domain.ErrorReport) {
	out := termenv.NewOutput(w)
	label := out.String("error").Bold().Foreground(out.Color("#f87171"))
	kind := out.String("[" + r.Kind + "]").Faint()

	fmt.Fprintf(w, "%s %s %s\n", label, kind, summary(r))

	detail := func(name, value string) {
		fmt.Fprintf(w, "  %s %s\n", out.String(name+":").Foreground(out.Color("#a78bfa")), value)
	}
	if len(r.Chain) > 0 {
		detail("chain", strings.Join(r.Chain, " -> "))
	}
	if r.Variable != "" {
		detail("variable", r.Variable)
	}
	if r.Document != "" {
		if r.Line > 0 {
			detail("at", fmt.Sprintf("%s:%d", r.Document, r.Line))
		} else {
			detail("in", r.Document)
		}
	}
	for _, v := range r.Violations {
		fmt.Fprintf(w, "  - %s\n", v)
	}
}

// summary is the first line of the message; aggregated validation errors span several.
func summary(r domain.ErrorReport) string {
	first, _, _ := strings.Cut(r.Message, "\n")
	return first
}
