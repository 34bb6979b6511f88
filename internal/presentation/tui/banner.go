package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the promptdown banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"                            _      _", "#818cf8"},
		{"  _ __ _ _ ___ _ __  _ __| |_ __| |_____ __ ___ _", "#a78bfa"},
		{" | '_ \\ '_/ _ \\ '  \\| '_ \\  _/ _` / _ \\ V  V / ' \\", "#c084fc"},
		{" | .__/_| \\___/_|_|_| .__/\\__\\__,_\\___/\\_/\\_/|_||_|", "#e879f9"},
		{" |_|                |_|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  version "+version).Faint())
	fmt.Fprintln(w)
}
