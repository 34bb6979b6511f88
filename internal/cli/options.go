package cli

import (
	"io"
	"os"

	"github.com/aretw0/promptdown/internal/adapters/file"
	"github.com/aretw0/promptdown/pkg/ports"
)

// RenderOptions contains all the configuration for the render command.
type RenderOptions struct {
	Path    string
	Section string

	Vars       []string       // key=value assignments, highest priority
	VarsJSON   string         // JSON variables file
	VarsYAML   string         // YAML variables file
	ConfigVars map[string]any // variables from the config file, lowest priority

	Strict       bool
	Root         string
	Schema       string // schema descriptor file
	ClosedSchema bool

	OutDir       string
	Placeholders bool
	Shallow      bool
	JSON         bool
	Pretty       bool
	Watch        bool
	Debug        bool
	LogLevel     string

	// Output receives files when OutDir is set. Defaults to a file store rooted at OutDir.
	Output ports.OutputStore

	Stdout io.Writer
	Stderr io.Writer
}

func (o *RenderOptions) output() ports.OutputStore {
	if o.Output == nil {
		return file.New(o.OutDir)
	}
	return o.Output
}

func (o *RenderOptions) stdout() io.Writer {
	if o.Stdout == nil {
		return os.Stdout
	}
	return o.Stdout
}

func (o *RenderOptions) stderr() io.Writer {
	if o.Stderr == nil {
		return os.Stderr
	}
	return o.Stderr
}

// variables resolves every variable source in priority order.
func (o *RenderOptions) variables() (map[string]any, error) {
	layers := []map[string]any{o.ConfigVars}
	if o.VarsJSON != "" {
		v, err := LoadVarsFile(o.VarsJSON, true)
		if err != nil {
			return nil, err
		}
		layers = append(layers, v)
	}
	if o.VarsYAML != "" {
		v, err := LoadVarsFile(o.VarsYAML, false)
		if err != nil {
			return nil, err
		}
		layers = append(layers, v)
	}
	assigned, err := ParseAssignments(o.Vars, nil)
	if err != nil {
		return nil, err
	}
	layers = append(layers, assigned)
	return MergeVars(layers...), nil
}
