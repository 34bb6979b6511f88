package cli

import (
	"encoding/json"

	"github.com/aretw0/promptdown/internal/presentation/tui"
	"github.com/aretw0/promptdown/pkg/domain"
)

// PrintError reports err: as JSON on stdout in JSON mode, otherwise as a
// colored summary with its details on stderr.
func PrintError(opts RenderOptions, err error) {
	report := domain.ReportError(err)
	if opts.JSON {
		enc := json.NewEncoder(opts.stdout())
		enc.SetIndent("", "  ")
		_ = enc.Encode(struct {
			Error domain.ErrorReport `json:"error"`
		}{report})
		return
	}
	tui.PrintError(opts.stderr(), report)
}
