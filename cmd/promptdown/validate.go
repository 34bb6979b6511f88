package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/promptdown/internal/cli"
	"github.com/aretw0/promptdown/internal/presentation/tui"
	"github.com/aretw0/promptdown/internal/validator"
	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/aretw0/promptdown/pkg/schema"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <files or directories...>",
	Short: "Check documents and their include graphs",
	Long: `Loads every document and walks its includes without rendering. Reports
schema violations, syntax errors, missing includes and include cycles.
Directories are searched for .yaml, .yml, .json and .pmd files. The JSON report
also carries the manifest schema in effect.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		jsonErrors = jsonMode

		engine, err := cli.CreateEngine(engineOptions(), newLogger(false))
		if err != nil {
			return err
		}
		paths, err := validator.ExpandPaths(args)
		if err != nil {
			return err
		}

		report := validator.Validate(cmd.Context(), engine, paths)
		if jsonMode {
			if err := printValidationJSON(cmd, report, engine.Schema()); err != nil {
				return err
			}
		} else {
			printValidation(cmd, report)
		}

		if failed := len(report.Failed()); failed > 0 {
			return &validationFailed{failed: failed, total: len(report.Files)}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("json", false, "Print the results as JSON")
}

// validationFailed is returned once every failure has been printed.
type validationFailed struct {
	failed, total int
}

func (e *validationFailed) Error() string {
	return fmt.Sprintf("%d of %d documents failed validation", e.failed, e.total)
}

func printValidation(cmd *cobra.Command, report validator.Report) {
	out := cmd.OutOrStdout()
	for _, f := range report.Files {
		if f.Err != nil {
			tui.PrintError(cmd.ErrOrStderr(), domain.ReportError(f.Err))
			continue
		}
		fmt.Fprintf(out, "ok  %s (%s, %d placeholders)\n", f.Path, f.Kind, len(f.Placeholders))
	}
}

func printValidationJSON(cmd *cobra.Command, report validator.Report, manifestSchema schema.Schema) error {
	type fileJSON struct {
		Path         string              `json:"path"`
		Kind         domain.DocumentKind `json:"kind,omitempty"`
		Placeholders []string            `json:"placeholders,omitempty"`
		Error        *domain.ErrorReport `json:"error,omitempty"`
	}

	files := make([]fileJSON, 0, len(report.Files))
	for _, f := range report.Files {
		entry := fileJSON{Path: f.Path, Kind: f.Kind, Placeholders: f.Placeholders}
		if f.Err != nil {
			r := domain.ReportError(f.Err)
			entry.Error = &r
		}
		files = append(files, entry)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Schema schema.Schema `json:"schema"`
		Files  []fileJSON    `json:"files"`
	}{manifestSchema, files})
}
