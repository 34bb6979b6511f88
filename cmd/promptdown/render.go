package main

import (
	"github.com/aretw0/promptdown/internal/cli"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render a manifest or component",
	Long: `Renders a document with its includes resolved and prints the result.

Variables come from, in increasing priority: the vars of the config file,
--vars-json, --vars-yaml and repeated --var key=value flags. A value of
@path reads the variable from a file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		vars, _ := flags.GetStringArray("var")
		varsJSON, _ := flags.GetString("vars-json")
		varsYAML, _ := flags.GetString("vars-yaml")
		section, _ := flags.GetString("section")
		noStrict, _ := flags.GetBool("no-strict")
		placeholders, _ := flags.GetBool("placeholders")
		shallow, _ := flags.GetBool("shallow")
		jsonMode, _ := flags.GetBool("json")
		pretty, _ := flags.GetBool("pretty")
		watch, _ := flags.GetBool("watch")
		debug, _ := flags.GetBool("debug")

		jsonErrors = jsonMode
		opts := cli.RenderOptions{
			Path:         args[0],
			Section:      section,
			Vars:         vars,
			VarsJSON:     varsJSON,
			VarsYAML:     varsYAML,
			ConfigVars:   cfg.Vars,
			Strict:       cfg.Strict && !noStrict,
			Root:         cfg.Root,
			Schema:       cfg.Schema,
			ClosedSchema: cfg.Closed,
			OutDir:       cfg.OutDir,
			Placeholders: placeholders,
			Shallow:      shallow,
			JSON:         jsonMode,
			Pretty:       pretty,
			Watch:        watch,
			Debug:        debug,
			LogLevel:     cfg.LogLevel,
			Stdout:       cmd.OutOrStdout(),
			Stderr:       cmd.ErrOrStderr(),
		}
		return cli.Execute(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringArray("var", nil, "Variable as key=value (repeatable; dotted keys nest, @file reads a file)")
	renderCmd.Flags().String("vars-json", "", "JSON file with variables")
	renderCmd.Flags().String("vars-yaml", "", "YAML file with variables")
	renderCmd.Flags().StringP("section", "s", "", "Render only this manifest section")
	renderCmd.Flags().String("outdir", "", "Write the result into this directory instead of stdout")
	renderCmd.Flags().Bool("no-strict", false, "Render undefined variables as empty text")
	renderCmd.Flags().Bool("placeholders", false, "List the variables the document needs instead of rendering")
	renderCmd.Flags().Bool("shallow", false, "With --placeholders, do not follow includes")
	renderCmd.Flags().Bool("json", false, "Print the result (or the error) as JSON")
	renderCmd.Flags().Bool("pretty", false, "Format the markdown output when stdout is a terminal")
	renderCmd.Flags().BoolP("watch", "w", false, "Render again whenever the document or an include changes")
	renderCmd.Flags().Bool("debug", false, "Log every include at debug level")
}
