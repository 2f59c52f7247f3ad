package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var validatorsJSON bool

var validatorsCmd = &cobra.Command{
	Use:   "validators",
	Short: "Print the storage validator of every field",
	Long: `Print the storage validator tree each table field maps to.

Examples:
  skemabridge validators -f tables.yaml
  skemabridge validators -f tables.yaml --json`,
	Args: cobra.NoArgs,
	RunE: runValidators,
}

func init() {
	rootCmd.AddCommand(validatorsCmd)
	validatorsCmd.Flags().BoolVar(&validatorsJSON, "json", false, "print validator trees as JSON")
}

func runValidators(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if validatorsJSON {
		all := make(map[string]any, len(e.tables))
		for _, d := range e.tables {
			all[d.Name()] = d.Document()
		}
		raw, err := json.MarshalIndent(all, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(raw))
		return nil
	}
	for _, d := range e.tables {
		fmt.Fprintf(out, "%s:\n", d.Name())
		for _, f := range d.Document().Fields {
			fmt.Fprintf(out, "  %s: %s\n", f.Name, f.Node)
		}
	}
	return nil
}
