package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	sb "github.com/reoring/skemabridge"
	"github.com/reoring/skemabridge/schema"
)

var checkTable string

var checkCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Check a JSON document against a table",
	Long: `Decode a JSON document in wire form (dates as epoch milliseconds) and
parse it against the table schema. On failure the flattened report is
printed and the command exits with status 1.

Examples:
  skemabridge check --table profiles -f tables.yaml doc.json
  skemabridge check --table profiles -f tables.yaml --lang ja doc.json`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkTable, "table", "", "table name")
	_ = checkCmd.MarkFlagRequired("table")
}

func runCheck(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	desc, err := e.table(checkTable)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	v, err := desc.Codec().Unmarshal(data)
	if err != nil {
		return err
	}

	_, err = schema.Parse(cmd.Context(), desc.Schema(), v)
	if err == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	}
	iss, ok := sb.AsIssues(err)
	if !ok {
		return err
	}
	raw, merr := json.MarshalIndent(iss.Flatten(), "", "  ")
	if merr != nil {
		return merr
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	return errors.New("document does not match " + desc.Name())
}
