package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/reoring/skemabridge/crud"
	"github.com/reoring/skemabridge/fnwrap"
	"github.com/reoring/skemabridge/store/memory"
	"github.com/reoring/skemabridge/store/sqlite"
	"github.com/reoring/skemabridge/table"
)

// backend is an opened document store with every table registered.
type backend struct {
	query    fnwrap.RawBuilder[crud.QueryCtx]
	mutation fnwrap.RawBuilder[crud.MutationCtx]
	close    func() error
}

func openBackend(e *env) (*backend, error) {
	switch e.cfg.Store.Driver {
	case "memory":
		db := memory.New(memory.WithLogger(e.logger))
		for _, d := range e.tables {
			db.RegisterTable(d)
		}
		return &backend{query: memory.Query(db), mutation: memory.Mutation(db), close: func() error { return nil }}, nil
	case "sqlite":
		s, err := sqlite.Open(e.cfg.Store.DSN, sqlite.WithLogger(e.logger))
		if err != nil {
			return nil, err
		}
		for _, d := range e.tables {
			s.RegisterTable(d)
		}
		return &backend{query: sqlite.Query(s), mutation: sqlite.Mutation(s), close: s.Close}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", e.cfg.Store.Driver)
}

type storeFunc func(cmd *cobra.Command, desc *table.Descriptor, ops *crud.Operations) error

// withOperations opens the configured store, generates the CRUD operations
// of the --table table and hands them to fn.
func withOperations(fn storeFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		desc, err := e.table(storeTable)
		if err != nil {
			return err
		}
		b, err := openBackend(e)
		if err != nil {
			return err
		}
		defer b.close()
		ops := crud.Generate(desc, b.query, b.mutation, fnwrap.WithObserver(fnwrap.LogObserver(e.logger)))
		return fn(cmd, desc, ops)
	}
}

var (
	storeTable string
	storeID    string
	storeFile  string
	listLimit  int
	listCursor string
)

var insertCmd = &cobra.Command{
	Use:   "insert",
	Short: "Insert a document through the generated create operation",
	Long: `Read a wire-form JSON document, validate it against the table and insert
it into the configured store. Prints the new id.

Examples:
  skemabridge insert --table profiles --file doc.json -c skemabridge.yaml`,
	Args: cobra.NoArgs,
	RunE: withOperations(runInsert),
}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print a stored document",
	Args:  cobra.NoArgs,
	RunE:  withOperations(runGet),
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print one page of stored documents",
	Args:  cobra.NoArgs,
	RunE:  withOperations(runList),
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a stored document and print it",
	Args:  cobra.NoArgs,
	RunE:  withOperations(runDelete),
}

func init() {
	for _, c := range []*cobra.Command{insertCmd, getCmd, listCmd, deleteCmd} {
		rootCmd.AddCommand(c)
		c.Flags().StringVar(&storeTable, "table", "", "table name")
		_ = c.MarkFlagRequired("table")
	}
	insertCmd.Flags().StringVar(&storeFile, "file", "", "JSON document to insert")
	_ = insertCmd.MarkFlagRequired("file")
	for _, c := range []*cobra.Command{getCmd, deleteCmd} {
		c.Flags().StringVar(&storeID, "id", "", "document id")
		_ = c.MarkFlagRequired("id")
	}
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "page size (store default when 0)")
	listCmd.Flags().StringVar(&listCursor, "cursor", "", "continue cursor from a previous page")
}

func runInsert(cmd *cobra.Command, desc *table.Descriptor, ops *crud.Operations) error {
	data, err := os.ReadFile(storeFile)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	v, err := desc.Codec().Unmarshal(data)
	if err != nil {
		return err
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("document must be a JSON object")
	}
	id, err := ops.Create(cmd.Context(), doc)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

func runGet(cmd *cobra.Command, desc *table.Descriptor, ops *crud.Operations) error {
	doc, err := ops.Read(cmd.Context(), map[string]any{crud.ArgID: storeID})
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("%s %s not found", desc.Name(), storeID)
	}
	return printJSON(cmd, doc)
}

func runList(cmd *cobra.Command, _ *table.Descriptor, ops *crud.Operations) error {
	opts := crud.PageOptions{NumItems: listLimit, Cursor: listCursor}
	page, err := ops.Paginate(cmd.Context(), map[string]any{crud.ArgPaginationOpts: opts})
	if err != nil {
		return err
	}
	return printJSON(cmd, page)
}

func runDelete(cmd *cobra.Command, _ *table.Descriptor, ops *crud.Operations) error {
	prev, err := ops.Destroy(cmd.Context(), map[string]any{crud.ArgID: storeID})
	if err != nil {
		return err
	}
	return printJSON(cmd, prev)
}

func printJSON(cmd *cobra.Command, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	return nil
}
