package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/reoring/skemabridge/config"
	"github.com/reoring/skemabridge/i18n"
	"github.com/reoring/skemabridge/internal/logging"
	"github.com/reoring/skemabridge/openapi"
	"github.com/reoring/skemabridge/schema"
	"github.com/reoring/skemabridge/table"
)

var (
	// Global flags
	cfgFile    string
	tableFiles []string
	lang       string
)

var rootCmd = &cobra.Command{
	Use:   "skemabridge",
	Short: "Translate document schemas into storage validators and codecs",
	Long: `skemabridge reads table definitions written in YAML and shows how they
map onto the storage backend: validator trees, JSON Schema / OpenAPI
exports, document checks and CRUD against a reference store.

Examples:
  skemabridge validators -f tables.yaml
  skemabridge export --format openapi -f tables.yaml
  skemabridge check --table profiles -f tables.yaml doc.json
  skemabridge validators -f openapi.json
  skemabridge insert --table profiles -c skemabridge.yaml doc.json`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringSliceVarP(&tableFiles, "tables", "f", nil, "table definition files, YAML or OpenAPI .json (overrides config)")
	rootCmd.PersistentFlags().StringVar(&lang, "lang", "en", "language of issue messages (en, ja)")
}

// env is what every subcommand needs: configuration, a logger and the
// defined tables in file order.
type env struct {
	cfg    *config.Config
	logger zerolog.Logger
	tables []*table.Descriptor
}

func loadEnv() (*env, error) {
	i18n.SetLanguage(lang)

	cfg := config.Default()
	if cfgFile != "" {
		var err error
		if cfg, err = config.Load(cfgFile); err != nil {
			return nil, err
		}
	}
	if len(tableFiles) > 0 {
		cfg.Tables = tableFiles
	}
	if len(cfg.Tables) == 0 {
		return nil, fmt.Errorf("no table definitions: pass -f or set tables in the config")
	}

	e := &env{cfg: cfg, logger: logging.New(cfg.Log)}
	for _, path := range cfg.Tables {
		defs, err := e.loadTables(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for _, def := range defs {
			desc, err := table.Define(def.Name, def.Schema)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			e.tables = append(e.tables, desc)
		}
		e.logger.Debug().Str("file", path).Int("tables", len(defs)).Msg("table definitions loaded")
	}
	return e, nil
}

// loadTables reads YAML table files; .json files are OpenAPI documents whose
// component schemas become tables.
func (e *env) loadTables(path string) ([]schema.TableDef, error) {
	if strings.ToLower(filepath.Ext(path)) != ".json" {
		return schema.LoadTablesFile(path)
	}
	defs, diag, err := openapi.ImportFile(path)
	if err != nil {
		return nil, err
	}
	for _, w := range diag.Warnings {
		e.logger.Warn().Str("file", path).Msg(w)
	}
	return defs, nil
}

func (e *env) table(name string) (*table.Descriptor, error) {
	for _, d := range e.tables {
		if d.Name() == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("unknown table %q", name)
}
