package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/fundnetwork/memberportal/internal/config"
	"github.com/fundnetwork/memberportal/internal/store"
)

var (
	dbPathOverride string
	jsonOutput     bool
)

// addDataFlags registers the flags shared by the offline subcommands.
func addDataFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&dbPathOverride, "db", "",
		"SQLite database path (overrides config and MEMBERPORTAL_DB_*)")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output in JSON format")
}

// openStore opens the configured database. A --db override always selects
// SQLite at that path. No API keys are needed.
func openStore(ctx context.Context) (*store.SQLStore, error) {
	cfg, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dbPathOverride != "" {
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.Path = dbPathOverride
	}

	return store.Open(ctx, store.Options{
		Driver:      cfg.Database.Driver,
		Path:        cfg.Database.Path,
		URL:         cfg.Database.URL,
		CohortLimit: cfg.Analytics.CohortLimit,
	})
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable returns a table writer that renders to w.
func newTable(w io.Writer, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row(header))
	return t
}
