package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Simplici0/auditdays/internal/config"
	"github.com/Simplici0/auditdays/internal/db"
)

type rootOptions struct {
	dbPath string
	env    config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{env: config.Load()}

	cmd := &cobra.Command{
		Use:           "auditctl",
		Short:         "Audit man-day maintenance and calculation tools",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", opts.env.DBPath, "SQLite database path (DB_PATH)")

	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newSeedCmd(opts))
	cmd.AddCommand(newComputeCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	return cmd
}

func (o *rootOptions) openDB(ctx context.Context) (*sql.DB, error) {
	return db.Open(ctx, o.dbPath)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// openInput returns stdin for "-" and the named file otherwise.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(path)
}
