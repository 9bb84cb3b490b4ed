package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/auditdays/internal/migrations"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close()

			applied, err := migrations.Up(cmd.Context(), database)
			if err != nil {
				return err
			}
			version, err := migrations.Version(cmd.Context(), database)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migrations, schema version %d\n", applied, version)
			return nil
		},
	}
}
