package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Simplici0/auditdays/internal/mandays"
	"github.com/Simplici0/auditdays/internal/seed"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var defaultsPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the admin user and the default configuration when missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seedCfg := seed.Config{
				AdminEmail:    opts.env.AdminEmail,
				AdminPassword: opts.env.AdminPassword,
			}
			if defaultsPath != "" {
				defaults, err := readTOMLConfig(cmd, defaultsPath)
				if err != nil {
					return err
				}
				seedCfg.Defaults = &defaults
			}

			database, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close()

			stats, err := seed.Run(cmd.Context(), database, seedCfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seed completed: %d inserts\n", stats.Inserts)
			return nil
		},
	}

	cmd.Flags().StringVar(&defaultsPath, "defaults", "", "TOML file with the initial configuration (built-in tables when empty)")
	return cmd
}

func readTOMLConfig(cmd *cobra.Command, path string) (mandays.Configuration, error) {
	f, err := openInput(cmd, path)
	if err != nil {
		return mandays.Configuration{}, err
	}
	defer f.Close()

	doc, err := io.ReadAll(f)
	if err != nil {
		return mandays.Configuration{}, fmt.Errorf("read %s: %w", path, err)
	}
	return mandays.ParseTOML(string(doc))
}
