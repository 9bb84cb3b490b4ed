package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Simplici0/auditdays/internal/mandays"
	"github.com/Simplici0/auditdays/internal/store"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate calculation configurations",
	}
	cmd.AddCommand(newConfigValidateCmd())
	cmd.AddCommand(newConfigExportCmd(opts))
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a JSON or TOML configuration document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := openInput(cmd, path)
			if err != nil {
				return err
			}
			defer f.Close()

			doc, err := io.ReadAll(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			var cfg mandays.Configuration
			if strings.EqualFold(filepath.Ext(path), ".toml") {
				cfg, err = mandays.ParseTOML(string(doc))
			} else {
				cfg, err = mandays.ParseJSON(doc)
			}

			var cfgErr *mandays.ConfigError
			if errors.As(err, &cfgErr) {
				out := cmd.OutOrStdout()
				for _, p := range cfgErr.Problems {
					fmt.Fprintf(out, "- %s\n", p)
				}
				return fmt.Errorf("%s: %d problems", path, len(cfgErr.Problems))
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d standards, %d employee bands\n",
				path, len(cfg.BaseManDays), len(cfg.EmployeeRanges))
			return nil
		},
	}
}

func newConfigExportCmd(opts *rootOptions) *cobra.Command {
	var useDefaults bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the stored configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := mandays.DefaultConfiguration()
			if !useDefaults {
				database, err := opts.openDB(cmd.Context())
				if err != nil {
					return err
				}
				defer database.Close()

				if cfg, err = store.NewConfigStore(database).Load(cmd.Context()); err != nil {
					return err
				}
			}
			return mandays.WriteTOML(cmd.OutOrStdout(), cfg)
		},
	}

	cmd.Flags().BoolVar(&useDefaults, "defaults", false, "print the built-in tables")
	return cmd
}
