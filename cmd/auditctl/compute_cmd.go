package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Simplici0/auditdays/internal/mandays"
	"github.com/Simplici0/auditdays/internal/store"
)

func newComputeCmd(opts *rootOptions) *cobra.Command {
	var (
		inputPath   string
		useDefaults bool
	)

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute man-days for a JSON input document and print the result",
		Long: `Reads a calculation input such as

  {"standard": "FSMS", "category": "C", "employees": 120, "riskLevel": "high"}

from --input (stdin by default) and prints the result as JSON. Omitted fields take the
same defaults as the web form.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openInput(cmd, inputPath)
			if err != nil {
				return err
			}
			defer r.Close()

			input := mandays.NewInput()
			dec := json.NewDecoder(r)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&input); err != nil {
				return fmt.Errorf("decode input: %w", err)
			}
			input.Normalize()

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

			if problems := mandays.ValidateInput(input, cfg); len(problems) > 0 {
				return fmt.Errorf("invalid input:\n  %s", strings.Join(problems, "\n  "))
			}
			result, err := mandays.Compute(input, cfg)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "input JSON file, - for stdin")
	cmd.Flags().BoolVar(&useDefaults, "defaults", false, "use the built-in tables instead of the stored configuration")
	return cmd
}
