package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RealZimboGuy/flowlint/internal/validation"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint"
)

func newValidateCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a flow document on disk",
		Long: `Validates an exported flow ({nodes, edges}, or that document as a JSON string)
against the component catalog without touching the database.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read flow: %w", err)
			}
			catalog, err := flowlint.LoadRegistry()
			if err != nil {
				return err
			}

			res, err := validation.NewService(nil, catalog).ValidateFlowData(cmd.Context(), raw)
			if err != nil {
				return fmt.Errorf("%s: %s", args[0], errorMessage(err))
			}
			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			} else {
				printResult(cmd.OutOrStdout(), args[0], res)
			}
			if !res.IsValid {
				return errIssuesFound
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
