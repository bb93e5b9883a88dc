package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RealZimboGuy/flowlint/internal/config"
	"github.com/RealZimboGuy/flowlint/internal/util"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/models"
)

func newCheckCmd() *cobra.Command {
	var (
		unikID string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate every stored canvas of a unik",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := util.ValidateUUID(unikID); err != nil {
				return fmt.Errorf("--unik must be a UUID: %w", err)
			}
			db, err := flowlint.OpenDatabase()
			if err != nil {
				return err
			}
			defer db.Close()
			catalog, err := flowlint.LoadRegistry()
			if err != nil {
				return err
			}

			service := flowlint.NewValidationService(db, catalog)
			reports, err := service.CheckUnik(cmd.Context(), unikID, config.GetSystemSettingInteger(config.CHECK_CONCURRENCY))
			if err != nil {
				return err
			}

			failed := false
			out := make([]models.CanvasValidationReport, 0, len(reports))
			for _, rep := range reports {
				if rep.Err != nil || !rep.Result.IsValid {
					failed = true
				}
				if asJSON {
					out = append(out, rep.Model())
				} else {
					printCanvasReport(cmd.OutOrStdout(), rep)
				}
			}
			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
					return err
				}
			} else if len(reports) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no canvases found for unik %s\n", unikID)
			}
			if failed {
				return errIssuesFound
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&unikID, "unik", "", "unik (tenant) id")
	cmd.Flags().Int("concurrency", 0, "canvases validated in parallel (default 4)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the reports as JSON")
	_ = cmd.MarkFlagRequired("unik")
	mustBind(cmd.Flags(), "concurrency", config.CHECK_CONCURRENCY)
	return cmd
}
