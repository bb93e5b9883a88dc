package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/RealZimboGuy/flowlint/internal/flow"
	"github.com/RealZimboGuy/flowlint/internal/repository"
	"github.com/RealZimboGuy/flowlint/internal/util"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/core"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/domain"
)

func newImportCmd() *cobra.Command {
	var id, unikID, name string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Store a flow document as a canvas",
		Long:  `Stores the flow as a canvas, replacing any canvas with the same id. The id is generated when not given.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read flow: %w", err)
			}
			if _, err := flow.Parse(raw); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if id == "" {
				id = uuid.NewString()
			} else if err := util.ValidateUUID(id); err != nil {
				return fmt.Errorf("--id must be a UUID: %w", err)
			}
			if unikID != "" {
				if err := util.ValidateUUID(unikID); err != nil {
					return fmt.Errorf("--unik must be a UUID: %w", err)
				}
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			db, err := flowlint.OpenDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			canvas := &domain.Canvas{
				ID:       id,
				UnikID:   sql.NullString{String: unikID, Valid: unikID != ""},
				Name:     name,
				FlowData: sql.NullString{String: string(raw), Valid: true},
			}
			if err := repository.NewCanvasRepository(db, core.NewRealClock()).Save(cmd.Context(), canvas); err != nil {
				return fmt.Errorf("save canvas: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "canvas id (UUID)")
	cmd.Flags().StringVar(&unikID, "unik", "", "unik (tenant) id")
	cmd.Flags().StringVar(&name, "name", "", "canvas name (default file name)")
	return cmd
}
