package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/RealZimboGuy/flowlint/internal/repository"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/core"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/domain"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
	}
	cmd.AddCommand(newUserAddCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var username, password, apiKey string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user and print its API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return errors.New("--username and --password are required")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			if apiKey == "" {
				apiKey = uuid.NewString()
			}

			db, err := flowlint.OpenDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			users := repository.NewUserRepository(db, core.NewRealClock())
			existing, err := users.FindByUsername(cmd.Context(), username)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("user %s already exists", username)
			}

			u := &domain.User{
				Username: username,
				Password: string(hash),
				ApiKey:   sql.NullString{String: apiKey, Valid: true},
			}
			if _, err := users.Save(cmd.Context(), u); err != nil {
				return fmt.Errorf("save user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d)\napi key: %s\n", u.Username, u.ID, apiKey)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&password, "password", "", "password for basic auth")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (generated when empty)")
	return cmd
}
