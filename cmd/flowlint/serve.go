package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RealZimboGuy/flowlint/internal/config"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the validation API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return flowlint.Start(ctx, nil)
		},
	}
	cmd.Flags().String("port", "", "HTTP port (default 8080)")
	cmd.Flags().Bool("auth", true, "require an API key or basic auth")
	cmd.Flags().Bool("watch", true, "reload the component catalog when the file changes")
	mustBind(cmd.Flags(), "port", config.SERVER_WEB_PORT)
	mustBind(cmd.Flags(), "auth", config.AUTH_ENABLED)
	mustBind(cmd.Flags(), "watch", config.COMPONENTS_WATCH)
	return cmd
}
