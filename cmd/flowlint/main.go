package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/RealZimboGuy/flowlint/internal/config"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint"
)

// errIssuesFound makes the process exit with status 1 without logging an error.
var errIssuesFound = errors.New("validation reported issues")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errIssuesFound) {
			slog.Error("flowlint failed", "error", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "flowlint",
		Short:         "Validate visual flow canvases",
		Long:          `Checks canvases for missing inputs, missing credentials, unconnected nodes and dangling edges.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := config.LoadEnvFile(envFile); err != nil {
					return fmt.Errorf("load env file %s: %w", envFile, err)
				}
			} else if err := config.LoadEnvFile(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}
			flowlint.SetupLogger()
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&envFile, "env-file", "", "file with FLOWLINT_* settings (default .env when present)")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("components", "", "component catalog file (yaml or json)")
	mustBind(flags, "log-level", config.LOG_LEVEL)
	mustBind(flags, "components", config.COMPONENTS_FILE)

	root.AddCommand(
		newServeCmd(),
		newValidateCmd(),
		newCheckCmd(),
		newImportCmd(),
		newUserCmd(),
	)
	return root
}

func mustBind(flags *pflag.FlagSet, name string, settingKey string) {
	if err := config.BindFlag(settingKey, flags.Lookup(name)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", name, err))
	}
}
