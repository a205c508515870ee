package main

import (
	"context"
	"os"

	"github.com/fnhub/ingest/common/bootstrap"
	"github.com/fnhub/ingest/common/logger"
	"github.com/spf13/cobra"
)

const serviceName = "ingestctl"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ingestctl",
		Short: "Operator tool for the ingest service",
		Long: "-------------------------------------------------------------------\n" +
			"                           ingestctl\n" +
			"-------------------------------------------------------------------\n" +
			"Mint tokens, manage applications and inspect deploy requests.",
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().String("log-level", "warn", "log level for connection diagnostics")

	root.AddCommand(newTokenCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newAppCmd())
	root.AddCommand(newRequestsCmd())
	root.AddCommand(newWatchCmd())
	return root
}

// setupDB bootstraps a database-only component set. Migrations are left
// to the migrate command.
func setupDB(cmd *cobra.Command) (*bootstrap.Components, error) {
	return bootstrap.Setup(cmd.Context(), serviceName,
		bootstrap.WithCustomLogger(cliLogger(cmd)),
		bootstrap.WithoutRedis(),
		bootstrap.WithoutQueue(),
		bootstrap.WithoutCache(),
		bootstrap.WithoutTelemetry(),
		bootstrap.WithoutMigrations(),
	)
}

func cliLogger(cmd *cobra.Command) *logger.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logger.NewWithWriter(cmd.ErrOrStderr(), level, "text")
}

func shutdown(c *bootstrap.Components) {
	_ = c.Shutdown(context.Background())
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
