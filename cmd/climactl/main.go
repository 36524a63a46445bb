// Command climactl is the operator tool: it starts the local stack, bootstraps
// the database, renders deployment files and runs one-off maintenance tasks.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/climanegocios/platform/internal/launcher"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

type rootOptions struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "climactl",
		Short:         "Operate the Clima & Negócios platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", defaultEnvFile(), "environment file")

	root.AddCommand(
		newUpCmd(opts),
		newBootstrapCmd(opts),
		newRenderCmd(),
		newAdminCmd(opts),
		newSeedCmd(opts),
		newStationsCmd(opts),
		newModelsCmd(opts),
		newMigrateCmd(opts),
	)
	return root
}

func defaultEnvFile() string {
	if p := os.Getenv("ENV_FILE_PATH"); p != "" {
		return p
	}
	return ".env"
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	logger.Errorf("%v", err)
	// A failed compose run keeps its own exit code.
	os.Exit(launcher.ExitCode(err))
}
