package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/climanegocios/platform/internal/app"
	"github.com/climanegocios/platform/internal/bootstrap"
	"github.com/climanegocios/platform/internal/resources"
	"github.com/climanegocios/platform/pkg/platform/adapter/database"
	"github.com/climanegocios/platform/pkg/platform/component/migration"
	"github.com/climanegocios/platform/pkg/platform/core/metrics"
	"github.com/climanegocios/platform/pkg/platform/core/retry"
)

func newBootstrapCmd(root *rootOptions) *cobra.Command {
	var (
		attempts int
		delay    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Wait for the database and create extensions, schemas, types, tables and indexes",
		Long: "Every step checks for its object first, so running bootstrap against an " +
			"initialized database changes nothing and succeeds.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				conn     database.DBConnection
				migrator migration.Migrator
				recorder metrics.MetricRecorder
			)
			return app.RunTool(cmd.Context(), root.envFile, func(ctx context.Context) error {
				sqlDB, err := conn.GetSQLDB()
				if err != nil {
					return err
				}
				b := bootstrap.New(sqlDB, migrator, resources.MigrationsFS(), resources.MigrationsPath,
					bootstrap.WithRecorder(recorder),
					bootstrap.WithWaitPolicy(retry.NewFixedRetryPolicy(attempts, delay)),
				)
				report, runErr := b.Run(ctx)
				if len(report.Results) > 0 {
					if err := report.Print(cmd.OutOrStdout()); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
				}
				return runErr
			}, &conn, &migrator, &recorder)
		},
	}
	cmd.Flags().IntVar(&attempts, "wait-attempts", bootstrap.DefaultWaitAttempts, "database connection attempts")
	cmd.Flags().DurationVar(&delay, "wait-delay", bootstrap.DefaultWaitDelay, "delay between connection attempts")
	return cmd
}
