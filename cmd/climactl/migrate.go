package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/climanegocios/platform/internal/app"
	"github.com/climanegocios/platform/internal/resources"
	"github.com/climanegocios/platform/pkg/platform/component/migration"
)

var errDownNotConfirmed = errors.New("refusing to roll back every migration without --yes")

func newMigrateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Inspect or roll back the versioned table migrations",
	}

	withMigrator := func(cmd *cobra.Command, fn func(ctx context.Context, m migration.Migrator) error) error {
		var m migration.Migrator
		return app.RunTool(cmd.Context(), root.envFile, func(ctx context.Context) error {
			return fn(ctx, m)
		}, &m)
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Print the applied and the latest migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m migration.Migrator) error {
				return printMigrationStatus(ctx, m, cmd.OutOrStdout())
			})
		},
	}

	var confirmed bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back every applied migration (drops the tables)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errDownNotConfirmed
			}
			return withMigrator(cmd, func(ctx context.Context, m migration.Migrator) error {
				return rollBack(ctx, m, cmd.OutOrStdout())
			})
		},
	}
	down.Flags().BoolVar(&confirmed, "yes", false, "confirm the rollback")

	cmd.AddCommand(status, down)
	return cmd
}

func printMigrationStatus(ctx context.Context, m migration.Migrator, w io.Writer) error {
	st, err := m.Status(ctx, resources.MigrationsFS(), resources.MigrationsPath, migration.DefaultMigrationsTable)
	if err != nil {
		return err
	}
	state := "pending"
	switch {
	case st.Dirty:
		state = "dirty"
	case st.UpToDate():
		state = "up to date"
	}
	_, err = fmt.Fprintf(w, "current: %d\nlatest: %d\nstate: %s\n", st.Current, st.Latest, state)
	return err
}

func rollBack(ctx context.Context, m migration.Migrator, w io.Writer) error {
	if err := m.Down(ctx, resources.MigrationsFS(), resources.MigrationsPath, migration.DefaultMigrationsTable); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "All migrations rolled back. Run `climactl bootstrap` to recreate the tables.")
	return err
}
