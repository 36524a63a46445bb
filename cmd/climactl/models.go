package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/climanegocios/platform/internal/app"
	"github.com/climanegocios/platform/pkg/platform/adapter/storage"
)

func newModelsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect the model artifact store",
	}

	var prefix string
	list := &cobra.Command{
		Use:   "list",
		Short: "List model artifacts in the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			var store storage.StorageConnection
			return app.RunTool(cmd.Context(), root.envFile, func(ctx context.Context) error {
				count := 0
				err := store.ListObjects(ctx, prefix, func(name string) error {
					count++
					_, err := fmt.Fprintln(cmd.OutOrStdout(), name)
					return err
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%d artifacts in %s store.\n", count, store.Type())
				return nil
			}, &store)
		},
	}
	list.Flags().StringVar(&prefix, "prefix", "", "only list artifacts starting with prefix")

	cmd.AddCommand(list)
	return cmd
}
