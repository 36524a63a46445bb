package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/climanegocios/platform/internal/admin"
	"github.com/climanegocios/platform/internal/app"
	"github.com/climanegocios/platform/internal/repository"
)

func newAdminCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	opts := admin.DefaultCreateAdminOptions()
	create := &cobra.Command{
		Use:   "create",
		Short: "Create the first administrator unless one already exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			var users repository.UserRepository
			return app.RunTool(cmd.Context(), root.envFile, func(ctx context.Context) error {
				res, err := admin.CreateAdmin(ctx, users, opts)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !res.Created {
					fmt.Fprintf(out, "An administrator already exists: %s (%s)\n", res.User.Username, res.User.Email)
					return nil
				}
				fmt.Fprintf(out, "Administrator created.\n  email:    %s\n  username: %s\n  api key:  %s\n", res.User.Email, res.User.Username, res.APIKey)
				if res.GeneratedPassword != "" {
					fmt.Fprintf(out, "  password: %s\nChange this password after the first login.\n", res.GeneratedPassword)
				}
				return nil
			}, &users)
		},
	}
	create.Flags().StringVar(&opts.Email, "email", opts.Email, "administrator email")
	create.Flags().StringVar(&opts.Username, "username", opts.Username, "administrator username")
	create.Flags().StringVar(&opts.FullName, "full-name", opts.FullName, "administrator full name")
	create.Flags().StringVar(&opts.Password, "password", "", "password (generated when empty)")

	cmd.AddCommand(create)
	return cmd
}
