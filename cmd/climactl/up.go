package main

import (
	"github.com/spf13/cobra"

	"github.com/climanegocios/platform/internal/launcher"
)

// Compose files of each environment.
const (
	devComposeFile  = "docker-compose.yml"
	prodComposeFile = "docker-compose.prod.yml"
)

func newUpCmd(root *rootOptions) *cobra.Command {
	var (
		template string
		prod     bool
		profiles []string
	)
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Create the environment file if missing and start the stack in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := launcher.DefaultOptions()
			opts.EnvFile = root.envFile
			opts.Template = template
			opts.Profiles = profiles
			opts.ComposeFiles = []string{devComposeFile}
			if prod {
				opts.ComposeFiles = []string{prodComposeFile}
			}

			return launcher.New(opts, nil, cmd.OutOrStdout(), cmd.ErrOrStderr()).Up(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&template, "template", launcher.DefaultOptions().Template, "template copied when the environment file is missing")
	cmd.Flags().BoolVar(&prod, "prod", false, "start the production topology")
	cmd.Flags().StringSliceVar(&profiles, "profile", nil, "compose profiles to enable (e.g. tools)")
	return cmd
}
