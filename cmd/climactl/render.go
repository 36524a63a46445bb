package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/climanegocios/platform/internal/topology"
)

// Render targets.
const (
	renderDev        = "dev"
	renderProd       = "prod"
	renderDockerfile = "dockerfile"
)

func render(target string, w io.Writer) error {
	switch target {
	case renderDev:
		return renderTopology(topology.Development(), w)
	case renderProd:
		return renderTopology(topology.Production(), w)
	case renderDockerfile:
		return topology.DefaultImage().RenderDockerfile(w)
	default:
		return fmt.Errorf("unknown render target %q (want %s, %s or %s)", target, renderDev, renderProd, renderDockerfile)
	}
}

// renderTopology writes nothing unless the topology validates.
func renderTopology(topo *topology.Topology, w io.Writer) error {
	if err := topo.Validate(); err != nil {
		return fmt.Errorf("invalid topology: %w", err)
	}
	return topo.Render(w)
}

func newRenderCmd() *cobra.Command {
	var (
		target string
		output string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the compose file of an environment or the Dockerfile",
		RunE: func(cmd *cobra.Command, args []string) error {
			var buf bytes.Buffer
			if err := render(target, &buf); err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err := buf.WriteTo(cmd.OutOrStdout())
				return err
			}
			return os.WriteFile(output, buf.Bytes(), 0o644)
		},
	}
	cmd.Flags().StringVar(&target, "env", renderDev, "what to render: dev, prod or dockerfile")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
