// Command climanegocios runs the Clima & Negócios API and its container health probe.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/climanegocios/platform/internal/app"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

// envFilePath follows ENV_FILE_PATH and defaults to .env.
func envFilePath() string {
	if p := os.Getenv("ENV_FILE_PATH"); p != "" {
		return p
	}
	return ".env"
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "climanegocios",
		Short:         "Clima & Negócios API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newHealthcheckCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API until SIGINT or SIGTERM",
		RunE: func(cmd *cobra.Command, args []string) error {
			if workers > 0 {
				// The config layer reads API_WORKERS, so the flag wins over .env.
				if err := os.Setenv("API_WORKERS", strconv.Itoa(workers)); err != nil {
					return err
				}
			}
			a := app.NewAPI(envFilePath())
			a.Run()
			return a.Err()
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "number of OS threads executing Go code (default API_WORKERS)")
	return cmd
}

func defaultHealthURL() string {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8000"
	}
	return "http://127.0.0.1:" + port + "/health"
}

func newHealthcheckCmd() *cobra.Command {
	var (
		url     string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Exit 0 when the health endpoint answers 2xx, 1 otherwise",
		RunE: func(cmd *cobra.Command, args []string) error {
			return probe(cmd.Context(), url, timeout)
		},
	}
	cmd.Flags().StringVar(&url, "url", defaultHealthURL(), "health endpoint to probe")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "probe timeout")
	return cmd
}

func probe(ctx context.Context, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health probe %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("health probe %s: status %d", url, resp.StatusCode)
	}
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
