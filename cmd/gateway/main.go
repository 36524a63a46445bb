// Command gateway runs the production reverse proxy in front of the API replicas.
package main

import (
	"os"

	"github.com/climanegocios/platform/internal/app"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

func main() {
	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	a := app.NewGateway(envFilePath)
	a.Run()
	if err := a.Err(); err != nil {
		logger.Fatalf("Gateway run failed: %v", err)
	}
}
