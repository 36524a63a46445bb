//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	dbconfig "github.com/climanegocios/platform/pkg/platform/adapter/database/config"
)

const (
	// DefaultPostgresImage matches the db service of the compose topology.
	DefaultPostgresImage = "postgis/postgis:15-3.4-alpine"

	postgresUser     = "climanegocios"
	postgresPassword = "climanegocios"
	postgresDB       = "climanegocios_test"
)

// PostgresContainer is a running PostGIS server.
type PostgresContainer struct {
	testcontainers.Container
	Host string
	Port int
}

// NewPostgresContainer starts a PostGIS container and waits until it accepts connections.
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        DefaultPostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDB,
		},
		// The server restarts once after running the init scripts.
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(2 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}
	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("invalid mapped port %q: %w", mapped.Port(), err)
	}

	return &PostgresContainer{Container: container, Host: host, Port: port}, nil
}

// DatabaseConfig returns connection settings for the container.
func (c *PostgresContainer) DatabaseConfig() dbconfig.DatabaseConfig {
	return dbconfig.DatabaseConfig{
		Type:     "postgres",
		Host:     c.Host,
		Port:     c.Port,
		Database: postgresDB,
		User:     postgresUser,
		Password: postgresPassword,
		Sslmode:  "disable",
	}
}
