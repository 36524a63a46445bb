//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/climanegocios/platform/pkg/platform/core/config"
)

// DefaultRedisImage matches the redis service of the compose topology.
const DefaultRedisImage = "redis:7-alpine"

// RedisContainer is a running Redis server.
type RedisContainer struct {
	testcontainers.Container
	Host string
	Port int
}

// NewRedisContainer starts Redis and waits until it accepts connections.
func NewRedisContainer(ctx context.Context) (*RedisContainer, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        DefaultRedisImage,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForLog("Ready to accept connections"),
				wait.ForListeningPort("6379/tcp"),
			).WithDeadline(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start redis container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}
	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("invalid mapped port %q: %w", mapped.Port(), err)
	}
	return &RedisContainer{Container: container, Host: host, Port: port}, nil
}

// RedisConfig returns client settings for the container.
func (c *RedisContainer) RedisConfig() config.RedisConfig {
	return config.RedisConfig{Host: c.Host, Port: c.Port}
}
