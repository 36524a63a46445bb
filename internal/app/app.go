// Package app assembles the Fx applications behind the binaries: the API
// server, the gateway and the short-lived operator tools.
package app

import (
	"context"
	"time"

	"go.uber.org/fx"

	"github.com/climanegocios/platform/internal/api"
	"github.com/climanegocios/platform/internal/gateway"
	"github.com/climanegocios/platform/internal/repository"
	"github.com/climanegocios/platform/internal/resources"
	"github.com/climanegocios/platform/pkg/platform/adapter/cache/redis"
	gormadapter "github.com/climanegocios/platform/pkg/platform/adapter/database/gorm"
	"github.com/climanegocios/platform/pkg/platform/adapter/database/gorm/postgres"
	"github.com/climanegocios/platform/pkg/platform/adapter/storage/provider"
	"github.com/climanegocios/platform/pkg/platform/component/migration"
	"github.com/climanegocios/platform/pkg/platform/core/config"
	"github.com/climanegocios/platform/pkg/platform/core/metrics"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

// ToolTimeout bounds start and stop of a tool application.
const ToolTimeout = 30 * time.Second

// base is shared by every application: embedded resources, configuration,
// logging and metrics.
func base(envFilePath string) fx.Option {
	return fx.Options(
		fx.Supply(fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`))),
		resources.Module,
		logger.Module,
		config.Module,
		metrics.Module,
	)
}

// persistence opens the default Postgres connection and the repositories on it.
var persistence = fx.Options(
	postgres.Module,
	gormadapter.Module,
	fx.Provide(repository.NewUserRepository),
)

func apiOptions(envFilePath string) fx.Option {
	return fx.Options(
		base(envFilePath),
		persistence,
		redis.Module,
		provider.Module,
		api.Module,
	)
}

func gatewayOptions(envFilePath string) fx.Option {
	return fx.Options(
		base(envFilePath),
		gateway.Module,
	)
}

func toolOptions(envFilePath string, targets ...interface{}) fx.Option {
	return fx.Options(
		base(envFilePath),
		persistence,
		fx.Provide(repository.NewStationRepository),
		migration.Module,
		provider.Module,
		redis.Module,
		fx.Populate(targets...),
	)
}

// NewAPI builds the API server application.
func NewAPI(envFilePath string) *fx.App {
	return fx.New(apiOptions(envFilePath))
}

// NewGateway builds the reverse proxy application.
func NewGateway(envFilePath string) *fx.App {
	return fx.New(gatewayOptions(envFilePath))
}

// RunTool starts a short-lived application providing the database, the
// repositories, the migrator, the cache and the model store, fills targets with
// fx.Populate, calls fn and stops the application. Only what targets need is
// constructed, so a tool asking for the model store never opens the database.
func RunTool(ctx context.Context, envFilePath string, fn func(ctx context.Context) error, targets ...interface{}) error {
	app := fx.New(toolOptions(envFilePath, targets...))
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, ToolTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	runErr := fn(ctx)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), ToolTimeout)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		logger.Warnf("Tool shutdown: %v", err)
	}
	return runErr
}
