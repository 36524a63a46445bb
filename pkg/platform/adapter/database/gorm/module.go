package gorm

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/climanegocios/platform/pkg/platform/adapter/database"
	"github.com/climanegocios/platform/pkg/platform/core/config"
)

// ConnectionParams collects every registered DBProvider.
type ConnectionParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Config    *config.Config
	Providers []database.DBProvider `group:"db_providers"`
}

// NewDefaultConnection opens the `default` connection with the provider matching
// its type and closes every provider when the application stops.
func NewDefaultConnection(p ConnectionParams) (database.DBConnection, error) {
	raw, ok := p.Config.Database[config.DefaultDatabaseName]
	if !ok {
		return nil, fmt.Errorf("database configuration '%s' not found", config.DefaultDatabaseName)
	}
	dbConfig, err := DecodeDatabaseConfig(raw)
	if err != nil {
		return nil, err
	}

	var provider database.DBProvider
	for _, candidate := range p.Providers {
		if candidate.Type() == dbConfig.Type {
			provider = candidate
			break
		}
	}
	if provider == nil {
		return nil, fmt.Errorf("no database provider registered for type '%s'", dbConfig.Type)
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			var result *multierror.Error
			for _, prov := range p.Providers {
				result = multierror.Append(result, prov.CloseAll())
			}
			return result.ErrorOrNil()
		},
	})
	return provider.GetConnection(config.DefaultDatabaseName)
}

// NewDefaultGormDB exposes the *gorm.DB of the default connection to repositories.
func NewDefaultGormDB(conn database.DBConnection) (*gorm.DB, error) {
	return GormDBFrom(conn)
}

// Dialect adds a DBProvider constructor to the provider group.
func Dialect(constructor interface{}) fx.Option {
	return fx.Provide(fx.Annotate(constructor, fx.ResultTags(`group:"`+database.DBProviderGroup+`"`)))
}

// Module provides the default DBConnection and its *gorm.DB. Providers come
// from a Dialect option such as postgres.Module.
var Module = fx.Options(
	fx.Provide(NewDefaultConnection),
	fx.Provide(NewDefaultGormDB),
)
