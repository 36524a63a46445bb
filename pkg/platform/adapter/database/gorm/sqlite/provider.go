// Package sqlite provides the GORM DBProvider for SQLite, used for local runs and tests.
package sqlite

import (
	"errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/climanegocios/platform/pkg/platform/adapter/database"
	dbconfig "github.com/climanegocios/platform/pkg/platform/adapter/database/config"
	gormadapter "github.com/climanegocios/platform/pkg/platform/adapter/database/gorm"
	"github.com/climanegocios/platform/pkg/platform/core/config"
)

// ProviderType is the `type` value selecting this provider.
const ProviderType = "sqlite"

func init() {
	gormadapter.RegisterDialector(ProviderType, func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		if cfg.Database == "" {
			return nil, errors.New("SQLite database path cannot be empty")
		}
		return sqlite.Open(cfg.Database), nil
	})
}

// NewProvider creates the SQLite DBProvider.
func NewProvider(cfg *config.Config) database.DBProvider {
	return gormadapter.NewProvider(cfg, ProviderType)
}
