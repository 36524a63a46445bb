// Package postgres provides the GORM DBProvider for PostgreSQL/PostGIS.
package postgres

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/climanegocios/platform/pkg/platform/adapter/database"
	dbconfig "github.com/climanegocios/platform/pkg/platform/adapter/database/config"
	gormadapter "github.com/climanegocios/platform/pkg/platform/adapter/database/gorm"
	"github.com/climanegocios/platform/pkg/platform/core/config"
)

// ProviderType is the `type` value selecting this provider.
const ProviderType = "postgres"

func init() {
	gormadapter.RegisterDialector(ProviderType, func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		if cfg.Host == "" || cfg.Database == "" {
			return nil, fmt.Errorf("postgres connection requires host and database")
		}
		return postgres.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString renders the keyword/value DSN understood by pgx.
// Values are single-quoted so passwords may contain spaces.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	sslmode := c.Sslmode
	if sslmode == "" {
		sslmode = "disable"
	}
	port := c.Port
	if port == 0 {
		port = 5432
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		quote(c.Host), port, quote(c.User), quote(c.Password), quote(c.Database), sslmode)
	if c.Schema != "" {
		dsn += " search_path=" + quote(c.Schema)
	}
	return dsn
}

func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// NewProvider creates the PostgreSQL DBProvider.
func NewProvider(cfg *config.Config) database.DBProvider {
	return gormadapter.NewProvider(cfg, ProviderType)
}
