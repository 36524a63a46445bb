// Package resources bundles the files every binary ships with: the default
// application.yaml and the Postgres schema migrations.
package resources

import (
	"embed"
	"io/fs"

	"go.uber.org/fx"

	"github.com/climanegocios/platform/pkg/platform/core/config"
)

// MigrationsPath is the directory of the Postgres migrations inside MigrationsFS.
const MigrationsPath = "migrations/postgres"

// MigrationsFSTag is the Fx tag of the embedded migrations filesystem.
const MigrationsFSTag = `name:"migrationsFS"`

//go:embed application.yaml
var applicationYAML []byte

//go:embed migrations/postgres/*.sql
var migrationsFS embed.FS

// ApplicationConfig returns the embedded application.yaml.
func ApplicationConfig() config.EmbeddedConfig {
	return config.EmbeddedConfig(applicationYAML)
}

// MigrationsFS returns the embedded migrations; paths start with MigrationsPath.
func MigrationsFS() fs.FS {
	return migrationsFS
}

// Module provides the embedded config and the tagged migrations filesystem.
var Module = fx.Options(
	fx.Provide(ApplicationConfig),
	fx.Provide(fx.Annotate(
		MigrationsFS,
		fx.ResultTags(MigrationsFSTag),
	)),
)
