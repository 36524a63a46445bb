package migration

import "go.uber.org/fx"

// Module provides a Migrator bound to the default database connection.
var Module = fx.Options(
	fx.Provide(NewMigrator),
)
