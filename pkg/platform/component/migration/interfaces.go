// Package migration applies versioned schema migrations with golang-migrate.
package migration

import (
	"context"
	"io/fs"
)

// DefaultMigrationsTable tracks the applied schema version.
const DefaultMigrationsTable = "schema_migrations"

// Status describes the schema version of a database relative to a migration source.
type Status struct {
	Current int  // -1 when nothing was applied yet
	Latest  int  // highest version present in the source
	Dirty   bool // a previous migration failed half way
}

// UpToDate reports whether every migration in the source is applied.
func (s Status) UpToDate() bool {
	return !s.Dirty && s.Current >= s.Latest
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Status compares the applied version with the source.
	Status(ctx context.Context, migrationFS fs.FS, path string, tableName string) (Status, error)
	// Up applies all pending migrations. Reaching the latest version without changes is not an error.
	Up(ctx context.Context, migrationFS fs.FS, path string, tableName string) error
	// Down rolls back all applied migrations.
	Down(ctx context.Context, migrationFS fs.FS, path string, tableName string) error
}
