// Package database defines the database connection abstractions used by the platform.
package database

import (
	"context"
	"database/sql"

	dbconfig "github.com/climanegocios/platform/pkg/platform/adapter/database/config"
)

// DBConnection represents an open, named database connection.
type DBConnection interface {
	// Type returns the database type (e.g. "postgres").
	Type() string
	// Name returns the configured connection name.
	Name() string
	// Close releases the underlying pool.
	Close() error
	// Ping verifies the connection is usable.
	Ping(ctx context.Context) error
	// IsTableNotExistError checks if the given error indicates that a table does not exist.
	IsTableNotExistError(err error) bool
	// Config returns the database configuration associated with this connection.
	Config() dbconfig.DatabaseConfig
	// GetSQLDB returns the underlying *sql.DB connection.
	GetSQLDB() (*sql.DB, error)
}

// DBProvider opens and caches connections of one database type.
type DBProvider interface {
	// GetConnection retrieves a database connection with the specified name.
	GetConnection(name string) (DBConnection, error)
	// CloseAll closes all connections managed by this provider.
	CloseAll() error
	// Type returns the database type handled by this provider.
	Type() string
}

// DBProviderGroup is the Fx value group collecting DBProvider implementations.
const DBProviderGroup = "db_providers"
