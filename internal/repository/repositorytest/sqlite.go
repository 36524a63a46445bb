// Package repositorytest provides an SQLite database shaped like the Postgres
// schema, for tests of code built on the repositories.
package repositorytest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	dbconfig "github.com/climanegocios/platform/pkg/platform/adapter/database/config"
	gormadapter "github.com/climanegocios/platform/pkg/platform/adapter/database/gorm"
	_ "github.com/climanegocios/platform/pkg/platform/adapter/database/gorm/sqlite"
)

var schema = []string{
	// One pooled connection keeps the attached schema visible to every query.
	`ATTACH DATABASE ':memory:' AS weather`,
	`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL UNIQUE,
		full_name TEXT,
		hashed_password TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		is_verified BOOLEAN NOT NULL DEFAULT 0,
		role TEXT NOT NULL DEFAULT 'user',
		company_name TEXT,
		company_sector TEXT,
		company_size TEXT,
		preferences TEXT NOT NULL DEFAULT '{}',
		notification_settings TEXT NOT NULL DEFAULT '{}',
		last_login DATETIME,
		failed_login_attempts INTEGER NOT NULL DEFAULT 0,
		api_key TEXT UNIQUE,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE weather.stations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'Automática',
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
}

// NewSQLiteDB opens a fresh file-backed database with the users and
// weather.stations tables. It is closed when the test ends.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := dbconfig.DatabaseConfig{
		Type:     "sqlite",
		Database: filepath.Join(t.TempDir(), "platform.db"),
		Pool:     dbconfig.PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1},
	}
	db, err := gormadapter.Open(cfg, "SILENT")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}
