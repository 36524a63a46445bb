package migration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/climanegocios/platform/pkg/platform/adapter/database"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

type migratorImpl struct {
	dbConn database.DBConnection
	dbType string
}

// NewMigrator creates a new Migrator instance.
func NewMigrator(dbConn database.DBConnection) Migrator {
	return &migratorImpl{
		dbConn: dbConn,
		dbType: dbConn.Type(),
	}
}

// getMigrateInstance builds a migrate instance on a dedicated *sql.Conn. Closing the
// instance releases that connection only, never the shared pool.
func (m *migratorImpl) getMigrateInstance(ctx context.Context, migrationFS fs.FS, path string, tableName string) (*migrate.Migrate, error) {
	if m.dbType != "postgres" {
		return nil, fmt.Errorf("unsupported database type for migration: %s", m.dbType)
	}

	sqlDB, err := m.dbConn.GetSQLDB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sourceDriver, err := iofs.New(migrationFS, path)
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs source driver for path %s: %w", path, err)
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		sourceDriver.Close()
		return nil, fmt.Errorf("failed to acquire connection for migration: %w", err)
	}
	dbDriver, err := postgres.WithConnection(ctx, conn, &postgres.Config{
		MigrationsTable: tableName,
	})
	if err != nil {
		conn.Close()
		sourceDriver.Close()
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	mInstance, err := migrate.NewWithInstance("iofs", sourceDriver, m.dbType, dbDriver)
	if err != nil {
		dbDriver.Close()
		sourceDriver.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	mInstance.Log = migrateLogger{}
	return mInstance, nil
}

func (m *migratorImpl) Status(ctx context.Context, migrationFS fs.FS, path string, tableName string) (Status, error) {
	latest, err := LatestVersion(migrationFS, path)
	if err != nil {
		return Status{}, err
	}

	mInstance, err := m.getMigrateInstance(ctx, migrationFS, path, tableName)
	if err != nil {
		return Status{}, err
	}
	defer mInstance.Close()

	version, dirty, err := mInstance.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{Current: -1, Latest: latest}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("failed to read schema version from '%s': %w", tableName, err)
	}
	return Status{Current: int(version), Latest: latest, Dirty: dirty}, nil
}

func (m *migratorImpl) runMigration(ctx context.Context, migrationFS fs.FS, path string, command string, tableName string) error {
	logger.Infof("Executing migration '%s' (Path: %s, Table: %s)", command, path, tableName)

	mInstance, err := m.getMigrateInstance(ctx, migrationFS, path, tableName)
	if err != nil {
		return fmt.Errorf("failed to get migrate instance: %w", err)
	}
	defer mInstance.Close()

	var migrateErr error
	switch command {
	case "up":
		migrateErr = mInstance.Up()
	case "down":
		migrateErr = mInstance.Down()
	default:
		return fmt.Errorf("unsupported migration command: %s", command)
	}

	if errors.Is(migrateErr, migrate.ErrNoChange) {
		logger.Infof("Migration '%s': schema already at the latest version.", command)
		return nil
	}
	if migrateErr != nil {
		if version, dirty, versionErr := mInstance.Version(); versionErr == nil {
			logger.Errorf("Migration '%s' stopped at version %d (dirty: %t).", command, version, dirty)
		}
		return fmt.Errorf("migration failed for command '%s' (DB: %s, Path: %s): %w", command, m.dbType, path, migrateErr)
	}

	logger.Infof("Migration '%s' completed successfully.", command)
	return nil
}

func (m *migratorImpl) Up(ctx context.Context, migrationFS fs.FS, path string, tableName string) error {
	return m.runMigration(ctx, migrationFS, path, "up", tableName)
}

func (m *migratorImpl) Down(ctx context.Context, migrationFS fs.FS, path string, tableName string) error {
	return m.runMigration(ctx, migrationFS, path, "down", tableName)
}

// LatestVersion returns the highest migration version found under path, or -1 when there is none.
func LatestVersion(migrationFS fs.FS, path string) (int, error) {
	src, err := iofs.New(migrationFS, path)
	if err != nil {
		return 0, fmt.Errorf("failed to open migrations at %s: %w", path, err)
	}
	defer src.Close()

	version, err := src.First()
	if errors.Is(err, fs.ErrNotExist) {
		return -1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read first migration at %s: %w", path, err)
	}
	for {
		next, err := src.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			return int(version), nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read migration after %d at %s: %w", version, path, err)
		}
		version = next
	}
}

// migrateLogger forwards golang-migrate's verbose output to DEBUG.
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	logger.Debugf("[migrate] "+format, v...)
}

func (migrateLogger) Verbose() bool {
	return logger.CurrentLevel() == logger.LevelDebug
}
