package gorm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/climanegocios/platform/pkg/platform/adapter/database"
	dbconfig "github.com/climanegocios/platform/pkg/platform/adapter/database/config"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

// NewGormLogger creates a gorm logger writing through the platform logger.
// level is one of SILENT, ERROR, WARN, INFO; anything else is SILENT.
func NewGormLogger(level string) gormlogger.Interface {
	var gormLevel gormlogger.LogLevel
	switch strings.ToUpper(level) {
	case "ERROR":
		gormLevel = gormlogger.Error
	case "WARN":
		gormLevel = gormlogger.Warn
	case "INFO", "DEBUG":
		gormLevel = gormlogger.Info
	default:
		gormLevel = gormlogger.Silent
	}

	return gormlogger.New(
		&GormWriter{},
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// GormWriter implements gorm's logger.Writer on top of the platform logger.
// Statement traces go to DEBUG, everything else to INFO.
type GormWriter struct{}

// Printf implements gormlogger.Writer.
func (w *GormWriter) Printf(format string, v ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	if isStatementTrace(msg) {
		logger.Debugf("[GORM] %s", msg)
		return
	}
	logger.Infof("[GORM] %s", msg)
}

func isStatementTrace(msg string) bool {
	if !strings.Contains(msg, "[") || !strings.Contains(msg, "]") {
		return false
	}
	upper := strings.ToUpper(msg)
	for _, kw := range []string{"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "ALTER"} {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// GormDBAdapter implements database.DBConnection around a *gorm.DB.
type GormDBAdapter struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	cfg    dbconfig.DatabaseConfig
	dbType string
	name   string
}

// NewGormDBAdapter wraps db. It fails when the underlying *sql.DB cannot be obtained.
func NewGormDBAdapter(db *gorm.DB, cfg dbconfig.DatabaseConfig, name string) (*GormDBAdapter, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying *sql.DB for '%s': %w", name, err)
	}
	return &GormDBAdapter{
		db:     db,
		sqlDB:  sqlDB,
		cfg:    cfg,
		dbType: cfg.Type,
		name:   name,
	}, nil
}

// GetGormDB returns the underlying *gorm.DB instance.
func (a *GormDBAdapter) GetGormDB() *gorm.DB {
	return a.db
}

func (a *GormDBAdapter) Close() error {
	if a.sqlDB == nil {
		return nil
	}
	logger.Infof("Closing database connection '%s'...", a.name)
	return a.sqlDB.Close()
}

func (a *GormDBAdapter) Type() string {
	return a.dbType
}

func (a *GormDBAdapter) Name() string {
	return a.name
}

func (a *GormDBAdapter) Ping(ctx context.Context) error {
	if a.sqlDB == nil {
		return errors.New("database connection is not initialized")
	}
	return a.sqlDB.PingContext(ctx)
}

func (a *GormDBAdapter) Config() dbconfig.DatabaseConfig {
	return a.cfg
}

func (a *GormDBAdapter) GetSQLDB() (*sql.DB, error) {
	if a.sqlDB == nil {
		return nil, errors.New("underlying sql.DB is nil")
	}
	return a.sqlDB, nil
}

// IsTableNotExistError reports undefined_table on Postgres and "no such table" on SQLite.
func (a *GormDBAdapter) IsTableNotExistError(err error) bool {
	return IsTableNotExistError(err)
}

// IsTableNotExistError is the package level form of GormDBAdapter.IsTableNotExistError.
func IsTableNotExistError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UndefinedTable
	}
	return strings.Contains(err.Error(), "no such table")
}

// IsUniqueViolation reports a unique constraint violation on Postgres or SQLite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GormDBFrom extracts the *gorm.DB behind a connection created by this package.
func GormDBFrom(conn database.DBConnection) (*gorm.DB, error) {
	a, ok := conn.(*GormDBAdapter)
	if !ok {
		return nil, fmt.Errorf("connection '%s' is not backed by gorm", conn.Name())
	}
	return a.db, nil
}

var _ database.DBConnection = (*GormDBAdapter)(nil)
