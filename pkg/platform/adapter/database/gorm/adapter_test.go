package gorm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	dbconfig "github.com/climanegocios/platform/pkg/platform/adapter/database/config"
)

func newMockAdapter(t *testing.T) (*GormDBAdapter, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	// gorm.Open pings the pool once.
	mock.ExpectPing()
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 NewGormLogger("SILENT"),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	a, err := NewGormDBAdapter(gdb, dbconfig.DatabaseConfig{Type: "postgres", Host: "db"}, "default")
	require.NoError(t, err)
	return a, mock
}

func TestGormDBAdapterAccessors(t *testing.T) {
	a, mock := newMockAdapter(t)

	assert.Equal(t, "postgres", a.Type())
	assert.Equal(t, "default", a.Name())
	assert.Equal(t, "db", a.Config().Host)

	sqlDB, err := a.GetSQLDB()
	require.NoError(t, err)
	assert.NotNil(t, sqlDB)

	gdb, err := GormDBFrom(a)
	require.NoError(t, err)
	assert.Same(t, a.GetGormDB(), gdb)

	mock.ExpectPing()
	assert.NoError(t, a.Ping(t.Context()))

	mock.ExpectClose()
	assert.NoError(t, a.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsTableNotExistError(t *testing.T) {
	undefined := &pgconn.PgError{Code: pgerrcode.UndefinedTable, Message: `relation "users" does not exist`}
	other := &pgconn.PgError{Code: pgerrcode.SyntaxError}

	assert.True(t, IsTableNotExistError(fmt.Errorf("query: %w", undefined)))
	assert.False(t, IsTableNotExistError(other))
	assert.True(t, IsTableNotExistError(errors.New("no such table: users")))
	assert.False(t, IsTableNotExistError(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("create: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: users.email")))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsStatementTrace(t *testing.T) {
	assert.True(t, isStatementTrace("[1.2ms] [rows:1] SELECT * FROM users"))
	assert.True(t, isStatementTrace("[0.3ms] [rows:0] create index if not exists x"))
	assert.False(t, isStatementTrace("failed to initialize database"))
	assert.False(t, isStatementTrace("SELECT without brackets"))
}

func TestDecodeDatabaseConfigWeakTyping(t *testing.T) {
	cfg, err := DecodeDatabaseConfig(map[string]interface{}{
		"type":     "postgres",
		"host":     "db",
		"port":     "5433",
		"database": "climanegocios_db",
		"schema":   "weather",
		"pool": map[string]interface{}{
			"max_open_conns": 20,
			"max_idle_conns": "4",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 5433, cfg.Port)
	assert.Equal(t, "weather", cfg.Schema)
	assert.Equal(t, 20, cfg.Pool.MaxOpenConns)
	assert.Equal(t, 4, cfg.Pool.MaxIdleConns)
}

func TestDialectorForUnknown(t *testing.T) {
	_, err := DialectorFor("oracle")
	assert.Error(t, err)
}
