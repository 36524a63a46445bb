package bootstrap

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io/fs"
	"regexp"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/climanegocios/platform/pkg/platform/component/migration"
	"github.com/climanegocios/platform/pkg/platform/core/metrics"
	"github.com/climanegocios/platform/pkg/platform/core/retry"
)

const testMigrationsPath = "migrations"

var testMigrationsFS = fstest.MapFS{
	"migrations/0001_users.up.sql":   {Data: []byte("SELECT 1;")},
	"migrations/0001_users.down.sql": {Data: []byte("SELECT 1;")},
}

type mockMigrator struct {
	mock.Mock
}

func (m *mockMigrator) Status(ctx context.Context, fsys fs.FS, path, table string) (migration.Status, error) {
	args := m.Called(path, table)
	return args.Get(0).(migration.Status), args.Error(1)
}

func (m *mockMigrator) Up(ctx context.Context, fsys fs.FS, path, table string) error {
	return m.Called(path, table).Error(0)
}

func (m *mockMigrator) Down(ctx context.Context, fsys fs.FS, path, table string) error {
	return m.Called(path, table).Error(0)
}

type stepRecord struct {
	step    string
	outcome string
}

type fakeRecorder struct {
	metrics.MetricRecorder
	steps []stepRecord
}

func (r *fakeRecorder) RecordBootstrapStep(step, outcome string, _ time.Duration) {
	r.steps = append(r.steps, stepRecord{step: step, outcome: outcome})
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, dbMock
}

func newPingMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, dbMock
}

func expectBool(dbMock sqlmock.Sqlmock, query string, result bool, args ...interface{}) {
	values := make([]driver.Value, 0, len(args))
	for _, a := range args {
		values = append(values, a)
	}
	dbMock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(values...).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(result))
}

func expectDDL(dbMock sqlmock.Sqlmock, ddl string) {
	dbMock.ExpectExec(regexp.QuoteMeta(ddl)).WillReturnResult(sqlmock.NewResult(0, 0))
}

func expectFreshDatabase(dbMock sqlmock.Sqlmock) {
	for _, ext := range Extensions {
		expectBool(dbMock, extensionExistsQuery, false, ext)
		expectDDL(dbMock, "CREATE EXTENSION IF NOT EXISTS "+quoteIdent(ext))
	}
	for _, schema := range Schemas {
		expectBool(dbMock, schemaExistsQuery, false, schema)
		expectDDL(dbMock, "CREATE SCHEMA IF NOT EXISTS "+quoteIdent(schema))
	}
	expectBool(dbMock, typeExistsQuery, false, roleTypeName)
	expectDDL(dbMock, RoleTypeDDL())
	expectBool(dbMock, functionExistsQuery, false, updatedAtFunction)
	expectDDL(dbMock, updatedAtFunctionDDL)
}

func expectInitializedDatabase(dbMock sqlmock.Sqlmock) {
	for _, ext := range Extensions {
		expectBool(dbMock, extensionExistsQuery, true, ext)
	}
	for _, schema := range Schemas {
		expectBool(dbMock, schemaExistsQuery, true, schema)
	}
	expectBool(dbMock, typeExistsQuery, true, roleTypeName)
	expectBool(dbMock, functionExistsQuery, true, updatedAtFunction)
}

func newTestBootstrapper(db *sql.DB, m migration.Migrator, opts ...Option) *Bootstrapper {
	opts = append([]Option{WithWaitPolicy(retry.NewFixedRetryPolicy(1, 0))}, opts...)
	return New(db, m, testMigrationsFS, testMigrationsPath, opts...)
}

func TestRunOnFreshDatabaseCreatesEverything(t *testing.T) {
	db, dbMock := newMockDB(t)
	migrator := &mockMigrator{}
	recorder := &fakeRecorder{}

	expectFreshDatabase(dbMock)
	migrator.On("Status", testMigrationsPath, migration.DefaultMigrationsTable).
		Return(migration.Status{Current: -1, Latest: 1}, nil).Once()
	migrator.On("Up", testMigrationsPath, migration.DefaultMigrationsTable).Return(nil).Once()
	for _, idx := range TrigramIndexes {
		expectBool(dbMock, tableExistsQuery, true, idx.Schema+"."+idx.Table)
		expectBool(dbMock, indexExistsQuery, false, idx.Schema, idx.Name)
		expectDDL(dbMock, TrigramIndexDDL(idx))
	}

	report, err := newTestBootstrapper(db, migrator, WithRecorder(recorder)).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Results, 11)
	assert.Equal(t, 11, report.Count(metrics.OutcomeCreated))
	assert.Equal(t, "extension uuid-ossp", report.Results[0].Name)
	assert.Equal(t, "index idx_stations_city_trgm", report.Results[10].Name)
	assert.Len(t, recorder.steps, 11)
	assert.NoError(t, dbMock.ExpectationsWereMet())
	migrator.AssertExpectations(t)
}

func TestRunOnInitializedDatabaseIssuesNoDDL(t *testing.T) {
	db, dbMock := newMockDB(t)
	migrator := &mockMigrator{}

	expectInitializedDatabase(dbMock)
	migrator.On("Status", testMigrationsPath, migration.DefaultMigrationsTable).
		Return(migration.Status{Current: 1, Latest: 1}, nil).Once()
	for _, idx := range TrigramIndexes {
		expectBool(dbMock, tableExistsQuery, true, idx.Schema+"."+idx.Table)
		expectBool(dbMock, indexExistsQuery, true, idx.Schema, idx.Name)
	}

	report, err := newTestBootstrapper(db, migrator).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.Created())
	assert.Equal(t, 11, report.Count(metrics.OutcomePresent))
	assert.NoError(t, dbMock.ExpectationsWereMet())
	migrator.AssertNotCalled(t, "Up", mock.Anything, mock.Anything)
}

func TestIndexStepSkipsWhenTableIsMissing(t *testing.T) {
	db, dbMock := newMockDB(t)
	idx := TrigramIndexes[1]

	expectBool(dbMock, tableExistsQuery, false, "weather.stations")

	b := newTestBootstrapper(db, &mockMigrator{}, WithSteps(TrigramIndexStep(db, idx)))
	report, err := b.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.Equal(t, metrics.OutcomeSkipped, report.Results[0].Outcome)
	assert.Contains(t, report.Results[0].Reason, "weather.stations")
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestIndexStepSkipsWhenTableDisappearsBeforeDDL(t *testing.T) {
	db, dbMock := newMockDB(t)
	idx := TrigramIndexes[0]

	expectBool(dbMock, tableExistsQuery, true, "public.users")
	expectBool(dbMock, indexExistsQuery, false, "public", idx.Name)
	dbMock.ExpectExec(regexp.QuoteMeta(TrigramIndexDDL(idx))).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UndefinedTable, Message: `relation "public.users" does not exist`})

	b := newTestBootstrapper(db, &mockMigrator{}, WithSteps(TrigramIndexStep(db, idx)))
	report, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeSkipped, report.Results[0].Outcome)
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	db, dbMock := newMockDB(t)
	dbMock.ExpectQuery(regexp.QuoteMeta(extensionExistsQuery)).
		WithArgs("uuid-ossp").
		WillReturnError(errors.New("permission denied"))

	report, err := newTestBootstrapper(db, &mockMigrator{}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extension uuid-ossp")
	require.Len(t, report.Results, 1)
	assert.Equal(t, metrics.OutcomeFailed, report.Results[0].Outcome)
}

func TestMigrationFailureIsReported(t *testing.T) {
	db, _ := newMockDB(t)
	migrator := &mockMigrator{}
	migrator.On("Status", testMigrationsPath, migration.DefaultMigrationsTable).
		Return(migration.Status{Current: -1, Latest: 1}, nil)
	migrator.On("Up", testMigrationsPath, migration.DefaultMigrationsTable).Return(errors.New("syntax error"))

	step := MigrationsStep(migrator, testMigrationsFS, testMigrationsPath, migration.DefaultMigrationsTable)
	report, err := newTestBootstrapper(db, migrator, WithSteps(step)).Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "syntax error")
	assert.Equal(t, 1, report.Count(metrics.OutcomeFailed))
}

func TestWaitForDatabaseRetriesUntilReachable(t *testing.T) {
	db, dbMock := newPingMockDB(t)
	dbMock.ExpectPing().WillReturnError(errors.New("connection refused"))
	dbMock.ExpectPing().WillReturnError(errors.New("the database system is starting up"))
	dbMock.ExpectPing()

	b := New(db, &mockMigrator{}, testMigrationsFS, testMigrationsPath,
		WithWaitPolicy(retry.NewFixedRetryPolicy(5, time.Millisecond)),
		WithSteps())
	report, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestWaitForDatabaseGivesUp(t *testing.T) {
	db, dbMock := newPingMockDB(t)
	dbMock.ExpectPing().WillReturnError(errors.New("connection refused"))
	dbMock.ExpectPing().WillReturnError(errors.New("connection refused"))

	b := New(db, &mockMigrator{}, testMigrationsFS, testMigrationsPath,
		WithWaitPolicy(retry.NewFixedRetryPolicy(2, time.Millisecond)),
		WithSteps())
	err := b.WaitForDatabase(context.Background())
	assert.ErrorContains(t, err, "database is not reachable")
}

func TestDDLRendering(t *testing.T) {
	assert.Equal(t, `CREATE TYPE "public"."user_role" AS ENUM ('admin', 'manager', 'user', 'viewer')`, RoleTypeDDL())
	assert.Equal(t,
		`CREATE INDEX IF NOT EXISTS "idx_stations_city_trgm" ON "weather"."stations" USING gin ("city" gin_trgm_ops)`,
		TrigramIndexDDL(TrigramIndexes[1]))
}
