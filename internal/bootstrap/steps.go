package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/climanegocios/platform/internal/domain/entity"
	"github.com/climanegocios/platform/pkg/platform/component/migration"
)

// Phases in execution order.
const (
	PhaseExtensions = "extensions"
	PhaseSchemas    = "schemas"
	PhaseTypes      = "types"
	PhaseFunctions  = "functions"
	PhaseMigrations = "migrations"
	PhaseIndexes    = "indexes"
)

// Step is one idempotent unit of database initialization. Exists must be
// side-effect free; Apply is only called when Exists reports false.
type Step struct {
	Name  string
	Phase string
	// Ready is optional. A step that is not ready is skipped with the given reason.
	Ready  func(ctx context.Context) (ok bool, reason string, err error)
	Exists func(ctx context.Context) (bool, error)
	Apply  func(ctx context.Context) error
}

// Index describes a trigram index over one text column.
type Index struct {
	Name   string
	Schema string
	Table  string
	Column string
}

// Extensions, Schemas and TrigramIndexes are the objects every database must have.
var (
	Extensions = []string{"uuid-ossp", "postgis", "pg_trgm"}
	Schemas    = []string{"weather", "sales", "ml"}

	TrigramIndexes = []Index{
		{Name: "idx_users_email_trgm", Schema: "public", Table: "users", Column: "email"},
		{Name: "idx_stations_city_trgm", Schema: "weather", Table: "stations", Column: "city"},
	}
)

const (
	roleTypeName      = "user_role"
	updatedAtFunction = "update_updated_at_column"
)

const (
	extensionExistsQuery = `SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = $1)`
	schemaExistsQuery    = `SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`
	typeExistsQuery      = `SELECT EXISTS (SELECT 1 FROM pg_type t JOIN pg_namespace n ON n.oid = t.typnamespace WHERE n.nspname = 'public' AND t.typname = $1)`
	functionExistsQuery  = `SELECT EXISTS (SELECT 1 FROM pg_proc p JOIN pg_namespace n ON n.oid = p.pronamespace WHERE n.nspname = 'public' AND p.proname = $1)`
	tableExistsQuery     = `SELECT to_regclass($1) IS NOT NULL`
	indexExistsQuery     = `SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE schemaname = $1 AND indexname = $2)`
)

const updatedAtFunctionDDL = `CREATE OR REPLACE FUNCTION public.update_updated_at_column()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = CURRENT_TIMESTAMP;
    RETURN NEW;
END;
$$ LANGUAGE plpgsql`

func queryBool(ctx context.Context, db *sql.DB, query string, args ...interface{}) (bool, error) {
	var v bool
	if err := db.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		return false, err
	}
	return v, nil
}

func execDDL(ctx context.Context, db *sql.DB, ddl string) error {
	_, err := db.ExecContext(ctx, ddl)
	return err
}

func quoteIdent(parts ...string) string {
	return pgx.Identifier(parts).Sanitize()
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ExtensionStep ensures a Postgres extension is installed.
func ExtensionStep(db *sql.DB, name string) Step {
	return Step{
		Name:  "extension " + name,
		Phase: PhaseExtensions,
		Exists: func(ctx context.Context) (bool, error) {
			return queryBool(ctx, db, extensionExistsQuery, name)
		},
		Apply: func(ctx context.Context) error {
			return execDDL(ctx, db, "CREATE EXTENSION IF NOT EXISTS "+quoteIdent(name))
		},
	}
}

// SchemaStep ensures a schema exists.
func SchemaStep(db *sql.DB, name string) Step {
	return Step{
		Name:  "schema " + name,
		Phase: PhaseSchemas,
		Exists: func(ctx context.Context) (bool, error) {
			return queryBool(ctx, db, schemaExistsQuery, name)
		},
		Apply: func(ctx context.Context) error {
			return execDDL(ctx, db, "CREATE SCHEMA IF NOT EXISTS "+quoteIdent(name))
		},
	}
}

// RoleTypeStep ensures the user_role enum type. Presence is decided by a pg_type
// lookup, so a second run issues no DDL at all.
func RoleTypeStep(db *sql.DB) Step {
	return Step{
		Name:  "type " + roleTypeName,
		Phase: PhaseTypes,
		Exists: func(ctx context.Context) (bool, error) {
			return queryBool(ctx, db, typeExistsQuery, roleTypeName)
		},
		Apply: func(ctx context.Context) error {
			return execDDL(ctx, db, RoleTypeDDL())
		},
	}
}

// RoleTypeDDL returns the CREATE TYPE statement for user_role.
func RoleTypeDDL() string {
	roles := entity.UserRoles()
	values := make([]string, len(roles))
	for i, r := range roles {
		values[i] = quoteLiteral(string(r))
	}
	return fmt.Sprintf("CREATE TYPE %s AS ENUM (%s)", quoteIdent("public", roleTypeName), strings.Join(values, ", "))
}

// UpdatedAtFunctionStep ensures the trigger function that maintains updated_at columns.
func UpdatedAtFunctionStep(db *sql.DB) Step {
	return Step{
		Name:  "function " + updatedAtFunction,
		Phase: PhaseFunctions,
		Exists: func(ctx context.Context) (bool, error) {
			return queryBool(ctx, db, functionExistsQuery, updatedAtFunction)
		},
		Apply: func(ctx context.Context) error {
			return execDDL(ctx, db, updatedAtFunctionDDL)
		},
	}
}

// MigrationsStep applies the versioned table migrations.
func MigrationsStep(m migration.Migrator, migrationsFS fs.FS, path, table string) Step {
	return Step{
		Name:  "migrations",
		Phase: PhaseMigrations,
		Exists: func(ctx context.Context) (bool, error) {
			status, err := m.Status(ctx, migrationsFS, path, table)
			if err != nil {
				return false, err
			}
			return status.UpToDate(), nil
		},
		Apply: func(ctx context.Context) error {
			return m.Up(ctx, migrationsFS, path, table)
		},
	}
}

// TrigramIndexStep ensures a gin trigram index. It is skipped while the owning table is missing.
func TrigramIndexStep(db *sql.DB, idx Index) Step {
	qualified := idx.Schema + "." + idx.Table
	return Step{
		Name:  "index " + idx.Name,
		Phase: PhaseIndexes,
		Ready: func(ctx context.Context) (bool, string, error) {
			ok, err := queryBool(ctx, db, tableExistsQuery, qualified)
			if err != nil || ok {
				return ok, "", err
			}
			return false, fmt.Sprintf("table %s does not exist", qualified), nil
		},
		Exists: func(ctx context.Context) (bool, error) {
			return queryBool(ctx, db, indexExistsQuery, idx.Schema, idx.Name)
		},
		Apply: func(ctx context.Context) error {
			return execDDL(ctx, db, TrigramIndexDDL(idx))
		},
	}
}

// TrigramIndexDDL returns the CREATE INDEX statement for idx.
func TrigramIndexDDL(idx Index) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING gin (%s gin_trgm_ops)",
		quoteIdent(idx.Name), quoteIdent(idx.Schema, idx.Table), quoteIdent(idx.Column))
}

// DefaultSteps returns the full ordered step list.
func DefaultSteps(db *sql.DB, m migration.Migrator, migrationsFS fs.FS, path, table string) []Step {
	var steps []Step
	for _, ext := range Extensions {
		steps = append(steps, ExtensionStep(db, ext))
	}
	for _, schema := range Schemas {
		steps = append(steps, SchemaStep(db, schema))
	}
	steps = append(steps,
		RoleTypeStep(db),
		UpdatedAtFunctionStep(db),
		MigrationsStep(m, migrationsFS, path, table),
	)
	for _, idx := range TrigramIndexes {
		steps = append(steps, TrigramIndexStep(db, idx))
	}
	return steps
}
