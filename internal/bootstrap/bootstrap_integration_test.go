//go:build integration

package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climanegocios/platform/internal/resources"
	"github.com/climanegocios/platform/internal/testinfra"
	gormadapter "github.com/climanegocios/platform/pkg/platform/adapter/database/gorm"
	_ "github.com/climanegocios/platform/pkg/platform/adapter/database/gorm/postgres"
	"github.com/climanegocios/platform/pkg/platform/component/migration"
	"github.com/climanegocios/platform/pkg/platform/core/metrics"
)

func TestBootstrapTwiceAgainstPostGIS(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pg, err := testinfra.NewPostgresContainer(ctx)
	require.NoError(t, err)
	defer testinfra.CleanupContainer(t, ctx, pg)

	cfg := pg.DatabaseConfig()
	gormDB, err := gormadapter.Open(cfg, "WARN")
	require.NoError(t, err)
	conn, err := gormadapter.NewGormDBAdapter(gormDB, cfg, "default")
	require.NoError(t, err)
	defer conn.Close()

	sqlDB, err := conn.GetSQLDB()
	require.NoError(t, err)
	b := New(sqlDB, migration.NewMigrator(conn), resources.MigrationsFS(), resources.MigrationsPath)

	first, err := b.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, first.Count(metrics.OutcomeFailed))
	assert.Contains(t, first.Created(), "type user_role")
	assert.Contains(t, first.Created(), "migrations")
	assert.Contains(t, first.Created(), "index idx_stations_city_trgm")

	second, err := b.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.Created())
	assert.Zero(t, second.Count(metrics.OutcomeFailed))

	var roles []string
	require.NoError(t, gormDB.Raw(`SELECT unnest(enum_range(NULL::user_role))::text`).Scan(&roles).Error)
	assert.Equal(t, []string{"admin", "manager", "user", "viewer"}, roles)

	var triggers int64
	require.NoError(t, gormDB.Raw(
		`SELECT count(*) FROM pg_trigger WHERE tgname IN ('update_users_updated_at', 'update_stations_updated_at')`,
	).Scan(&triggers).Error)
	assert.EqualValues(t, 2, triggers)
}
