package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climanegocios/platform/pkg/platform/core/config"
)

func TestProviderLifecycle(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Database["local"] = map[string]interface{}{
		"type":     "sqlite",
		"database": filepath.Join(t.TempDir(), "local.db"),
		"pool":     map[string]interface{}{"max_open_conns": 1},
	}
	p := NewProvider(cfg)

	conn, err := p.GetConnection("local")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", conn.Type())
	assert.Equal(t, "local", conn.Name())
	assert.NoError(t, conn.Ping(t.Context()))

	again, err := p.GetConnection("local")
	require.NoError(t, err)
	assert.Same(t, conn, again, "connections are cached by name")

	sqlDB, err := conn.GetSQLDB()
	require.NoError(t, err)
	_, err = sqlDB.Exec("SELECT * FROM missing_table")
	require.Error(t, err)
	assert.True(t, conn.IsTableNotExistError(err))

	assert.NoError(t, p.CloseAll())

	reopened, err := p.GetConnection("local")
	require.NoError(t, err)
	assert.NotSame(t, conn, reopened, "CloseAll forgets closed connections")
	assert.NoError(t, p.CloseAll())
}

func TestDialectorRequiresPath(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Database["broken"] = map[string]interface{}{"type": "sqlite"}

	_, err := NewProvider(cfg).GetConnection("broken")
	assert.Error(t, err)
}
