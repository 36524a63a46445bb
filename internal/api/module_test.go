package api

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/climanegocios/platform/pkg/platform/core/config"
)

type hookRecorder struct{ hooks []fx.Hook }

func (r *hookRecorder) Append(h fx.Hook) { r.hooks = append(r.hooks, h) }

func TestCheckWorkDirsFailsOnUnwritableLogs(t *testing.T) {
	root := t.TempDir()
	cfg := config.NewConfig()
	cfg.System.LogsDir = filepath.Join(root, "logs")
	cfg.System.UploadsDir = filepath.Join(root, "uploads")
	require.NoError(t, os.WriteFile(cfg.System.LogsDir, []byte("not a dir"), 0o600))

	lc := &hookRecorder{}
	checkWorkDirs(lc, cfg)
	require.Len(t, lc.hooks, 1)

	err := lc.hooks[0].OnStart(context.Background())
	assert.ErrorContains(t, err, "local storage 'logs'")
	assert.DirExists(t, cfg.System.UploadsDir)
}

func TestCheckWorkDirsPassesOnFreshDirs(t *testing.T) {
	root := t.TempDir()
	cfg := config.NewConfig()
	cfg.System.LogsDir = filepath.Join(root, "logs")
	cfg.System.UploadsDir = filepath.Join(root, "uploads")

	lc := &hookRecorder{}
	checkWorkDirs(lc, cfg)
	require.Len(t, lc.hooks, 1)
	assert.NoError(t, lc.hooks[0].OnStart(context.Background()))
}
