package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climanegocios/platform/pkg/platform/core/config"
)

func TestNewLocalStoreUsesModelPath(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ML.ModelPath = filepath.Join(t.TempDir(), "models")

	store, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, "local", store.Type())
	assert.Equal(t, ConnectionName, store.Name())
	assert.DirExists(t, cfg.ML.ModelPath)
	assert.NoError(t, store.Check(context.Background()))
}

func TestNewRejectsUnknownType(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Storage.Type = "ftp"

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "unsupported storage type")
}

func TestNewGCSRequiresBucket(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Storage.Type = "gcs"

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "bucket name must be specified")
}

func TestCheckWritableCreatesMissingDirs(t *testing.T) {
	root := t.TempDir()
	dirs := map[string]string{
		"logs":    filepath.Join(root, "logs"),
		"uploads": filepath.Join(root, "uploads"),
	}

	require.NoError(t, CheckWritable(context.Background(), dirs))
	assert.DirExists(t, dirs["logs"])
	assert.DirExists(t, dirs["uploads"])
	assert.NoFileExists(t, filepath.Join(dirs["logs"], ".write-check"))
}

func TestCheckWritableReportsEveryBadDir(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"logs", "uploads"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o600))
	}

	err := CheckWritable(context.Background(), map[string]string{
		"logs":    filepath.Join(root, "logs"),
		"uploads": filepath.Join(root, "uploads"),
		"models":  filepath.Join(root, "models"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local storage 'logs'")
	assert.Contains(t, err.Error(), "local storage 'uploads'")
	assert.NotContains(t, err.Error(), "'models'")
}
