// Package local stores objects as files under a base directory.
package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/climanegocios/platform/pkg/platform/adapter/storage"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

// ProviderType defines the type identifier for this backend.
const ProviderType = "local"

const writeCheckObject = ".write-check"

// Adapter implements storage.StorageConnection on the local file system.
type Adapter struct {
	baseDir string
	name    string
}

// NewAdapter creates the adapter, creating baseDir when it does not exist.
func NewAdapter(baseDir, name string) (*Adapter, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("local storage '%s': base directory must be specified", name)
	}
	info, err := os.Stat(baseDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(baseDir, 0o755); err != nil {
			return nil, fmt.Errorf("local storage '%s': failed to create '%s': %w", name, baseDir, err)
		}
	case err != nil:
		return nil, fmt.Errorf("local storage '%s': failed to stat '%s': %w", name, baseDir, err)
	case !info.IsDir():
		return nil, fmt.Errorf("local storage '%s': '%s' is not a directory", name, baseDir)
	}
	return &Adapter{baseDir: baseDir, name: name}, nil
}

func (a *Adapter) Type() string { return ProviderType }

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Close() error { return nil }

// BaseDir returns the root directory of the adapter.
func (a *Adapter) BaseDir() string { return a.baseDir }

func (a *Adapter) Upload(ctx context.Context, objectName string, data io.Reader, contentType string) error {
	fullPath, err := a.resolvePath(objectName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for '%s': %w", objectName, err)
	}

	// Write to a temporary sibling and rename so readers never see a partial file.
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for '%s': %w", objectName, err)
	}
	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write '%s': %w", objectName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close '%s': %w", objectName, err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move '%s' into place: %w", objectName, err)
	}
	logger.Debugf("Stored '%s' in local storage '%s'.", objectName, a.name)
	return nil
}

func (a *Adapter) Download(ctx context.Context, objectName string) (io.ReadCloser, error) {
	fullPath, err := a.resolvePath(objectName)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open '%s': %w", objectName, err)
	}
	return f, nil
}

func (a *Adapter) ListObjects(ctx context.Context, prefix string, fn func(objectName string) error) error {
	err := filepath.WalkDir(a.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(a.baseDir, path)
		if err != nil {
			return err
		}
		objectName := filepath.ToSlash(rel)
		if objectName == writeCheckObject || strings.HasPrefix(filepath.Base(objectName), ".upload-") {
			return nil
		}
		if !strings.HasPrefix(objectName, prefix) {
			return nil
		}
		return fn(objectName)
	})
	if err != nil {
		return fmt.Errorf("failed to list '%s' with prefix '%s': %w", a.baseDir, prefix, err)
	}
	return nil
}

func (a *Adapter) DeleteObject(ctx context.Context, objectName string) error {
	fullPath, err := a.resolvePath(objectName)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete '%s': %w", objectName, err)
	}
	return nil
}

// Check writes and removes a marker file in the base directory.
func (a *Adapter) Check(ctx context.Context) error {
	if err := a.Upload(ctx, writeCheckObject, bytes.NewReader(nil), "application/octet-stream"); err != nil {
		return fmt.Errorf("local storage '%s' is not writable: %w", a.name, err)
	}
	return a.DeleteObject(ctx, writeCheckObject)
}

// resolvePath maps objectName into baseDir and refuses names escaping it.
func (a *Adapter) resolvePath(objectName string) (string, error) {
	if objectName == "" {
		return "", errors.New("object name must not be empty")
	}
	absBase, err := filepath.Abs(a.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory '%s': %w", a.baseDir, err)
	}
	absFull, err := filepath.Abs(filepath.Join(a.baseDir, filepath.FromSlash(objectName)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve '%s': %w", objectName, err)
	}
	if absFull != absBase && !strings.HasPrefix(absFull, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("object '%s' resolves outside of '%s'", objectName, a.baseDir)
	}
	return absFull, nil
}

var _ storage.StorageConnection = (*Adapter)(nil)
