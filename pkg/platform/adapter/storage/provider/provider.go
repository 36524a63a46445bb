// Package provider builds the model artifact store selected by STORAGE_TYPE.
package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/fx"

	"github.com/climanegocios/platform/pkg/platform/adapter/storage"
	"github.com/climanegocios/platform/pkg/platform/adapter/storage/gcs"
	"github.com/climanegocios/platform/pkg/platform/adapter/storage/local"
	"github.com/climanegocios/platform/pkg/platform/core/config"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

// ConnectionName names the model artifact store in logs.
const ConnectionName = "models"

// New returns the store for cfg.Storage.Type. The local store roots at ML_MODEL_PATH;
// the GCS store keeps objects under "models/" in STORAGE_BUCKET_NAME.
func New(ctx context.Context, cfg *config.Config) (storage.StorageConnection, error) {
	switch cfg.Storage.Type {
	case "", local.ProviderType:
		return local.NewAdapter(cfg.ML.ModelPath, ConnectionName)
	case gcs.ProviderType:
		return gcs.NewAdapter(ctx, cfg.Storage.BucketName, "models/", cfg.Storage.CredentialsFile, ConnectionName)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}

// CheckWritable verifies that each named directory exists, creating it if
// needed, and accepts a file. Every failing directory is reported.
func CheckWritable(ctx context.Context, dirs map[string]string) error {
	var result *multierror.Error
	for name, dir := range dirs {
		dirStore, err := local.NewAdapter(dir, name)
		if err == nil {
			err = dirStore.Check(ctx)
		}
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func newStore(lc fx.Lifecycle, cfg *config.Config) (storage.StorageConnection, error) {
	store, err := New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := store.Check(ctx); err != nil {
				return err
			}
			logger.Infof("Model storage '%s' (%s) ready.", store.Name(), store.Type())
			return nil
		},
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}

// Module provides storage.StorageConnection and verifies it is writable on start.
var Module = fx.Options(
	fx.Provide(newStore),
)
