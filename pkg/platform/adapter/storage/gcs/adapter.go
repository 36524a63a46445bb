// Package gcs stores objects in a Google Cloud Storage bucket.
package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/climanegocios/platform/pkg/platform/adapter/storage"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

// ProviderType defines the type identifier for this backend.
const ProviderType = "gcs"

// Adapter implements storage.StorageConnection for one bucket.
type Adapter struct {
	client *gcstorage.Client
	bucket string
	prefix string
	name   string
}

// NewAdapter opens a client. credentialsFile may be empty to use application
// default credentials. Object names are stored under prefix inside bucket.
func NewAdapter(ctx context.Context, bucket, prefix, credentialsFile, name string) (*Adapter, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs storage '%s': bucket name must be specified", name)
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage '%s': failed to create client: %w", name, err)
	}
	return &Adapter{client: client, bucket: bucket, prefix: prefix, name: name}, nil
}

func (a *Adapter) Type() string { return ProviderType }

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Close() error {
	return a.client.Close()
}

func (a *Adapter) object(objectName string) *gcstorage.ObjectHandle {
	return a.client.Bucket(a.bucket).Object(a.prefix + objectName)
}

func (a *Adapter) Upload(ctx context.Context, objectName string, data io.Reader, contentType string) error {
	w := a.object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, data); err != nil {
		w.Close()
		return fmt.Errorf("failed to upload gs://%s/%s%s: %w", a.bucket, a.prefix, objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs://%s/%s%s: %w", a.bucket, a.prefix, objectName, err)
	}
	logger.Debugf("Uploaded gs://%s/%s%s.", a.bucket, a.prefix, objectName)
	return nil
}

func (a *Adapter) Download(ctx context.Context, objectName string) (io.ReadCloser, error) {
	r, err := a.object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s%s: %w", a.bucket, a.prefix, objectName, err)
	}
	return r, nil
}

func (a *Adapter) ListObjects(ctx context.Context, prefix string, fn func(objectName string) error) error {
	it := a.client.Bucket(a.bucket).Objects(ctx, &gcstorage.Query{Prefix: a.prefix + prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to list gs://%s/%s%s: %w", a.bucket, a.prefix, prefix, err)
		}
		if err := fn(attrs.Name[len(a.prefix):]); err != nil {
			return err
		}
	}
}

func (a *Adapter) DeleteObject(ctx context.Context, objectName string) error {
	err := a.object(objectName).Delete(ctx)
	if err != nil && !errors.Is(err, gcstorage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete gs://%s/%s%s: %w", a.bucket, a.prefix, objectName, err)
	}
	return nil
}

// Check confirms the bucket exists and accepts writes.
func (a *Adapter) Check(ctx context.Context) error {
	if _, err := a.client.Bucket(a.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("gcs bucket '%s' not accessible: %w", a.bucket, err)
	}
	const marker = ".write-check"
	if err := a.Upload(ctx, marker, bytes.NewReader(nil), "application/octet-stream"); err != nil {
		return err
	}
	return a.DeleteObject(ctx, marker)
}

var _ storage.StorageConnection = (*Adapter)(nil)
