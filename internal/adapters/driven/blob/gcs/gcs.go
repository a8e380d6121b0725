// Package gcs uploads produced files to Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/kiotviet-integration/kvsync/internal/adapters/driven/blob"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
	"github.com/kiotviet-integration/kvsync/internal/logger"
)

// PublicURLBase prefixes returned object URLs.
const PublicURLBase = "https://storage.googleapis.com"

// Ensure Uploader implements the interface.
var _ driven.BlobUploader = (*Uploader)(nil)

// writerFunc opens a writer for one object.
type writerFunc func(ctx context.Context, bucket, object, contentType string) io.WriteCloser

// Uploader writes files into one bucket, replacing existing objects.
type Uploader struct {
	bucket    string
	newWriter writerFunc
	closer    io.Closer
	logger    *zap.Logger
}

// New creates an uploader. When credentialsFile is empty the client uses
// application default credentials.
func New(ctx context.Context, bucket, credentialsFile string, log *zap.Logger) (*Uploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	u := newUploader(bucket, func(ctx context.Context, bucket, object, contentType string) io.WriteCloser {
		w := client.Bucket(bucket).Object(object).NewWriter(ctx)
		w.ContentType = contentType
		return w
	}, log)
	u.closer = client
	return u, nil
}

func newUploader(bucket string, newWriter writerFunc, log *zap.Logger) *Uploader {
	return &Uploader{
		bucket:    bucket,
		newWriter: newWriter,
		logger:    logger.OrNop(log).Named("gcs"),
	}
}

// Name identifies the provider.
func (u *Uploader) Name() string {
	return "gcs"
}

// Upload stores localPath as blobName and returns the object URL.
func (u *Uploader) Upload(ctx context.Context, localPath, blobName string) (string, error) {
	f, name, err := blob.OpenSource(localPath, blobName)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := u.newWriter(ctx, u.bucket, name, blob.ContentType(name))
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s to gcs bucket %s: %w", localPath, u.bucket, err)
	}
	// The object is committed on Close.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s to gcs bucket %s: %w", localPath, u.bucket, err)
	}

	u.logger.Info("uploaded file",
		zap.String("file", localPath),
		zap.String("bucket", u.bucket),
		zap.String("object", name),
	)
	return fmt.Sprintf("%s/%s/%s", PublicURLBase, u.bucket, name), nil
}

// Close releases the storage client.
func (u *Uploader) Close() error {
	if u.closer == nil {
		return nil
	}
	return u.closer.Close()
}
