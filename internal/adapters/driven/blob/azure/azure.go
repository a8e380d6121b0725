// Package azure uploads produced files to Azure Blob Storage.
package azure

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	azureblob "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"go.uber.org/zap"

	"github.com/kiotviet-integration/kvsync/internal/adapters/driven/blob"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
	"github.com/kiotviet-integration/kvsync/internal/logger"
)

// DefaultContainer is used when no container is configured.
const DefaultContainer = "kiotviet-data"

// Ensure Uploader implements the interface.
var _ driven.BlobUploader = (*Uploader)(nil)

// blobClient is the subset of *azblob.Client the uploader uses.
type blobClient interface {
	UploadFile(
		ctx context.Context,
		containerName, blobName string,
		file *os.File,
		o *azblob.UploadFileOptions,
	) (azblob.UploadFileResponse, error)
	URL() string
}

// Uploader writes files into one container, overwriting existing blobs.
type Uploader struct {
	client    blobClient
	container string
	logger    *zap.Logger
}

// New creates an uploader from a storage account connection string.
func New(connectionString, container string, log *zap.Logger) (*Uploader, error) {
	if connectionString == "" {
		return nil, fmt.Errorf("azure connection string is required")
	}
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create azure blob client: %w", err)
	}
	return newUploader(client, container, log), nil
}

func newUploader(client blobClient, container string, log *zap.Logger) *Uploader {
	if container == "" {
		container = DefaultContainer
	}
	return &Uploader{
		client:    client,
		container: container,
		logger:    logger.OrNop(log).Named("azure"),
	}
}

// Name identifies the provider.
func (u *Uploader) Name() string {
	return "azure"
}

// Upload stores localPath as blobName and returns the blob URL.
func (u *Uploader) Upload(ctx context.Context, localPath, blobName string) (string, error) {
	f, name, err := blob.OpenSource(localPath, blobName)
	if err != nil {
		return "", err
	}
	defer f.Close()

	contentType := blob.ContentType(name)
	_, err = u.client.UploadFile(ctx, u.container, name, f, &azblob.UploadFileOptions{
		HTTPHeaders: &azureblob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to azure container %s: %w", localPath, u.container, err)
	}

	blobURL, err := url.JoinPath(u.client.URL(), u.container, name)
	if err != nil {
		return "", fmt.Errorf("build blob url: %w", err)
	}

	u.logger.Info("uploaded file",
		zap.String("file", localPath),
		zap.String("container", u.container),
		zap.String("blob", name),
	)
	return blobURL, nil
}
