package driven

import "context"

// BlobUploader copies produced files to remote object storage.
type BlobUploader interface {
	// Upload stores the local file under blobName, overwriting any
	// existing blob, and returns the blob URL.
	Upload(ctx context.Context, localPath, blobName string) (string, error)

	// Name identifies the provider in logs and history.
	Name() string
}
