// Package blob holds the helpers shared by the object storage uploaders.
// Provider adapters live in the azure and gcs subpackages.
package blob

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Content types set on uploaded blobs.
const (
	ContentTypeCSV    = "text/csv; charset=utf-8"
	ContentTypeXLSX   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeBinary = "application/octet-stream"
)

// OpenSource opens the local file to upload and resolves the blob name,
// which defaults to the file's base name.
func OpenSource(localPath, blobName string) (*os.File, string, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("file not found: %s", localPath)
		}
		return nil, "", fmt.Errorf("stat %s: %w", localPath, err)
	}
	if info.IsDir() {
		return nil, "", fmt.Errorf("%s is a directory", localPath)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", localPath, err)
	}

	if blobName == "" {
		blobName = filepath.Base(localPath)
	}
	return f, blobName, nil
}

// ContentType returns the content type for a blob name.
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ContentTypeCSV
	case ".xlsx":
		return ContentTypeXLSX
	default:
		return ContentTypeBinary
	}
}
