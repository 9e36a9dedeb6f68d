package report

import (
	"context"
	"errors"
	"fmt"

	"homeworksync/cmd/internal/blob"
)

// Publish writes page to path, replacing whatever version is stored there,
// and returns the URL the page can be viewed at.
func Publish(ctx context.Context, blobs blob.Store, path string, page []byte, message string) (string, error) {
	if path == "" {
		path = DefaultHTMLPath
	}

	var version string
	obj, err := blobs.Get(ctx, path)
	switch {
	case err == nil:
		version = obj.Version
	case errors.Is(err, blob.ErrNotFound):
	default:
		return "", fmt.Errorf("report: read %s: %w", path, err)
	}

	if _, err := blobs.Put(ctx, path, page, version, message); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}
	return blobs.URL(path), nil
}
