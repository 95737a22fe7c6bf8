package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for saving and retrieving binary objects.
// The document registry stores only the returned storage key; file bytes live
// behind this interface.
type ObjectStore interface {
	Save(ctx context.Context, applicationID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
