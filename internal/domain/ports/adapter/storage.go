package adapter

import (
	"context"
	"io"
)

// UploadStore is the object-storage port for image attachments. Objects are
// opaque to the core; only their URLs travel through the data model.
type UploadStore interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (url string, err error)
	Delete(ctx context.Context, url string) error
}
