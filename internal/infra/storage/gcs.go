package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"

	"eduai-backend/internal/domain/ports/adapter"
)

var _ adapter.UploadStore = (*GCSStore)(nil)

// GCSStore keeps uploaded attachments in a single bucket. Objects are served
// from publicURL, so the returned URL is publicURL + "/" + object name.
type GCSStore struct {
	client    *gcs.Client
	bucket    string
	publicURL string
}

func NewGCSStore(ctx context.Context, bucket, publicURL string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("storage: empty bucket")
	}
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	if publicURL == "" {
		publicURL = "https://storage.googleapis.com/" + bucket
	}
	return &GCSStore{
		client:    c,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

func (s *GCSStore) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", name, err)
	}
	return s.publicURL + "/" + name, nil
}

func (s *GCSStore) Delete(ctx context.Context, rawURL string) error {
	name := strings.TrimPrefix(rawURL, s.publicURL+"/")
	if name == "" || name == rawURL {
		return fmt.Errorf("storage: url %q not under %q", rawURL, s.publicURL)
	}
	if err := s.client.Bucket(s.bucket).Object(name).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

func (s *GCSStore) Close() error { return s.client.Close() }
