package blobstore

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCS implements Store on a Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS wraps an existing Cloud Storage client.
func NewGCS(client *storage.Client, bucket string) *GCS {
	return &GCS{client: client, bucket: bucket}
}

func (g *GCS) Put(ctx context.Context, object string, r io.Reader, contentType string) error {
	w := g.client.Bucket(g.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("while uploading %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("while finishing upload of %s: %w", object, err)
	}
	return nil
}

func (g *GCS) ResolveURL(ctx context.Context, object string) (string, error) {
	attrs, err := g.client.Bucket(g.bucket).Object(object).Attrs(ctx)
	if err != nil {
		return "", fmt.Errorf("while resolving URL of %s: %w", object, err)
	}
	return attrs.MediaLink, nil
}
