// Package blobstore is the boundary to the managed object store.  Profile
// media is uploaded by reference and then resolved to a stable download
// URL, which is the only form the document store ever sees.
package blobstore

import (
	"context"
	"io"
)

// Store uploads objects and resolves their download URLs.
type Store interface {
	// Put uploads one object, replacing any previous content.
	Put(ctx context.Context, object string, r io.Reader, contentType string) error

	// ResolveURL returns the stable download URL for an uploaded object.
	ResolveURL(ctx context.Context, object string) (string, error)
}
