// Package docstore packages up the document-database accesses behind a
// small interface: per-document reads and partial updates, collection
// appends, and the two change-stream primitives the state stores consume
// (single-document watch, collection watch with an equality filter).
//
// Every watch delivers a full snapshot on each change.  There is no
// field-level diffing.
package docstore

import (
	"context"
	"errors"
)

// Doc is one document snapshot.  Data is nil when Exists is false.
type Doc struct {
	ID     string
	Exists bool
	Data   map[string]interface{}
}

// ErrWatchClosed is returned from Next after a watch has been stopped.
var ErrWatchClosed = errors.New("watch closed")

// DocWatch streams snapshots of a single document.  The first Next returns
// the current state; later calls block until the document changes.
type DocWatch interface {
	Next() (*Doc, error)
	Stop()
}

// CollectionWatch streams snapshots of a whole collection (or a filtered
// subset), in document order.
type CollectionWatch interface {
	Next() ([]*Doc, error)
	Stop()
}

// Store is the document-store boundary.
type Store interface {
	// Get reads one document.  A missing document is not an error; the
	// returned Doc has Exists set to false.
	Get(ctx context.Context, collection, id string) (*Doc, error)

	// Set creates or fully replaces one document.
	Set(ctx context.Context, collection, id string, data map[string]interface{}) error

	// Update applies a partial field update to an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error

	// Add appends a document with a generated ID and returns the ID.
	Add(ctx context.Context, collection string, data map[string]interface{}) (string, error)

	// WatchDoc opens a change stream on a single document.
	WatchDoc(ctx context.Context, collection, id string) DocWatch

	// WatchCollection opens a change stream over a whole collection.
	WatchCollection(ctx context.Context, collection string) CollectionWatch

	// WatchWhere opens a change stream over the documents whose field
	// equals value.
	WatchWhere(ctx context.Context, collection, field string, value interface{}) CollectionWatch
}
