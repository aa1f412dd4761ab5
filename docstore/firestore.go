package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Firestore implements Store on top of a Cloud Firestore client.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore wraps an existing Firestore client.
func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (s *Firestore) Get(ctx context.Context, collection, id string) (*Doc, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if snap != nil && !snap.Exists() {
		// Get reports a NotFound error for missing documents, but a
		// missing document is a normal outcome for us.
		return &Doc{ID: id}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("while retrieving %s/%s: %w", collection, id, err)
	}
	return &Doc{ID: snap.Ref.ID, Exists: true, Data: snap.Data()}, nil
}

func (s *Firestore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, data); err != nil {
		return fmt.Errorf("while writing %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Firestore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		return fmt.Errorf("while updating %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Firestore) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("while appending to %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (s *Firestore) WatchDoc(ctx context.Context, collection, id string) DocWatch {
	return &firestoreDocWatch{
		iter: s.client.Collection(collection).Doc(id).Snapshots(ctx),
	}
}

func (s *Firestore) WatchCollection(ctx context.Context, collection string) CollectionWatch {
	return &firestoreCollectionWatch{
		iter: s.client.Collection(collection).Snapshots(ctx),
	}
}

func (s *Firestore) WatchWhere(ctx context.Context, collection, field string, value interface{}) CollectionWatch {
	return &firestoreCollectionWatch{
		iter: s.client.Collection(collection).Where(field, "==", value).Snapshots(ctx),
	}
}

type firestoreDocWatch struct {
	iter *firestore.DocumentSnapshotIterator
}

func (w *firestoreDocWatch) Next() (*Doc, error) {
	snap, err := w.iter.Next()
	if err != nil {
		return nil, fmt.Errorf("while waiting for document snapshot: %w", err)
	}
	doc := &Doc{ID: snap.Ref.ID, Exists: snap.Exists()}
	if doc.Exists {
		doc.Data = snap.Data()
	}
	return doc, nil
}

func (w *firestoreDocWatch) Stop() {
	w.iter.Stop()
}

type firestoreCollectionWatch struct {
	iter *firestore.QuerySnapshotIterator
}

func (w *firestoreCollectionWatch) Next() ([]*Doc, error) {
	qsnap, err := w.iter.Next()
	if err != nil {
		return nil, fmt.Errorf("while waiting for collection snapshot: %w", err)
	}

	var docs []*Doc
	for {
		snap, err := qsnap.Documents.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("while iterating collection snapshot: %w", err)
		}
		docs = append(docs, &Doc{ID: snap.Ref.ID, Exists: true, Data: snap.Data()})
	}
	return docs, nil
}

func (w *firestoreCollectionWatch) Stop() {
	w.iter.Stop()
}
