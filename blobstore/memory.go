package blobstore

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Memory is an in-memory Store for tests.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte

	// PutErr and ResolveErr, when set, make the corresponding call fail.
	PutErr     error
	ResolveErr error
}

// NewMemory returns an empty in-memory blob store.
func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}}
}

func (m *Memory) Put(ctx context.Context, object string, r io.Reader, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return m.PutErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[object] = data
	return nil
}

func (m *Memory) ResolveURL(ctx context.Context, object string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ResolveErr != nil {
		return "", m.ResolveErr
	}
	if _, ok := m.objects[object]; !ok {
		return "", fmt.Errorf("no object %s", object)
	}
	return "mem://" + object, nil
}
