package docstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-memory Store used by tests.  Watches deliver full
// snapshots, like the real backend: every mutation of a collection wakes
// every watch on it.
type Memory struct {
	mu      sync.Mutex
	cols    map[string]map[string]map[string]interface{}
	order   map[string][]string
	watches map[*memWatchCore]struct{}
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		cols:    map[string]map[string]map[string]interface{}{},
		order:   map[string][]string{},
		watches: map[*memWatchCore]struct{}{},
	}
}

// ActiveWatches reports how many watches are currently live.  Test hook for
// the one-subscription-per-session invariants.
func (m *Memory) ActiveWatches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watches)
}

func (m *Memory) Get(ctx context.Context, collection, id string) (*Doc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.cols[collection][id]
	if !ok {
		return &Doc{ID: id}, nil
	}
	return &Doc{ID: id, Exists: true, Data: cloneDoc(data)}, nil
}

func (m *Memory) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	m.mu.Lock()
	if m.cols[collection] == nil {
		m.cols[collection] = map[string]map[string]interface{}{}
	}
	if _, ok := m.cols[collection][id]; !ok {
		m.order[collection] = append(m.order[collection], id)
	}
	m.cols[collection][id] = cloneDoc(data)
	m.notifyLocked(collection)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.cols[collection][id]
	if !ok {
		return fmt.Errorf("no document %s/%s to update", collection, id)
	}
	for k, v := range fields {
		doc[k] = v
	}
	m.notifyLocked(collection)
	return nil
}

func (m *Memory) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	id := uuid.NewString()
	if err := m.Set(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Memory) WatchDoc(ctx context.Context, collection, id string) DocWatch {
	return &memDocWatch{core: m.newWatch(ctx, collection), id: id}
}

func (m *Memory) WatchCollection(ctx context.Context, collection string) CollectionWatch {
	return &memCollectionWatch{core: m.newWatch(ctx, collection)}
}

func (m *Memory) WatchWhere(ctx context.Context, collection, field string, value interface{}) CollectionWatch {
	return &memCollectionWatch{core: m.newWatch(ctx, collection), field: field, value: value, filtered: true}
}

func (m *Memory) newWatch(ctx context.Context, collection string) *memWatchCore {
	core := &memWatchCore{
		m:          m,
		ctx:        ctx,
		collection: collection,
		dirty:      make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	// The first Next must return the current state immediately.
	core.dirty <- struct{}{}

	m.mu.Lock()
	m.watches[core] = struct{}{}
	m.mu.Unlock()
	return core
}

func (m *Memory) notifyLocked(collection string) {
	for core := range m.watches {
		if core.collection != collection {
			continue
		}
		select {
		case core.dirty <- struct{}{}:
		default:
			// A wakeup is already pending; snapshots coalesce.
		}
	}
}

func cloneDoc(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

type memWatchCore struct {
	m          *Memory
	ctx        context.Context
	collection string
	dirty      chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
}

func (c *memWatchCore) wait() error {
	select {
	case <-c.done:
		return ErrWatchClosed
	case <-c.ctx.Done():
		return c.ctx.Err()
	case <-c.dirty:
		return nil
	}
}

func (c *memWatchCore) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.m.mu.Lock()
		delete(c.m.watches, c)
		c.m.mu.Unlock()
	})
}

type memDocWatch struct {
	core *memWatchCore
	id   string
}

func (w *memDocWatch) Next() (*Doc, error) {
	if err := w.core.wait(); err != nil {
		return nil, err
	}
	return w.core.m.Get(w.core.ctx, w.core.collection, w.id)
}

func (w *memDocWatch) Stop() { w.core.Stop() }

type memCollectionWatch struct {
	core     *memWatchCore
	field    string
	value    interface{}
	filtered bool
}

func (w *memCollectionWatch) Next() ([]*Doc, error) {
	if err := w.core.wait(); err != nil {
		return nil, err
	}

	m := w.core.m
	m.mu.Lock()
	defer m.mu.Unlock()

	var docs []*Doc
	for _, id := range m.order[w.core.collection] {
		data, ok := m.cols[w.core.collection][id]
		if !ok {
			continue
		}
		if w.filtered && data[w.field] != w.value {
			continue
		}
		docs = append(docs, &Doc{ID: id, Exists: true, Data: cloneDoc(data)})
	}
	return docs, nil
}

func (w *memCollectionWatch) Stop() { w.core.Stop() }
