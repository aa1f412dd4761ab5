// Package watch provides a small observable value container.  It replaces
// the process-wide mutable observables of a typical UI framework with an
// explicit store object that is owned by a scope and torn down with it.
package watch

import "sync"

// Value holds a current value and a set of subscribers.  It is
// single-writer / multi-reader: one producer publishes, any number of
// consumers read or subscribe.
//
// Subscribers are invoked synchronously, outside the internal lock, in an
// unspecified order.  A subscriber added after a publish immediately
// receives the current value, matching the semantics UI observers expect.
type Value[T any] struct {
	mu   sync.Mutex
	cur  T
	set  bool
	subs map[int]func(T)
	next int
}

// NewValue returns an empty Value with no current value.
func NewValue[T any]() *Value[T] {
	return &Value[T]{subs: map[int]func(T){}}
}

// Publish replaces the current value and notifies all subscribers.
func (v *Value[T]) Publish(x T) {
	v.mu.Lock()
	v.cur = x
	v.set = true
	fns := make([]func(T), 0, len(v.subs))
	for _, fn := range v.subs {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn(x)
	}
}

// Get returns the current value, and whether one has been published yet.
func (v *Value[T]) Get() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur, v.set
}

// Subscribe registers fn and returns a cancel function.  If a value has
// already been published, fn is called with it before Subscribe returns.
// Cancel is idempotent; after cancel fn is never called again.
func (v *Value[T]) Subscribe(fn func(T)) (cancel func()) {
	v.mu.Lock()
	id := v.next
	v.next++
	v.subs[id] = fn
	cur, set := v.cur, v.set
	v.mu.Unlock()

	if set {
		fn(cur)
	}

	return func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
}

// Reset drops the current value and all subscribers.  Used when the owning
// scope ends, so that a stale observer can never see a later publish.
func (v *Value[T]) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	var zero T
	v.cur = zero
	v.set = false
	v.subs = map[int]func(T){}
}
