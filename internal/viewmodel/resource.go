package viewmodel

import (
	"context"
	"sync"
)

// Refresher re-synchronizes one piece of state from the server.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context) error

func (f RefresherFunc) Refresh(ctx context.Context) error { return f(ctx) }

// Resource holds one server-owned value (usually a collection) and
// replaces it wholesale on every successful fetch.
type Resource[T any] struct {
	name  string
	fetch func(ctx context.Context) (T, error)
	s     settings
	subs  subscribers

	mu     sync.Mutex
	value  T
	loaded bool
	seq    uint64
}

func NewResource[T any](name string, fetch func(ctx context.Context) (T, error), opts ...Option) *Resource[T] {
	return &Resource[T]{name: name, fetch: fetch, s: newSettings(opts)}
}

// Refresh fetches the value. On failure the previous value is kept and the
// error is returned. A response overtaken by a later Refresh is dropped.
func (r *Resource[T]) Refresh(ctx context.Context) error {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	v, err := r.fetch(ctx)
	if err != nil {
		r.s.logger.Warn("refresh failed", "resource", r.name, "error", err)
		return err
	}

	r.mu.Lock()
	if seq != r.seq {
		r.mu.Unlock()
		r.s.dropStale(r.name)
		return nil
	}
	r.value = v
	r.loaded = true
	r.mu.Unlock()

	r.subs.emit()
	return nil
}

// Get returns the current value and whether any fetch has succeeded.
func (r *Resource[T]) Get() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.loaded
}

func (r *Resource[T]) Name() string { return r.name }

// Subscribe registers fn to run after every applied change.
func (r *Resource[T]) Subscribe(fn func()) (unsubscribe func()) {
	return r.subs.add(fn)
}
