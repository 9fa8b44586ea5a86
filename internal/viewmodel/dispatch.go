package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrInFlight is returned when the same action is already running.
var ErrInFlight = errors.New("already in flight")

// ActionObserver is told the outcome of every dispatched action.
type ActionObserver interface {
	ObserveAction(name string, err error)
}

// Action is one mutating call plus the state it invalidates.
type Action struct {
	// Name identifies the kind of action, e.g. "content.approve".
	Name string
	// Key is the entity id or payload key. Dispatches with equal
	// Name and Key never overlap.
	Key string
	Do  func(ctx context.Context) error
	// Refresh lists exactly what to re-fetch after Do succeeds.
	Refresh []Refresher
	// Success, when set, is reported as an info notice after refresh.
	Success string
}

// Dispatcher runs actions with a per-action in-flight guard.
type Dispatcher struct {
	s        settings
	observer ActionObserver
	subs     subscribers

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewDispatcher(observer ActionObserver, opts ...Option) *Dispatcher {
	return &Dispatcher{
		s:        newSettings(opts),
		observer: observer,
		inflight: make(map[string]struct{}),
	}
}

// Dispatch runs a.Do and, on success, every refresher of a concurrently.
// On failure the error is reported through the notifier and returned;
// nothing is refreshed. A refresher failure does not fail the action.
func (d *Dispatcher) Dispatch(ctx context.Context, a Action) error {
	k := inflightKey(a.Name, a.Key)

	d.mu.Lock()
	if _, busy := d.inflight[k]; busy {
		d.mu.Unlock()
		return fmt.Errorf("%s %s: %w", a.Name, a.Key, ErrInFlight)
	}
	d.inflight[k] = struct{}{}
	d.mu.Unlock()
	d.subs.emit()

	defer func() {
		d.mu.Lock()
		delete(d.inflight, k)
		d.mu.Unlock()
		d.subs.emit()
	}()

	err := a.Do(ctx)
	if d.observer != nil {
		d.observer.ObserveAction(a.Name, err)
	}
	if err != nil {
		d.s.logger.Error("action failed", "action", a.Name, "key", a.Key, "error", err)
		d.s.notifier.Notify(notice(d.s, LevelError, a.Name, err.Error()))
		return err
	}

	var g errgroup.Group
	for _, r := range a.Refresh {
		g.Go(func() error {
			if err := r.Refresh(ctx); err != nil {
				d.s.logger.Warn("refresh after action failed", "action", a.Name, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if a.Success != "" {
		d.s.notifier.Notify(notice(d.s, LevelInfo, a.Name, a.Success))
	}
	return nil
}

// InFlight reports whether the action name/key is running.
func (d *Dispatcher) InFlight(name, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.inflight[inflightKey(name, key)]
	return ok
}

// Subscribe registers fn to run whenever an in-flight flag flips.
func (d *Dispatcher) Subscribe(fn func()) (unsubscribe func()) {
	return d.subs.add(fn)
}

func inflightKey(name, key string) string {
	return name + "\x00" + key
}
