package viewmodel

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

// ErrNotInList is returned by Select for an id the list does not hold.
var ErrNotInList = errors.New("id not in list")

// ListConfig describes a SelectableList.
type ListConfig[T, D any] struct {
	// Name labels log lines and metrics.
	Name  string
	Fetch func(ctx context.Context) ([]T, error)
	Key   func(T) string

	// FetchDependents loads the collection that belongs to the selected
	// item. Nil means the list has no dependents.
	FetchDependents func(ctx context.Context, id string) ([]D, error)

	// PollDependents > 0 re-fetches dependents at that interval while
	// something is selected.
	PollDependents time.Duration
}

// SelectableList owns a collection, the id of one selected element and
// the dependent collection of that element.
type SelectableList[T, D any] struct {
	cfg    ListConfig[T, D]
	s      settings
	subs   subscribers
	poller *Poller

	mu       sync.Mutex
	items    []T
	loaded   bool
	loadSeq  uint64
	selected string
	deps     []D
	depsFor  string
	depSeq   uint64
}

func NewSelectableList[T, D any](cfg ListConfig[T, D], opts ...Option) *SelectableList[T, D] {
	l := &SelectableList[T, D]{cfg: cfg, s: newSettings(opts)}
	if cfg.PollDependents > 0 && cfg.FetchDependents != nil {
		l.poller = NewPoller(l.s.clock, cfg.PollDependents)
	}
	return l
}

// Load fetches the collection. When nothing is selected and the result is
// non-empty, the first element in server order is selected and its
// dependents are fetched. A failed fetch leaves the list as it was.
func (l *SelectableList[T, D]) Load(ctx context.Context) error {
	l.mu.Lock()
	l.loadSeq++
	seq := l.loadSeq
	l.mu.Unlock()

	items, err := l.cfg.Fetch(ctx)
	if err != nil {
		l.s.logger.Warn("list load failed", "list", l.cfg.Name, "error", err)
		return err
	}

	l.mu.Lock()
	if seq != l.loadSeq {
		l.mu.Unlock()
		l.s.dropStale(l.cfg.Name)
		return nil
	}
	l.items = items
	l.loaded = true

	if l.selected != "" && !l.containsLocked(l.selected) {
		l.clearSelectionLocked()
	}

	var autoID string
	var depSeq uint64
	if l.selected == "" && len(items) > 0 {
		autoID = l.cfg.Key(items[0])
		depSeq = l.selectLocked(autoID)
	}
	none := l.selected == ""
	l.mu.Unlock()

	l.subs.emit()
	if none && l.poller != nil {
		l.poller.Stop()
	}
	if autoID == "" {
		return nil
	}
	l.restartPolling()
	l.fetchDependents(ctx, autoID, depSeq)
	return nil
}

// Refresh reloads the collection.
func (l *SelectableList[T, D]) Refresh(ctx context.Context) error {
	return l.Load(ctx)
}

// Select makes id the selection. The dependent collection is cleared
// before the new dependents are requested.
func (l *SelectableList[T, D]) Select(ctx context.Context, id string) error {
	l.mu.Lock()
	if !l.containsLocked(id) {
		l.mu.Unlock()
		return ErrNotInList
	}
	seq := l.selectLocked(id)
	l.mu.Unlock()

	l.subs.emit()
	l.restartPolling()
	l.fetchDependents(ctx, id, seq)
	return nil
}

// RefreshDependents re-fetches the dependents of the current selection in
// place. Does nothing when nothing is selected.
func (l *SelectableList[T, D]) RefreshDependents(ctx context.Context) {
	l.mu.Lock()
	id := l.selected
	if id == "" {
		l.mu.Unlock()
		return
	}
	l.depSeq++
	seq := l.depSeq
	l.mu.Unlock()

	l.fetchDependents(ctx, id, seq)
}

// DependentsRefresher returns a Refresher for the current selection's dependents.
func (l *SelectableList[T, D]) DependentsRefresher() Refresher {
	return RefresherFunc(func(ctx context.Context) error {
		l.RefreshDependents(ctx)
		return nil
	})
}

// Close resets the selection and collections and stops dependent polling.
func (l *SelectableList[T, D]) Close() {
	if l.poller != nil {
		l.poller.Stop()
	}
	l.mu.Lock()
	l.items = nil
	l.loaded = false
	l.loadSeq++
	l.clearSelectionLocked()
	l.mu.Unlock()
	l.subs.emit()
}

func (l *SelectableList[T, D]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

func (l *SelectableList[T, D]) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Selected returns the selected id, or "" when unset.
func (l *SelectableList[T, D]) Selected() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selected
}

// Dependents returns the dependents of the selection. Empty while a fetch
// for a new selection is pending or after it failed.
func (l *SelectableList[T, D]) Dependents() []D {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.depsFor != l.selected {
		return nil
	}
	return slices.Clone(l.deps)
}

// Subscribe registers fn to run after every state change.
func (l *SelectableList[T, D]) Subscribe(fn func()) (unsubscribe func()) {
	return l.subs.add(fn)
}

// PollingActive reports whether dependent polling holds a ticker.
func (l *SelectableList[T, D]) PollingActive() bool {
	return l.poller != nil && l.poller.Active()
}

func (l *SelectableList[T, D]) containsLocked(id string) bool {
	for _, it := range l.items {
		if l.cfg.Key(it) == id {
			return true
		}
	}
	return false
}

func (l *SelectableList[T, D]) selectLocked(id string) uint64 {
	l.selected = id
	l.deps = nil
	l.depsFor = id
	l.depSeq++
	return l.depSeq
}

func (l *SelectableList[T, D]) clearSelectionLocked() {
	l.selected = ""
	l.deps = nil
	l.depsFor = ""
	l.depSeq++
}

func (l *SelectableList[T, D]) fetchDependents(ctx context.Context, id string, seq uint64) {
	if l.cfg.FetchDependents == nil {
		return
	}

	deps, err := l.cfg.FetchDependents(ctx, id)

	l.mu.Lock()
	if l.selected != id || l.depSeq != seq {
		l.mu.Unlock()
		l.s.dropStale(l.cfg.Name)
		return
	}
	if err != nil {
		l.s.logger.Warn("dependent fetch failed", "list", l.cfg.Name, "id", id, "error", err)
		deps = nil
	}
	l.deps = deps
	l.depsFor = id
	l.mu.Unlock()

	l.subs.emit()
}

func (l *SelectableList[T, D]) restartPolling() {
	if l.poller == nil {
		return
	}
	l.poller.Stop()
	if err := l.poller.Start(l.RefreshDependents); err != nil {
		l.s.logger.Debug("dependent polling not restarted", "list", l.cfg.Name, "error", err)
	}
}
