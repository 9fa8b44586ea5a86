package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kalambet/recapture/internal/api"
)

// ErrNotPaginated is returned by SetPage on a feed in accumulate mode.
var ErrNotPaginated = errors.New("feed is not paginated")

// FeedMode selects how fetched pages become the shown list.
type FeedMode string

const (
	// FeedPaginated shows exactly the server's current page.
	FeedPaginated FeedMode = "paginated"
	// FeedAccumulate fetches the whole feed and prepends unseen items.
	FeedAccumulate FeedMode = "accumulate"
)

// FeedState is the listening state machine.
type FeedState int

const (
	FeedStopped FeedState = iota
	FeedStarting
	FeedListening
	FeedStopping
)

func (s FeedState) String() string {
	switch s {
	case FeedStarting:
		return "starting"
	case FeedListening:
		return "listening"
	case FeedStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

func (s FeedState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// FeedSource is the listening API. *api.Client satisfies it.
type FeedSource interface {
	ListeningStatus(ctx context.Context) (api.ListeningStatus, error)
	StartListening(ctx context.Context) error
	StopListening(ctx context.Context) error
	ListeningFeed(ctx context.Context, page, pageSize int) (api.FeedPage, error)
	ListeningFeedAll(ctx context.Context) (api.FeedPage, error)
}

type FeedConfig struct {
	Mode         FeedMode
	PageSize     int
	PollInterval time.Duration
}

// FeedSnapshot is a consistent copy of the feed's state.
type FeedSnapshot struct {
	Mode       FeedMode       `json:"mode"`
	State      FeedState      `json:"state"`
	Items      []api.FeedItem `json:"items"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
	Total      int            `json:"total"`
	Threats    int            `json:"threats"`
	// NewSinceView counts items the server gained since page 1 was last
	// shown. Always 0 in accumulate mode.
	NewSinceView int `json:"new_since_view"`
	// PageChanged is true for the first snapshot after a page switch.
	PageChanged bool      `json:"page_changed"`
	Loaded      bool      `json:"loaded"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Feed keeps a deduplicated view of the listening feed fresh while the
// server-side listener runs.
type Feed struct {
	src    FeedSource
	cfg    FeedConfig
	s      settings
	subs   subscribers
	poller *Poller
	group  singleflight.Group

	mu          sync.Mutex
	state       FeedState
	items       []api.FeedItem
	loaded      bool
	page        int
	totalPages  int
	total       int
	threats     int
	baseline    int
	hasBaseline bool
	pageSwitch  bool
	pageChanged bool
	updatedAt   time.Time
	seq         uint64
}

func NewFeed(src FeedSource, cfg FeedConfig, opts ...Option) *Feed {
	if cfg.Mode == "" {
		cfg.Mode = FeedPaginated
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 5
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	f := &Feed{src: src, cfg: cfg, s: newSettings(opts), page: 1, totalPages: 1}
	f.poller = NewPoller(f.s.clock, cfg.PollInterval)
	return f
}

// Mount adopts the server's listening state and performs the first fetch.
// A failed status check is logged and the feed stays stopped.
func (f *Feed) Mount(ctx context.Context) error {
	st, err := f.src.ListeningStatus(ctx)
	if err != nil {
		f.s.logger.Warn("listening status check failed", "error", err)
	} else if st.Running {
		f.mu.Lock()
		adopt := f.state == FeedStopped
		if adopt {
			f.state = FeedListening
		}
		f.mu.Unlock()
		if adopt {
			f.startPolling()
			f.subs.emit()
		}
	}
	return f.Refresh(ctx)
}

// Start asks the server to start listening, then shows page 1 and polls.
// On failure the feed reverts to stopped and the error is also reported
// through the notifier.
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	switch f.state {
	case FeedListening:
		f.mu.Unlock()
		return nil
	case FeedStarting, FeedStopping:
		f.mu.Unlock()
		return ErrInFlight
	}
	f.state = FeedStarting
	f.mu.Unlock()
	f.subs.emit()

	if err := f.src.StartListening(ctx); err != nil {
		f.mu.Lock()
		f.state = FeedStopped
		f.mu.Unlock()
		f.subs.emit()
		f.s.logger.Error("failed to start listening", "error", err)
		f.s.notifier.Notify(notice(f.s, LevelError, "listen.start", fmt.Sprintf("Failed to start listening: %v", err)))
		return err
	}

	f.mu.Lock()
	f.state = FeedListening
	if f.page != 1 {
		f.page = 1
		f.pageSwitch = true
	}
	f.mu.Unlock()
	f.subs.emit()

	f.startPolling()
	return f.Refresh(ctx)
}

// Stop releases the poll timer and asks the server to stop listening. On
// failure the feed reverts to listening and polling resumes.
func (f *Feed) Stop(ctx context.Context) error {
	f.mu.Lock()
	switch f.state {
	case FeedStopped:
		f.mu.Unlock()
		return nil
	case FeedStarting, FeedStopping:
		f.mu.Unlock()
		return ErrInFlight
	}
	f.state = FeedStopping
	f.mu.Unlock()

	f.poller.Stop()
	f.subs.emit()

	if err := f.src.StopListening(ctx); err != nil {
		f.mu.Lock()
		f.state = FeedListening
		f.mu.Unlock()
		f.startPolling()
		f.subs.emit()
		f.s.logger.Error("failed to stop listening", "error", err)
		f.s.notifier.Notify(notice(f.s, LevelError, "listen.stop", fmt.Sprintf("Failed to stop listening: %v", err)))
		return err
	}

	f.mu.Lock()
	f.state = FeedStopped
	f.mu.Unlock()
	f.subs.emit()
	return nil
}

// SetPage switches to page n (1-based) and fetches it. The fetch is never
// shared with a refresh already in flight, so the page shown afterwards is
// the server's answer for n.
func (f *Feed) SetPage(ctx context.Context, n int) error {
	if f.cfg.Mode != FeedPaginated {
		return ErrNotPaginated
	}
	if n < 1 {
		n = 1
	}

	f.mu.Lock()
	if f.totalPages > 0 && n > f.totalPages {
		n = f.totalPages
	}
	if n != f.page {
		f.page = n
		f.pageSwitch = true
	}
	f.mu.Unlock()

	return f.fetch(ctx, n)
}

// Refresh fetches the current page (or the whole feed in accumulate mode).
// Concurrent refreshes of the same page share one request, which runs
// detached from any single caller so one caller giving up does not fail
// the others. A failed fetch leaves the shown items untouched.
func (f *Feed) Refresh(ctx context.Context) error {
	f.mu.Lock()
	page := f.page
	f.mu.Unlock()

	key := "all"
	if f.cfg.Mode == FeedPaginated {
		key = fmt.Sprintf("page-%d", page)
	}

	ch := f.group.DoChan(key, func() (any, error) {
		return nil, f.fetch(context.WithoutCancel(ctx), page)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the poll timer and drops responses still in flight.
// It does not stop the server-side listener.
func (f *Feed) Close() {
	f.poller.Stop()
	f.mu.Lock()
	f.seq++
	f.mu.Unlock()
}

func (f *Feed) Snapshot() FeedSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := FeedSnapshot{
		Mode:        f.cfg.Mode,
		State:       f.state,
		Items:       slices.Clone(f.items),
		Page:        f.page,
		PageSize:    f.cfg.PageSize,
		TotalPages:  f.totalPages,
		Total:       f.total,
		Threats:     f.threats,
		PageChanged: f.pageChanged,
		Loaded:      f.loaded,
		UpdatedAt:   f.updatedAt,
	}
	if f.cfg.Mode == FeedPaginated && f.hasBaseline && f.total > f.baseline {
		snap.NewSinceView = f.total - f.baseline
	}
	if snap.Items == nil {
		snap.Items = []api.FeedItem{}
	}
	return snap
}

func (f *Feed) State() FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Polling reports whether the feed currently holds a poll timer.
func (f *Feed) Polling() bool {
	return f.poller.Active()
}

// Subscribe registers fn to run after every visible change.
func (f *Feed) Subscribe(fn func()) (unsubscribe func()) {
	return f.subs.add(fn)
}

func (f *Feed) startPolling() {
	err := f.poller.Start(func(ctx context.Context) {
		f.mu.Lock()
		page := f.page
		f.mu.Unlock()
		if err := f.fetch(ctx, page); err != nil && ctx.Err() == nil {
			f.s.logger.Warn("background feed refresh failed", "error", err)
		}
	})
	if err != nil {
		f.s.logger.Debug("feed polling already active")
	}
}

// fetch requests page and applies it if no newer fetch started meanwhile
// and the page is still the one on screen. A page that is no longer current
// is skipped without superseding the fetch of the page that is.
func (f *Feed) fetch(ctx context.Context, page int) error {
	f.mu.Lock()
	if f.cfg.Mode == FeedPaginated && page != f.page {
		f.mu.Unlock()
		return nil
	}
	f.seq++
	seq := f.seq
	f.mu.Unlock()

	var (
		res api.FeedPage
		err error
	)
	if f.cfg.Mode == FeedPaginated {
		res, err = f.src.ListeningFeed(ctx, page, f.cfg.PageSize)
	} else {
		res, err = f.src.ListeningFeedAll(ctx)
	}
	if err != nil {
		f.s.logger.Warn("feed fetch failed", "page", page, "error", err)
		return err
	}

	f.mu.Lock()
	if seq != f.seq || (f.cfg.Mode == FeedPaginated && page != f.page) {
		f.mu.Unlock()
		f.s.dropStale("feed")
		return nil
	}
	changed := f.applyLocked(res, page)
	f.mu.Unlock()

	if changed {
		f.subs.emit()
	}
	return nil
}

// applyLocked folds a response into the state and reports whether
// anything visible changed.
func (f *Feed) applyLocked(res api.FeedPage, page int) bool {
	if f.cfg.Mode == FeedAccumulate {
		merged, grew := MergeNewestFirst(f.items, res.Items, func(it api.FeedItem) string { return it.ID })
		if !grew && f.loaded {
			return false
		}
		f.items = merged
		f.loaded = true
		f.total = len(merged)
		f.threats = countThreats(merged)
		f.totalPages = 1
		f.updatedAt = f.s.clock.Now()
		return true
	}

	f.items = res.Items
	f.loaded = true
	f.total = res.Total
	f.totalPages = res.TotalPages
	if f.totalPages < 1 {
		f.totalPages = 1
	}
	f.threats = countThreats(res.Items)
	if page == 1 || !f.hasBaseline {
		f.baseline = res.Total
		f.hasBaseline = true
	}
	f.pageChanged = f.pageSwitch
	f.pageSwitch = false
	f.updatedAt = f.s.clock.Now()
	return true
}

func countThreats(items []api.FeedItem) int {
	n := 0
	for _, it := range items {
		if it.IsThreat() {
			n++
		}
	}
	return n
}
