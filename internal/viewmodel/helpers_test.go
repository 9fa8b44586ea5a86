package viewmodel

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock hands out tickers that only fire when Tick is called.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers map[*fakeTicker]struct{}
}

func newFakeClock() *fakeClock {
	return &fakeClock{
		now:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		tickers: make(map[*fakeTicker]struct{}),
	}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(time.Duration) Ticker {
	t := &fakeTicker{clock: c, ch: make(chan time.Time), stopped: make(chan struct{})}
	c.mu.Lock()
	c.tickers[t] = struct{}{}
	c.mu.Unlock()
	return t
}

// Tick advances the clock by one second and delivers a tick to every
// active ticker. It returns how many tickers took the tick.
func (c *fakeClock) Tick() int {
	c.mu.Lock()
	c.now = c.now.Add(time.Second)
	now := c.now
	active := make([]*fakeTicker, 0, len(c.tickers))
	for t := range c.tickers {
		active = append(active, t)
	}
	c.mu.Unlock()

	n := 0
	for _, t := range active {
		select {
		case t.ch <- now:
			n++
		case <-t.stopped:
		}
	}
	return n
}

// Active returns the number of tickers not yet stopped.
func (c *fakeClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

type fakeTicker struct {
	clock   *fakeClock
	ch      chan time.Time
	once    sync.Once
	stopped chan struct{}
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.once.Do(func() {
		close(t.stopped)
		t.clock.mu.Lock()
		delete(t.clock.tickers, t)
		t.clock.mu.Unlock()
	})
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// gate blocks a fake call until released.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *gate) wait() {
	g.entered <- struct{}{}
	<-g.release
}

// waitCtx is wait that gives up when ctx is done.
func (g *gate) waitCtx(ctx context.Context) error {
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) awaitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(time.Second):
		t.Fatal("call never started")
	}
}

func (g *gate) open() { close(g.release) }

// countingNotifier records notices.
type countingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *countingNotifier) Notify(x Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, x)
}

func (n *countingNotifier) all() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}
