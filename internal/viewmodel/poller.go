package viewmodel

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimerActive is returned when a poll cycle is started while one runs.
var ErrTimerActive = errors.New("poll timer already active")

// Poller owns at most one repeating task. The ticker is acquired in Start
// and released by Stop on every path: explicit stop, listening flag off,
// or controller teardown.
type Poller struct {
	clock    Clock
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(clock Clock, interval time.Duration) *Poller {
	if clock == nil {
		clock = realClock{}
	}
	return &Poller{clock: clock, interval: interval}
}

// Start runs fn on every tick until Stop. fn receives a context that is
// cancelled by Stop and must not call Stop itself.
func (p *Poller) Start(fn func(ctx context.Context)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return ErrTimerActive
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := p.clock.NewTicker(p.interval)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done

	go func() {
		defer close(done)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C():
				fn(ctx)
			}
		}
	}()
	return nil
}

// Stop cancels the task and waits for it to exit. Safe to call when idle.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Active reports whether a ticker is currently held.
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}
