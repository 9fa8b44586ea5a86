package viewmodel

import (
	"log/slog"
	"sync"
)

// StaleObserver is told whenever a superseded response is dropped.
type StaleObserver interface {
	ObserveStale(controller string)
}

type settings struct {
	logger   *slog.Logger
	clock    Clock
	notifier Notifier
	stale    StaleObserver
}

func newSettings(opts []Option) settings {
	s := settings{
		logger: slog.Default(),
		clock:  realClock{},
	}
	for _, o := range opts {
		o(&s)
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{Logger: s.logger}
	}
	return s
}

func (s settings) dropStale(controller string) {
	s.logger.Debug("dropping stale response", "controller", controller)
	if s.stale != nil {
		s.stale.ObserveStale(controller)
	}
}

// Option configures a controller.
type Option func(*settings)

func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

func WithClock(c Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithNotifier routes user-visible notices to n. Defaults to logging them.
func WithNotifier(n Notifier) Option {
	return func(s *settings) { s.notifier = n }
}

func WithStaleObserver(o StaleObserver) Option {
	return func(s *settings) { s.stale = o }
}

// subscribers fans change notifications out to registered callbacks.
// Callbacks run on the goroutine that changed the state, never under its lock.
type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func()
}

func (s *subscribers) add(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func())
	}
	id := s.next
	s.next++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.fns, id)
		s.mu.Unlock()
	}
}

func (s *subscribers) emit() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
