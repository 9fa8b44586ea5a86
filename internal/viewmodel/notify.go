package viewmodel

import (
	"log/slog"
	"sync"
	"time"
)

// Level is the severity of a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "info"
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Notice is a visible, non-fatal message for the operator.
type Notice struct {
	Level   Level     `json:"level"`
	Action  string    `json:"action"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier surfaces notices. Implementations must not block.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// LogNotifier writes notices to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(n Notice) {
	lg := l.Logger
	if lg == nil {
		lg = slog.Default()
	}
	if n.Level == LevelError {
		lg.Error(n.Message, "action", n.Action)
		return
	}
	lg.Info(n.Message, "action", n.Action)
}

// Banner keeps the most recent notice for display.
type Banner struct {
	mu   sync.Mutex
	last *Notice
}

func (b *Banner) Notify(n Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = &n
}

// Last returns the latest notice, if any.
func (b *Banner) Last() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return Notice{}, false
	}
	return *b.last, true
}

// Dismiss clears the banner.
func (b *Banner) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = nil
}

// Fanout delivers every notice to each of its notifiers in order.
type Fanout []Notifier

func (f Fanout) Notify(n Notice) {
	for _, x := range f {
		x.Notify(n)
	}
}

func notice(s settings, level Level, action, msg string) Notice {
	return Notice{Level: level, Action: action, Message: msg, At: s.clock.Now()}
}
