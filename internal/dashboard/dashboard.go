// Package dashboard composes view-model controllers into the operator's
// screens and binds every action to the collections it invalidates.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/recapture/internal/api"
	"github.com/kalambet/recapture/internal/viewmodel"
)

var (
	// ErrNoSelection is returned by actions that need a selected parent.
	ErrNoSelection = errors.New("nothing selected")
	// ErrNoClone is returned when a subject has no digital clone yet.
	ErrNoClone = errors.New("subject has no clone")
	// ErrUnknownItem is returned when an action names an item not on screen.
	ErrUnknownItem = errors.New("item not shown")
)

// Config tunes the screens.
type Config struct {
	FeedMode     viewmodel.FeedMode
	FeedPageSize int
	FeedPoll     time.Duration
	LogsPoll     time.Duration

	Logger   *slog.Logger
	Clock    viewmodel.Clock
	Observer Observer
	// Notifier receives notices in addition to the dashboard banner.
	Notifier viewmodel.Notifier
}

// Observer collects action and stale-response metrics.
type Observer interface {
	viewmodel.ActionObserver
	viewmodel.StaleObserver
}

// Dashboard holds every screen over one API client.
type Dashboard struct {
	Subjects  *SubjectsScreen
	Intel     *IntelCenter
	Clones    *CloneLab
	Listening *ListeningScreen

	Dispatcher *viewmodel.Dispatcher
	Banner     *viewmodel.Banner

	client *api.Client
	opts   []viewmodel.Option
}

func New(client *api.Client, cfg Config) *Dashboard {
	banner := &viewmodel.Banner{}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	notifier := viewmodel.Fanout{banner, viewmodel.LogNotifier{Logger: logger}}
	if cfg.Notifier != nil {
		notifier = append(notifier, cfg.Notifier)
	}

	opts := []viewmodel.Option{
		viewmodel.WithLogger(logger),
		viewmodel.WithNotifier(notifier),
	}
	if cfg.Clock != nil {
		opts = append(opts, viewmodel.WithClock(cfg.Clock))
	}
	var actions viewmodel.ActionObserver
	if cfg.Observer != nil {
		opts = append(opts, viewmodel.WithStaleObserver(cfg.Observer))
		actions = cfg.Observer
	}

	d := viewmodel.NewDispatcher(actions, opts...)
	return &Dashboard{
		Subjects: NewSubjectsScreen(client, d, opts...),
		Intel:    NewIntelCenter(client, d, cfg.LogsPoll, opts...),
		Clones:   NewCloneLab(client, d, opts...),
		Listening: NewListeningScreen(client, d, viewmodel.FeedConfig{
			Mode:         cfg.FeedMode,
			PageSize:     cfg.FeedPageSize,
			PollInterval: cfg.FeedPoll,
		}, opts...),
		Dispatcher: d,
		Banner:     banner,
		client:     client,
		opts:       opts,
	}
}

// Client returns the API client the screens share.
func (d *Dashboard) Client() *api.Client { return d.client }

// Assistant opens a general assistant chat session.
func (d *Dashboard) Assistant() *viewmodel.ChatSession {
	return viewmodel.NewChatSession(viewmodel.AssistantBackend(d.client), viewmodel.RoleAssistant, d.opts...)
}

// Detail opens the detail screen of one subject.
func (d *Dashboard) Detail(subjectID string) *SubjectDetail {
	return NewSubjectDetail(d.client, d.Dispatcher, subjectID, d.opts...)
}

// Close releases every timer the screens hold.
func (d *Dashboard) Close() {
	d.Subjects.Close()
	d.Intel.Close()
	d.Listening.Close()
}

// fanout runs every fn concurrently and joins their errors. One failing
// fetch does not cancel the others.
func fanout(ctx context.Context, fns ...func(context.Context) error) error {
	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	for _, fn := range fns {
		g.Go(func() error {
			if err := fn(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
