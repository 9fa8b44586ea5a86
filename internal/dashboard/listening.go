package dashboard

import (
	"context"

	"github.com/kalambet/recapture/internal/api"
	"github.com/kalambet/recapture/internal/viewmodel"
)

// ListeningScreen is the live listening feed plus its promote action.
type ListeningScreen struct {
	Feed *viewmodel.Feed

	client *api.Client
	d      *viewmodel.Dispatcher
}

func NewListeningScreen(c *api.Client, d *viewmodel.Dispatcher, cfg viewmodel.FeedConfig, opts ...viewmodel.Option) *ListeningScreen {
	return &ListeningScreen{
		Feed:   viewmodel.NewFeed(c, cfg, opts...),
		client: c,
		d:      d,
	}
}

// Promote sends a shown feed item to the training inbox. Nothing on this
// screen depends on the inbox, so nothing is refreshed.
func (s *ListeningScreen) Promote(ctx context.Context, itemID string) error {
	var item api.FeedItem
	found := false
	for _, it := range s.Feed.Snapshot().Items {
		if it.ID == itemID {
			item, found = it, true
			break
		}
	}
	if !found {
		return ErrUnknownItem
	}
	return s.d.Dispatch(ctx, viewmodel.Action{
		Name:    "listen.promote",
		Key:     itemID,
		Do:      func(ctx context.Context) error { return s.client.Promote(ctx, item) },
		Success: "Sent to training queue",
	})
}

func (s *ListeningScreen) Close() {
	s.Feed.Close()
}
