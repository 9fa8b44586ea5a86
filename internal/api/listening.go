package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ListeningFeed returns one page of the feed. page is 1-based.
func (c *Client) ListeningFeed(ctx context.Context, page, pageSize int) (FeedPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	var out FeedPage
	if err := c.get(ctx, "/api/listening/feed", "/api/listening/feed?"+q.Encode(), &out); err != nil {
		return FeedPage{}, fmt.Errorf("fetching listening feed page %d: %w", page, err)
	}
	return out, nil
}

// ListeningFeedAll returns the whole feed, newest first.
func (c *Client) ListeningFeedAll(ctx context.Context) (FeedPage, error) {
	var out FeedPage
	if err := c.get(ctx, "/api/listening/feed", "/api/listening/feed", &out); err != nil {
		return FeedPage{}, fmt.Errorf("fetching listening feed: %w", err)
	}
	return out, nil
}

func (c *Client) ListeningStatus(ctx context.Context) (ListeningStatus, error) {
	var out ListeningStatus
	if err := c.get(ctx, "/api/listening/status", "/api/listening/status", &out); err != nil {
		return ListeningStatus{}, fmt.Errorf("getting listening status: %w", err)
	}
	return out, nil
}

func (c *Client) StartListening(ctx context.Context) error {
	if err := c.post(ctx, "/api/listening/start", "/api/listening/start", nil, nil); err != nil {
		return fmt.Errorf("starting listener: %w", err)
	}
	return nil
}

func (c *Client) StopListening(ctx context.Context) error {
	if err := c.post(ctx, "/api/listening/stop", "/api/listening/stop", nil, nil); err != nil {
		return fmt.Errorf("stopping listener: %w", err)
	}
	return nil
}

// Promote sends a feed item to the training inbox.
func (c *Client) Promote(ctx context.Context, item FeedItem) error {
	if err := c.post(ctx, "/api/listening/promote", "/api/listening/promote", item, nil); err != nil {
		return fmt.Errorf("promoting feed item %s: %w", item.ID, err)
	}
	return nil
}
