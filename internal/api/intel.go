package api

import (
	"context"
	"fmt"
	"net/url"
)

func (c *Client) ListSources(ctx context.Context) ([]Source, error) {
	var out []Source
	if err := c.get(ctx, "/sources", "/sources", &out); err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	return out, nil
}

func (c *Client) AddSource(ctx context.Context, s Source) (Source, error) {
	var out Source
	if err := c.post(ctx, "/sources", "/sources", s, &out); err != nil {
		return Source{}, fmt.Errorf("adding source: %w", err)
	}
	return out, nil
}

func (c *Client) DeleteSource(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/sources/{id}", "/sources/"+seg(id)); err != nil {
		return fmt.Errorf("deleting source %s: %w", id, err)
	}
	return nil
}

func (c *Client) ListTopics(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.get(ctx, "/topics", "/topics", &out); err != nil {
		return nil, fmt.Errorf("listing topics: %w", err)
	}
	return out, nil
}

// AddTopic registers a monitored topic. The server takes it as a query parameter.
func (c *Client) AddTopic(ctx context.Context, topic string) error {
	path := "/topics?" + url.Values{"topic": {topic}}.Encode()
	if err := c.post(ctx, "/topics", path, nil, nil); err != nil {
		return fmt.Errorf("adding topic: %w", err)
	}
	return nil
}

// PipelineContent lists the inbox, each item carrying its status.
func (c *Client) PipelineContent(ctx context.Context) ([]ContentItem, error) {
	var out []ContentItem
	if err := c.get(ctx, "/pipeline/content", "/pipeline/content", &out); err != nil {
		return nil, fmt.Errorf("listing pipeline content: %w", err)
	}
	return out, nil
}

func (c *Client) ApproveContent(ctx context.Context, id string) error {
	if err := c.post(ctx, "/pipeline/content/{id}/approve", "/pipeline/content/"+seg(id)+"/approve", nil, nil); err != nil {
		return fmt.Errorf("approving content %s: %w", id, err)
	}
	return nil
}

func (c *Client) DiscardContent(ctx context.Context, id string) error {
	if err := c.post(ctx, "/pipeline/content/{id}/discard", "/pipeline/content/"+seg(id)+"/discard", nil, nil); err != nil {
		return fmt.Errorf("discarding content %s: %w", id, err)
	}
	return nil
}

// RunPipeline scrapes every active source into the inbox.
func (c *Client) RunPipeline(ctx context.Context) (Message, error) {
	var out Message
	if err := c.post(ctx, "/pipeline/run", "/pipeline/run", nil, &out); err != nil {
		return Message{}, fmt.Errorf("running pipeline: %w", err)
	}
	return out, nil
}

// TrainBatch trains the knowledge base on every approved item.
func (c *Client) TrainBatch(ctx context.Context) (TrainResult, error) {
	var out TrainResult
	if err := c.post(ctx, "/pipeline/train-batch", "/pipeline/train-batch", nil, &out); err != nil {
		return TrainResult{}, fmt.Errorf("training batch: %w", err)
	}
	return out, nil
}

func (c *Client) PipelineStats(ctx context.Context) (PipelineStats, error) {
	var out PipelineStats
	if err := c.get(ctx, "/pipeline/stats", "/pipeline/stats", &out); err != nil {
		return PipelineStats{}, fmt.Errorf("getting pipeline stats: %w", err)
	}
	return out, nil
}

func (c *Client) ListTrends(ctx context.Context) ([]Trend, error) {
	var out []Trend
	if err := c.get(ctx, "/trends", "/trends", &out); err != nil {
		return nil, fmt.Errorf("listing trends: %w", err)
	}
	return out, nil
}

func (c *Client) RefreshTrends(ctx context.Context) error {
	if err := c.post(ctx, "/trends/refresh", "/trends/refresh", nil, nil); err != nil {
		return fmt.Errorf("refreshing trends: %w", err)
	}
	return nil
}

// QueueTrend sends a trend's material to the training inbox.
func (c *Client) QueueTrend(ctx context.Context, id string) error {
	if err := c.post(ctx, "/trends/{id}/queue", "/trends/"+seg(id)+"/queue", nil, nil); err != nil {
		return fmt.Errorf("queueing trend %s: %w", id, err)
	}
	return nil
}
