package api

import (
	"context"
	"fmt"
)

// Ingest submits content as if captured on the subject's device.
func (c *Client) Ingest(ctx context.Context, req IngestRequest) (ContentLog, error) {
	var out ContentLog
	if err := c.post(ctx, "/api/scanner/ingest", "/api/scanner/ingest", req, &out); err != nil {
		return ContentLog{}, fmt.Errorf("ingesting content: %w", err)
	}
	return out, nil
}

func (c *Client) Analyze(ctx context.Context, req AnalysisRequest) (Analysis, error) {
	var out Analysis
	if err := c.post(ctx, "/analyze", "/analyze", req, &out); err != nil {
		return Analysis{}, fmt.Errorf("analyzing content: %w", err)
	}
	return out, nil
}

func (c *Client) GenerateArgument(ctx context.Context, req ArgumentRequest) (Argument, error) {
	var out Argument
	if err := c.post(ctx, "/api/generate-argument", "/api/generate-argument", req, &out); err != nil {
		return Argument{}, fmt.Errorf("generating argument: %w", err)
	}
	return out, nil
}

// Ask sends a question to the general assistant.
func (c *Client) Ask(ctx context.Context, query string) (AssistantReply, error) {
	var out AssistantReply
	if err := c.post(ctx, "/chat", "/chat", map[string]string{"query": query}, &out); err != nil {
		return AssistantReply{}, fmt.Errorf("asking assistant: %w", err)
	}
	return out, nil
}
