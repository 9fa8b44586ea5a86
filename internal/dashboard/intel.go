package dashboard

import (
	"context"
	"time"

	"github.com/kalambet/recapture/internal/api"
	"github.com/kalambet/recapture/internal/viewmodel"
)

// IntelCenter is the threat-intelligence workspace: sources, topics, the
// review inbox, model stats, trends, and per-profile activity logs.
type IntelCenter struct {
	Sources  *viewmodel.Resource[[]api.Source]
	Topics   *viewmodel.Resource[[]string]
	Content  *viewmodel.Resource[[]api.ContentItem]
	Stats    *viewmodel.Resource[api.PipelineStats]
	Trends   *viewmodel.Resource[[]api.Trend]
	Profiles *viewmodel.SelectableList[api.Subject, api.ContentLog]

	client *api.Client
	d      *viewmodel.Dispatcher
}

// NewIntelCenter builds the screen. logsPoll > 0 re-fetches the selected
// profile's logs at that interval.
func NewIntelCenter(c *api.Client, d *viewmodel.Dispatcher, logsPoll time.Duration, opts ...viewmodel.Option) *IntelCenter {
	return &IntelCenter{
		Sources: viewmodel.NewResource("sources", c.ListSources, opts...),
		Topics:  viewmodel.NewResource("topics", c.ListTopics, opts...),
		Content: viewmodel.NewResource("content", c.PipelineContent, opts...),
		Stats:   viewmodel.NewResource("stats", c.PipelineStats, opts...),
		Trends:  viewmodel.NewResource("trends", c.ListTrends, opts...),
		Profiles: viewmodel.NewSelectableList(viewmodel.ListConfig[api.Subject, api.ContentLog]{
			Name:            "profiles",
			Fetch:           c.ListSubjects,
			Key:             func(s api.Subject) string { return s.ID },
			FetchDependents: c.SubjectLogs,
			PollDependents:  logsPoll,
		}, opts...),
		client: c,
		d:      d,
	}
}

// Load fetches every collection concurrently. Each failure is logged by
// its collection; the joined error is returned for display.
func (ic *IntelCenter) Load(ctx context.Context) error {
	return fanout(ctx,
		ic.Sources.Refresh,
		ic.Topics.Refresh,
		ic.Content.Refresh,
		ic.Stats.Refresh,
		ic.Trends.Refresh,
		ic.Profiles.Load,
	)
}

func (ic *IntelCenter) Approve(ctx context.Context, id string) error {
	return ic.d.Dispatch(ctx, viewmodel.Action{
		Name:    "content.approve",
		Key:     id,
		Do:      func(ctx context.Context) error { return ic.client.ApproveContent(ctx, id) },
		Refresh: []viewmodel.Refresher{ic.Content},
	})
}

func (ic *IntelCenter) Discard(ctx context.Context, id string) error {
	return ic.d.Dispatch(ctx, viewmodel.Action{
		Name:    "content.discard",
		Key:     id,
		Do:      func(ctx context.Context) error { return ic.client.DiscardContent(ctx, id) },
		Refresh: []viewmodel.Refresher{ic.Content},
	})
}

// TrainBatch trains on approved content, then reloads the inbox and stats.
func (ic *IntelCenter) TrainBatch(ctx context.Context) (api.TrainResult, error) {
	var res api.TrainResult
	err := ic.d.Dispatch(ctx, viewmodel.Action{
		Name: "pipeline.train",
		Do: func(ctx context.Context) error {
			var err error
			res, err = ic.client.TrainBatch(ctx)
			return err
		},
		Refresh: []viewmodel.Refresher{ic.Content, ic.Stats},
	})
	return res, err
}

func (ic *IntelCenter) RunPipeline(ctx context.Context) error {
	return ic.d.Dispatch(ctx, viewmodel.Action{
		Name: "pipeline.run",
		Do: func(ctx context.Context) error {
			_, err := ic.client.RunPipeline(ctx)
			return err
		},
		Refresh: []viewmodel.Refresher{ic.Content},
		Success: "Pipeline run complete",
	})
}

func (ic *IntelCenter) AddSource(ctx context.Context, src api.Source) error {
	if src.Name == "" {
		src.Name = src.URL
	}
	return ic.d.Dispatch(ctx, viewmodel.Action{
		Name: "sources.add",
		Key:  src.URL,
		Do: func(ctx context.Context) error {
			_, err := ic.client.AddSource(ctx, src)
			return err
		},
		Refresh: []viewmodel.Refresher{ic.Sources},
	})
}

func (ic *IntelCenter) DeleteSource(ctx context.Context, id string) error {
	return ic.d.Dispatch(ctx, viewmodel.Action{
		Name:    "sources.delete",
		Key:     id,
		Do:      func(ctx context.Context) error { return ic.client.DeleteSource(ctx, id) },
		Refresh: []viewmodel.Refresher{ic.Sources},
	})
}

func (ic *IntelCenter) AddTopic(ctx context.Context, topic string) error {
	return ic.d.Dispatch(ctx, viewmodel.Action{
		Name:    "topics.add",
		Key:     topic,
		Do:      func(ctx context.Context) error { return ic.client.AddTopic(ctx, topic) },
		Refresh: []viewmodel.Refresher{ic.Topics},
	})
}

func (ic *IntelCenter) RefreshTrends(ctx context.Context) error {
	return ic.d.Dispatch(ctx, viewmodel.Action{
		Name:    "trends.refresh",
		Do:      ic.client.RefreshTrends,
		Refresh: []viewmodel.Refresher{ic.Trends},
	})
}

// QueueTrend sends a trend to the training inbox.
func (ic *IntelCenter) QueueTrend(ctx context.Context, id string) error {
	return ic.d.Dispatch(ctx, viewmodel.Action{
		Name:    "trends.queue",
		Key:     id,
		Do:      func(ctx context.Context) error { return ic.client.QueueTrend(ctx, id) },
		Refresh: []viewmodel.Refresher{ic.Trends, ic.Content},
		Success: "Trend queued for training",
	})
}

// Ingest submits content for the selected profile and reloads its logs.
func (ic *IntelCenter) Ingest(ctx context.Context, content, sourceURL string, at time.Time) error {
	profile := ic.Profiles.Selected()
	if profile == "" {
		return ErrNoSelection
	}
	req := api.IngestRequest{
		ProfileID: profile,
		Content:   content,
		SourceURL: sourceURL,
		Timestamp: at.UTC().Format(time.RFC3339),
	}
	return ic.d.Dispatch(ctx, viewmodel.Action{
		Name: "scanner.ingest",
		Key:  profile,
		Do: func(ctx context.Context) error {
			_, err := ic.client.Ingest(ctx, req)
			return err
		},
		Refresh: []viewmodel.Refresher{ic.Profiles.DependentsRefresher()},
	})
}

// Summary is the derived header of the intel screen.
type Summary struct {
	Pending        int     `json:"pending"`
	Approved       int     `json:"approved"`
	Discarded      int     `json:"discarded"`
	Trained        int     `json:"trained"`
	TotalDocuments int     `json:"total_documents"`
	Logs           int     `json:"logs"`
	AverageRisk    float64 `json:"average_risk"`
}

// Summary derives counts from the collections currently held.
func (ic *IntelCenter) Summary() Summary {
	var s Summary
	content, _ := ic.Content.Get()
	for _, it := range content {
		switch it.Status {
		case api.ContentPending:
			s.Pending++
		case api.ContentApproved:
			s.Approved++
		case api.ContentDiscarded:
			s.Discarded++
		case api.ContentTrained:
			s.Trained++
		}
	}
	stats, _ := ic.Stats.Get()
	s.TotalDocuments = stats.TotalDocuments

	logs := ic.Profiles.Dependents()
	s.Logs = len(logs)
	if len(logs) > 0 {
		var sum float64
		for _, l := range logs {
			sum += l.RiskScore
		}
		s.AverageRisk = sum / float64(len(logs))
	}
	return s
}

func (ic *IntelCenter) Close() {
	ic.Profiles.Close()
}
