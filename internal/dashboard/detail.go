package dashboard

import (
	"context"

	"github.com/kalambet/recapture/internal/api"
	"github.com/kalambet/recapture/internal/viewmodel"
)

// PostsLimit is how many social posts the detail screen shows.
const PostsLimit = 50

// SubjectDetail shows one subject with its social data and risk profile.
type SubjectDetail struct {
	ID      string
	Subject *viewmodel.Resource[api.Subject]
	Feeds   *viewmodel.Resource[[]api.SocialFeed]
	Posts   *viewmodel.Resource[[]api.SocialPost]
	// Risk holds nil until the server has generated a profile.
	Risk *viewmodel.Resource[api.RiskProfile]

	client *api.Client
	d      *viewmodel.Dispatcher
}

func NewSubjectDetail(c *api.Client, d *viewmodel.Dispatcher, id string, opts ...viewmodel.Option) *SubjectDetail {
	return &SubjectDetail{
		ID: id,
		Subject: viewmodel.NewResource("subject", func(ctx context.Context) (api.Subject, error) {
			return c.GetSubject(ctx, id)
		}, opts...),
		Feeds: viewmodel.NewResource("social-feeds", func(ctx context.Context) ([]api.SocialFeed, error) {
			return c.SocialFeeds(ctx, id)
		}, opts...),
		Posts: viewmodel.NewResource("social-posts", func(ctx context.Context) ([]api.SocialPost, error) {
			return c.SocialPosts(ctx, id, PostsLimit)
		}, opts...),
		Risk: viewmodel.NewResource("risk-profile", func(ctx context.Context) (api.RiskProfile, error) {
			p, err := c.RiskProfile(ctx, id)
			if api.IsNotFound(err) {
				return nil, nil
			}
			return p, err
		}, opts...),
		client: c,
		d:      d,
	}
}

// Load fetches all four parts concurrently.
func (s *SubjectDetail) Load(ctx context.Context) error {
	return fanout(ctx, s.Subject.Refresh, s.Feeds.Refresh, s.Posts.Refresh, s.Risk.Refresh)
}

// HasRiskProfile reports whether a profile has been generated.
func (s *SubjectDetail) HasRiskProfile() bool {
	p, _ := s.Risk.Get()
	return p != nil
}

// ScrapeFeeds scrapes the subject's social feeds and reloads the screen.
func (s *SubjectDetail) ScrapeFeeds(ctx context.Context) error {
	return s.d.Dispatch(ctx, viewmodel.Action{
		Name:    "subject.scrape",
		Key:     s.ID,
		Do:      func(ctx context.Context) error { return s.client.ScrapeFeeds(ctx, s.ID) },
		Refresh: []viewmodel.Refresher{s.Feeds, s.Posts, s.Risk},
		Success: "Feeds scraped",
	})
}

// GenerateRiskProfile computes the risk profile and reloads the screen.
func (s *SubjectDetail) GenerateRiskProfile(ctx context.Context) error {
	return s.d.Dispatch(ctx, viewmodel.Action{
		Name: "subject.risk",
		Key:  s.ID,
		Do: func(ctx context.Context) error {
			_, err := s.client.GenerateRiskProfile(ctx, s.ID)
			return err
		},
		Refresh: []viewmodel.Refresher{s.Risk},
	})
}

func (s *SubjectDetail) AddSocialFeed(ctx context.Context, f api.SocialFeed) error {
	return s.d.Dispatch(ctx, viewmodel.Action{
		Name: "subject.feed.add",
		Key:  s.ID + "/" + f.Platform + "/" + f.Username,
		Do: func(ctx context.Context) error {
			_, err := s.client.AddSocialFeed(ctx, s.ID, f)
			return err
		},
		Refresh: []viewmodel.Refresher{s.Feeds},
	})
}
