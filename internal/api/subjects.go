package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

func (c *Client) ListSubjects(ctx context.Context) ([]Subject, error) {
	var out []Subject
	if err := c.get(ctx, "/api/subjects", "/api/subjects", &out); err != nil {
		return nil, fmt.Errorf("listing subjects: %w", err)
	}
	return out, nil
}

func (c *Client) GetSubject(ctx context.Context, id string) (Subject, error) {
	var out Subject
	if err := c.get(ctx, "/api/subjects/{id}", "/api/subjects/"+seg(id), &out); err != nil {
		return Subject{}, fmt.Errorf("getting subject %s: %w", id, err)
	}
	return out, nil
}

func (c *Client) CreateSubject(ctx context.Context, s Subject) (Subject, error) {
	var out Subject
	if err := c.post(ctx, "/api/subjects", "/api/subjects", s, &out); err != nil {
		return Subject{}, fmt.Errorf("creating subject: %w", err)
	}
	return out, nil
}

// UpdateSubject writes s back, including any unknown fields it was read with.
func (c *Client) UpdateSubject(ctx context.Context, s Subject) (Subject, error) {
	var out Subject
	if err := c.put(ctx, "/api/subjects/{id}", "/api/subjects/"+seg(s.ID), s, &out); err != nil {
		return Subject{}, fmt.Errorf("updating subject %s: %w", s.ID, err)
	}
	return out, nil
}

func (c *Client) DeleteSubject(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/api/subjects/{id}", "/api/subjects/"+seg(id)); err != nil {
		return fmt.Errorf("deleting subject %s: %w", id, err)
	}
	return nil
}

// AtRiskSubjects lists subjects flagged for intervention.
func (c *Client) AtRiskSubjects(ctx context.Context) ([]Subject, error) {
	var out []Subject
	if err := c.get(ctx, "/api/subjects/at-risk", "/api/subjects/at-risk", &out); err != nil {
		return nil, fmt.Errorf("listing at-risk subjects: %w", err)
	}
	return out, nil
}

func (c *Client) ListAuthorities(ctx context.Context, subjectID string) ([]Authority, error) {
	var out []Authority
	if err := c.get(ctx, "/api/subjects/{id}/authorities", "/api/subjects/"+seg(subjectID)+"/authorities", &out); err != nil {
		return nil, fmt.Errorf("listing authorities of %s: %w", subjectID, err)
	}
	return out, nil
}

func (c *Client) AddAuthority(ctx context.Context, subjectID string, a Authority) (Authority, error) {
	var out Authority
	if err := c.post(ctx, "/api/subjects/{id}/authorities", "/api/subjects/"+seg(subjectID)+"/authorities", a, &out); err != nil {
		return Authority{}, fmt.Errorf("adding authority to %s: %w", subjectID, err)
	}
	return out, nil
}

func (c *Client) DeleteAuthority(ctx context.Context, subjectID, authorityID string) error {
	path := "/api/subjects/" + seg(subjectID) + "/authorities/" + seg(authorityID)
	if err := c.delete(ctx, "/api/subjects/{id}/authorities/{aid}", path); err != nil {
		return fmt.Errorf("deleting authority %s: %w", authorityID, err)
	}
	return nil
}

func (c *Client) RecommendedAuthorities(ctx context.Context, subjectID string) ([]RecommendedAuthority, error) {
	var out []RecommendedAuthority
	path := "/api/subjects/" + seg(subjectID) + "/recommended-authorities"
	if err := c.get(ctx, "/api/subjects/{id}/recommended-authorities", path, &out); err != nil {
		return nil, fmt.Errorf("recommending authorities for %s: %w", subjectID, err)
	}
	return out, nil
}

// SubjectLogs lists monitored activity for a subject, newest first as served.
func (c *Client) SubjectLogs(ctx context.Context, subjectID string) ([]ContentLog, error) {
	var out []ContentLog
	if err := c.get(ctx, "/api/subjects/{id}/logs", "/api/subjects/"+seg(subjectID)+"/logs", &out); err != nil {
		return nil, fmt.Errorf("listing logs of %s: %w", subjectID, err)
	}
	return out, nil
}

// RiskProfile returns the stored risk profile. A subject without one
// yields an error for which IsNotFound is true.
func (c *Client) RiskProfile(ctx context.Context, subjectID string) (RiskProfile, error) {
	var out RiskProfile
	if err := c.get(ctx, "/api/subjects/{id}/risk-profile", "/api/subjects/"+seg(subjectID)+"/risk-profile", &out); err != nil {
		return nil, fmt.Errorf("getting risk profile of %s: %w", subjectID, err)
	}
	return out, nil
}

// GenerateRiskProfile asks the server to (re)compute the risk profile.
func (c *Client) GenerateRiskProfile(ctx context.Context, subjectID string) (RiskProfile, error) {
	var out RiskProfile
	if err := c.post(ctx, "/api/subjects/{id}/risk-profile", "/api/subjects/"+seg(subjectID)+"/risk-profile", nil, &out); err != nil {
		return nil, fmt.Errorf("generating risk profile of %s: %w", subjectID, err)
	}
	return out, nil
}

func (c *Client) RiskAnalysis(ctx context.Context, subjectID string) (RiskAnalysis, error) {
	var out RiskAnalysis
	if err := c.get(ctx, "/api/subjects/{id}/risk-analysis", "/api/subjects/"+seg(subjectID)+"/risk-analysis", &out); err != nil {
		return nil, fmt.Errorf("getting risk analysis of %s: %w", subjectID, err)
	}
	return out, nil
}

// ScrapeFeeds triggers a scrape of every social feed linked to the subject.
func (c *Client) ScrapeFeeds(ctx context.Context, subjectID string) error {
	if err := c.post(ctx, "/api/subjects/{id}/scrape-feeds", "/api/subjects/"+seg(subjectID)+"/scrape-feeds", nil, nil); err != nil {
		return fmt.Errorf("scraping feeds of %s: %w", subjectID, err)
	}
	return nil
}

func (c *Client) SocialFeeds(ctx context.Context, subjectID string) ([]SocialFeed, error) {
	var out []SocialFeed
	if err := c.get(ctx, "/api/subjects/{id}/social-feeds", "/api/subjects/"+seg(subjectID)+"/social-feeds", &out); err != nil {
		return nil, fmt.Errorf("listing social feeds of %s: %w", subjectID, err)
	}
	return out, nil
}

func (c *Client) AddSocialFeed(ctx context.Context, subjectID string, f SocialFeed) (SocialFeed, error) {
	var out SocialFeed
	if err := c.post(ctx, "/api/subjects/{id}/social-feeds", "/api/subjects/"+seg(subjectID)+"/social-feeds", f, &out); err != nil {
		return SocialFeed{}, fmt.Errorf("adding social feed to %s: %w", subjectID, err)
	}
	return out, nil
}

// SocialPosts lists up to limit scraped posts. limit <= 0 leaves it to the server.
func (c *Client) SocialPosts(ctx context.Context, subjectID string, limit int) ([]SocialPost, error) {
	path := "/api/subjects/" + seg(subjectID) + "/social-posts"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	var out []SocialPost
	if err := c.get(ctx, "/api/subjects/{id}/social-posts", path, &out); err != nil {
		return nil, fmt.Errorf("listing social posts of %s: %w", subjectID, err)
	}
	return out, nil
}
