package api

import (
	"encoding/json"
	"fmt"
)

// Subject is a monitored individual. Fields the client does not know about
// are kept in Extra and written back unchanged on update.
type Subject struct {
	ID        string
	Name      string
	Age       int
	RiskLevel string
	Notes     string
	Extra     map[string]json.RawMessage
}

var subjectKnownFields = []string{"id", "name", "age", "risk_level", "notes"}

func (s *Subject) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := normalizeIDs(raw, "id"); err != nil {
		return fmt.Errorf("subject: %w", err)
	}

	targets := map[string]any{
		"id":         &s.ID,
		"name":       &s.Name,
		"age":        &s.Age,
		"risk_level": &s.RiskLevel,
		"notes":      &s.Notes,
	}
	for _, k := range subjectKnownFields {
		v, ok := raw[k]
		if !ok {
			continue
		}
		delete(raw, k)
		if string(v) == "null" {
			continue
		}
		if err := json.Unmarshal(v, targets[k]); err != nil {
			return fmt.Errorf("subject field %q: %w", k, err)
		}
	}

	s.Extra = nil
	if len(raw) > 0 {
		s.Extra = raw
	}
	return nil
}

func (s Subject) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+len(subjectKnownFields))
	for k, v := range s.Extra {
		out[k] = v
	}
	if s.ID != "" {
		out["id"] = s.ID
	}
	out["name"] = s.Name
	out["age"] = s.Age
	out["risk_level"] = s.RiskLevel
	if s.Notes != "" {
		out["notes"] = s.Notes
	}
	return json.Marshal(out)
}

// Authority is a trusted figure attached to a subject.
type Authority struct {
	ID        string `json:"id,omitempty"`
	SubjectID string `json:"subject_id,omitempty"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Relation  string `json:"relation"`
}

// RecommendedAuthority is an API-suggested authority with a match score.
type RecommendedAuthority struct {
	Authority
	MatchScore float64 `json:"match_score"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// ContentLog is one piece of monitored activity for a subject.
type ContentLog struct {
	ID             string   `json:"id,omitempty"`
	SubjectID      string   `json:"subject_id"`
	Content        string   `json:"content"`
	SourceURL      string   `json:"source_url,omitempty"`
	Timestamp      string   `json:"timestamp,omitempty"`
	AnalysisID     string   `json:"analysis_id,omitempty"`
	DetectedTrends []string `json:"detected_trends,omitempty"`
	RiskScore      float64  `json:"risk_score,omitempty"`
}

// Source is an intel pipeline source.
type Source struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Type        string `json:"type,omitempty"`
	Status      string `json:"status,omitempty"`
	LastScraped string `json:"last_scraped,omitempty"`
}

// ContentStatus is the server-side lifecycle state of a ContentItem.
type ContentStatus string

const (
	ContentPending   ContentStatus = "pending"
	ContentApproved  ContentStatus = "approved"
	ContentDiscarded ContentStatus = "discarded"
	ContentTrained   ContentStatus = "trained"
)

// ContentItem is ingested text awaiting review in the pipeline inbox.
type ContentItem struct {
	ID              string        `json:"id"`
	SourceID        string        `json:"source_id"`
	Content         string        `json:"content"`
	URL             string        `json:"url,omitempty"`
	Timestamp       string        `json:"timestamp,omitempty"`
	Status          ContentStatus `json:"status"`
	AnalysisSummary string        `json:"analysis_summary,omitempty"`
	RiskScore       float64       `json:"risk_score"`
}

// PipelineStats are knowledge-base document counts.
type PipelineStats struct {
	TotalDocuments int `json:"total_documents"`
}

// TrainResult is returned by the batch training endpoint.
type TrainResult struct {
	Message        string `json:"message"`
	TotalDocuments int    `json:"total_documents"`
}

// Message is the generic {"message": ...} acknowledgement.
type Message struct {
	Message string `json:"message"`
}

// Trend is a detected topic of concern.
type Trend struct {
	ID               string   `json:"id"`
	Topic            string   `json:"topic"`
	Description      string   `json:"description"`
	Severity         string   `json:"severity"`
	CommonPhrases    []string `json:"common_phrases"`
	CounterArguments []string `json:"counter_arguments"`
	Sources          []string `json:"sources"`
}

// FeedItem is one entry of the listening feed.
type FeedItem struct {
	ID                string `json:"id"`
	SourcePlatform    string `json:"source_platform"`
	Author            string `json:"author"`
	Content           string `json:"content"`
	Timestamp         string `json:"timestamp"`
	MatchedTrendID    string `json:"matched_trend_id,omitempty"`
	MatchedTrendTopic string `json:"matched_trend_topic,omitempty"`
	Severity          string `json:"severity"`
	URL               string `json:"url,omitempty"`
}

// IsThreat reports whether the item matched a known trend.
func (f FeedItem) IsThreat() bool {
	return f.MatchedTrendID != ""
}

// FeedPage is one page of the listening feed.
type FeedPage struct {
	Items      []FeedItem `json:"items"`
	Total      int        `json:"total"`
	TotalPages int        `json:"total_pages"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
}

// ListeningStatus reports whether the server-side listener runs.
type ListeningStatus struct {
	Running bool `json:"running"`
}

// CloneStatus is the server-side lifecycle state of a Clone.
type CloneStatus string

const (
	ClonePending CloneStatus = "pending"
	CloneReady   CloneStatus = "ready"
)

// Clone is a simulated conversational persona of a subject.
type Clone struct {
	ID                string         `json:"id"`
	SubjectID         string         `json:"subject_id"`
	Status            CloneStatus    `json:"status"`
	TrainingPostCount int            `json:"training_post_count"`
	PersonalityModel  map[string]any `json:"personality_model,omitempty"`
}

// CommunicationStyle returns personality_model.communication_style if present.
func (c Clone) CommunicationStyle() string {
	s, _ := c.PersonalityModel["communication_style"].(string)
	return s
}

// ConversationMessage is one stored turn of a clone conversation.
type ConversationMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Conversation is a stored clone chat history.
type Conversation struct {
	ID        string                `json:"id"`
	CloneID   string                `json:"clone_id"`
	Messages  []ConversationMessage `json:"messages"`
	CreatedAt string                `json:"created_at,omitempty"`
}

// CloneChatRequest is the body sent to a clone.
type CloneChatRequest struct {
	Message   string `json:"message"`
	SubjectID string `json:"subject_id,omitempty"`
	Language  string `json:"language,omitempty"`
}

// CloneChatReply is the clone's answer with an evaluation of the user's message.
type CloneChatReply struct {
	CloneResponse      string   `json:"clone_response"`
	EffectivenessScore float64  `json:"effectiveness_score"`
	Suggestions        []string `json:"suggestions"`
	ConversationID     string   `json:"conversation_id,omitempty"`
}

// SocialFeed is a social account linked to a subject.
type SocialFeed struct {
	ID        string `json:"id,omitempty"`
	SubjectID string `json:"subject_id,omitempty"`
	Platform  string `json:"platform"`
	Username  string `json:"username"`
	URL       string `json:"url,omitempty"`
}

// SocialPost is a scraped post from a subject's social feed.
type SocialPost struct {
	ID        string `json:"id"`
	Platform  string `json:"platform"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
	URL       string `json:"url,omitempty"`
}

// RiskProfile and RiskAnalysis are scoring payloads whose shape is owned by the server.
type (
	RiskProfile  map[string]any
	RiskAnalysis map[string]any
)

// IngestRequest simulates content captured on a subject's device.
type IngestRequest struct {
	ProfileID string `json:"profile_id"`
	Content   string `json:"content"`
	SourceURL string `json:"source_url,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// AnalysisRequest asks for a one-shot risk analysis of text.
type AnalysisRequest struct {
	Text      string `json:"text"`
	SourceURL string `json:"source_url,omitempty"`
	ProfileID string `json:"profile_id,omitempty"`
}

// Analysis is the result of a one-shot risk analysis.
type Analysis struct {
	ID                  string   `json:"id"`
	RadicalizationScore float64  `json:"radicalization_score"`
	DetectedThemes      []string `json:"detected_themes"`
	Summary             string   `json:"summary"`
}

// ArgumentRequest asks for a persuasive script.
type ArgumentRequest struct {
	Context    string `json:"context,omitempty"`
	ProfileID  string `json:"profile_id,omitempty"`
	AnalysisID string `json:"analysis_id,omitempty"`
	Language   string `json:"language,omitempty"`
}

// Argument is a generated persuasive script.
type Argument struct {
	ArgumentText  string   `json:"argument_text"`
	TalkingPoints []string `json:"talking_points"`
}

// AssistantReply is the general assistant's answer.
type AssistantReply struct {
	Response string `json:"response"`
}
