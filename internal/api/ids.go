package api

import (
	"encoding/json"
	"fmt"
)

// Backends disagree on identifier types: some emit UUID strings, others
// integer primary keys. Entities keep IDs as strings and accept both.

// normalizeIDs rewrites numeric values of the named fields as JSON strings.
func normalizeIDs(raw map[string]json.RawMessage, fields ...string) error {
	for _, k := range fields {
		v, ok := raw[k]
		if !ok || len(v) == 0 || v[0] == '"' || string(v) == "null" {
			continue
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err != nil {
			return fmt.Errorf("field %q: want string or number, got %s", k, v)
		}
		s, err := json.Marshal(n.String())
		if err != nil {
			return err
		}
		raw[k] = s
	}
	return nil
}

// decodeEntity decodes data into v, a method-free alias of an entity type,
// after normalizing its identifier fields.
func decodeEntity(data []byte, v any, fields ...string) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := normalizeIDs(raw, fields...); err != nil {
		return err
	}
	fixed, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(fixed, v)
}

func (a *Authority) UnmarshalJSON(data []byte) error {
	type plain Authority
	return decodeEntity(data, (*plain)(a), "id", "subject_id")
}

func (r *RecommendedAuthority) UnmarshalJSON(data []byte) error {
	if err := r.Authority.UnmarshalJSON(data); err != nil {
		return err
	}
	var score struct {
		MatchScore float64 `json:"match_score"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := json.Unmarshal(data, &score); err != nil {
		return err
	}
	r.MatchScore, r.Reasoning = score.MatchScore, score.Reasoning
	return nil
}

func (l *ContentLog) UnmarshalJSON(data []byte) error {
	type plain ContentLog
	return decodeEntity(data, (*plain)(l), "id", "subject_id", "analysis_id")
}

func (s *Source) UnmarshalJSON(data []byte) error {
	type plain Source
	return decodeEntity(data, (*plain)(s), "id")
}

func (c *ContentItem) UnmarshalJSON(data []byte) error {
	type plain ContentItem
	return decodeEntity(data, (*plain)(c), "id", "source_id")
}

func (t *Trend) UnmarshalJSON(data []byte) error {
	type plain Trend
	return decodeEntity(data, (*plain)(t), "id")
}

func (f *FeedItem) UnmarshalJSON(data []byte) error {
	type plain FeedItem
	return decodeEntity(data, (*plain)(f), "id", "matched_trend_id")
}

func (c *Clone) UnmarshalJSON(data []byte) error {
	type plain Clone
	return decodeEntity(data, (*plain)(c), "id", "subject_id")
}

func (c *Conversation) UnmarshalJSON(data []byte) error {
	type plain Conversation
	return decodeEntity(data, (*plain)(c), "id", "clone_id")
}

func (r *CloneChatReply) UnmarshalJSON(data []byte) error {
	type plain CloneChatReply
	return decodeEntity(data, (*plain)(r), "conversation_id")
}

func (f *SocialFeed) UnmarshalJSON(data []byte) error {
	type plain SocialFeed
	return decodeEntity(data, (*plain)(f), "id", "subject_id")
}

func (p *SocialPost) UnmarshalJSON(data []byte) error {
	type plain SocialPost
	return decodeEntity(data, (*plain)(p), "id")
}

func (a *Analysis) UnmarshalJSON(data []byte) error {
	type plain Analysis
	return decodeEntity(data, (*plain)(a), "id")
}
