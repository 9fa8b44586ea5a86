package viewmodel

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/recapture/internal/api"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleClone     Role = "clone"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one transcript entry. A user message whose send failed
// keeps its identity and carries the failure in Error.
type ChatMessage struct {
	ID          string    `json:"id"`
	Role        Role      `json:"role"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	Score       *float64  `json:"effectiveness_score,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// ChatReply is what a backend returns for one turn.
type ChatReply struct {
	Content     string
	Score       *float64
	Suggestions []string
}

// ChatBackend sends one user message and returns the other party's reply.
type ChatBackend interface {
	Send(ctx context.Context, text string) (ChatReply, error)
}

// ChatBackendFunc adapts a function to ChatBackend.
type ChatBackendFunc func(ctx context.Context, text string) (ChatReply, error)

func (f ChatBackendFunc) Send(ctx context.Context, text string) (ChatReply, error) {
	return f(ctx, text)
}

// CloneChatter is the clone chat API. *api.Client satisfies it.
type CloneChatter interface {
	ChatWithClone(ctx context.Context, cloneID string, req api.CloneChatRequest) (api.CloneChatReply, error)
}

// CloneBackend talks to a subject's digital clone. language is read on
// every send so a preference change applies to the next turn.
func CloneBackend(c CloneChatter, cloneID, subjectID string, language func() string) ChatBackend {
	return ChatBackendFunc(func(ctx context.Context, text string) (ChatReply, error) {
		req := api.CloneChatRequest{Message: text, SubjectID: subjectID}
		if language != nil {
			req.Language = language()
		}
		res, err := c.ChatWithClone(ctx, cloneID, req)
		if err != nil {
			return ChatReply{}, err
		}
		score := res.EffectivenessScore
		return ChatReply{Content: res.CloneResponse, Score: &score, Suggestions: res.Suggestions}, nil
	})
}

// Asker is the general assistant API. *api.Client satisfies it.
type Asker interface {
	Ask(ctx context.Context, query string) (api.AssistantReply, error)
}

func AssistantBackend(a Asker) ChatBackend {
	return ChatBackendFunc(func(ctx context.Context, text string) (ChatReply, error) {
		res, err := a.Ask(ctx, text)
		if err != nil {
			return ChatReply{}, err
		}
		return ChatReply{Content: res.Response}, nil
	})
}

// ChatSession is a transcript with optimistic local echo of user messages.
type ChatSession struct {
	backend   ChatBackend
	replyRole Role
	s         settings
	subs      subscribers

	mu              sync.Mutex
	messages        []ChatMessage
	inflight        bool
	lastScore       *float64
	lastSuggestions []string
}

// NewChatSession creates an empty session. Replies are recorded with replyRole.
func NewChatSession(backend ChatBackend, replyRole Role, opts ...Option) *ChatSession {
	return &ChatSession{backend: backend, replyRole: replyRole, s: newSettings(opts)}
}

// Send appends text as a user message at once, then waits for the reply.
// Blank input is ignored. On failure the user message stays, annotated
// with the error, no reply is appended and the error is returned.
func (c *ChatSession) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.mu.Lock()
	if c.inflight {
		c.mu.Unlock()
		return ErrInFlight
	}
	id := uuid.NewString()
	c.messages = append(c.messages, ChatMessage{
		ID:        id,
		Role:      RoleUser,
		Content:   text,
		Timestamp: c.s.clock.Now(),
	})
	c.inflight = true
	c.mu.Unlock()
	c.subs.emit()

	reply, err := c.backend.Send(ctx, text)

	c.mu.Lock()
	c.inflight = false
	if err != nil {
		for i := range c.messages {
			if c.messages[i].ID == id {
				c.messages[i].Error = err.Error()
				break
			}
		}
		c.mu.Unlock()
		c.subs.emit()
		c.s.logger.Warn("chat send failed", "error", err)
		return err
	}

	c.messages = append(c.messages, ChatMessage{
		ID:          uuid.NewString(),
		Role:        c.replyRole,
		Content:     reply.Content,
		Timestamp:   c.s.clock.Now(),
		Score:       reply.Score,
		Suggestions: reply.Suggestions,
	})
	if reply.Score != nil {
		score := *reply.Score
		c.lastScore = &score
		c.lastSuggestions = slices.Clone(reply.Suggestions)
	}
	c.mu.Unlock()
	c.subs.emit()
	return nil
}

func (c *ChatSession) Messages() []ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

func (c *ChatSession) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight
}

// LastScore returns the effectiveness score of the most recent exchange.
func (c *ChatSession) LastScore() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastScore == nil {
		return 0, false
	}
	return *c.lastScore, true
}

// LastSuggestions returns the suggestions of the most recent exchange.
func (c *ChatSession) LastSuggestions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.lastSuggestions)
}

func (c *ChatSession) Subscribe(fn func()) (unsubscribe func()) {
	return c.subs.add(fn)
}
