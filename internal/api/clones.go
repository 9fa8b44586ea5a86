package api

import (
	"context"
	"fmt"
)

func (c *Client) ListClones(ctx context.Context) ([]Clone, error) {
	var out []Clone
	if err := c.get(ctx, "/api/clones", "/api/clones", &out); err != nil {
		return nil, fmt.Errorf("listing clones: %w", err)
	}
	return out, nil
}

// GetClone returns the clone of a subject.
func (c *Client) GetClone(ctx context.Context, subjectID string) (Clone, error) {
	var out Clone
	if err := c.get(ctx, "/api/clones/{id}", "/api/clones/"+seg(subjectID), &out); err != nil {
		return Clone{}, fmt.Errorf("getting clone of %s: %w", subjectID, err)
	}
	return out, nil
}

// TrainClone retrains a clone from the subject's latest posts.
func (c *Client) TrainClone(ctx context.Context, cloneID string) (Clone, error) {
	var out Clone
	if err := c.post(ctx, "/api/clones/{id}/train", "/api/clones/"+seg(cloneID)+"/train", nil, &out); err != nil {
		return Clone{}, fmt.Errorf("training clone %s: %w", cloneID, err)
	}
	return out, nil
}

func (c *Client) ChatWithClone(ctx context.Context, cloneID string, req CloneChatRequest) (CloneChatReply, error) {
	var out CloneChatReply
	if err := c.post(ctx, "/api/clones/{id}/chat", "/api/clones/"+seg(cloneID)+"/chat", req, &out); err != nil {
		return CloneChatReply{}, fmt.Errorf("chatting with clone %s: %w", cloneID, err)
	}
	return out, nil
}

func (c *Client) CloneConversations(ctx context.Context, cloneID string) ([]Conversation, error) {
	var out []Conversation
	if err := c.get(ctx, "/api/clones/{id}/conversations", "/api/clones/"+seg(cloneID)+"/conversations", &out); err != nil {
		return nil, fmt.Errorf("listing conversations of clone %s: %w", cloneID, err)
	}
	return out, nil
}

func (c *Client) DeleteConversation(ctx context.Context, cloneID, conversationID string) error {
	path := "/api/clones/" + seg(cloneID) + "/conversations/" + seg(conversationID)
	if err := c.delete(ctx, "/api/clones/{id}/conversations/{cid}", path); err != nil {
		return fmt.Errorf("deleting conversation %s: %w", conversationID, err)
	}
	return nil
}
