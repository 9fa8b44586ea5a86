package dashboard

import (
	"context"

	"github.com/kalambet/recapture/internal/api"
	"github.com/kalambet/recapture/internal/viewmodel"
)

// CloneLab lists subjects next to their digital clones.
type CloneLab struct {
	Subjects *viewmodel.Resource[[]api.Subject]
	Clones   *viewmodel.Resource[[]api.Clone]

	client *api.Client
	d      *viewmodel.Dispatcher
	opts   []viewmodel.Option
}

func NewCloneLab(c *api.Client, d *viewmodel.Dispatcher, opts ...viewmodel.Option) *CloneLab {
	return &CloneLab{
		Subjects: viewmodel.NewResource("clone-subjects", c.ListSubjects, opts...),
		Clones:   viewmodel.NewResource("clones", c.ListClones, opts...),
		client:   c,
		d:        d,
		opts:     opts,
	}
}

// Load fetches subjects and clones concurrently.
func (l *CloneLab) Load(ctx context.Context) error {
	return fanout(ctx, l.Subjects.Refresh, l.Clones.Refresh)
}

// BySubject indexes the loaded clones by subject id.
func (l *CloneLab) BySubject() map[string]api.Clone {
	clones, _ := l.Clones.Get()
	out := make(map[string]api.Clone, len(clones))
	for _, c := range clones {
		out[c.SubjectID] = c
	}
	return out
}

func (l *CloneLab) CloneFor(subjectID string) (api.Clone, bool) {
	c, ok := l.BySubject()[subjectID]
	return c, ok
}

// Retrain retrains the clone of subjectID and reloads the clones.
func (l *CloneLab) Retrain(ctx context.Context, subjectID string) error {
	clone, ok := l.CloneFor(subjectID)
	if !ok {
		return ErrNoClone
	}
	return l.d.Dispatch(ctx, viewmodel.Action{
		Name: "clones.train",
		Key:  clone.ID,
		Do: func(ctx context.Context) error {
			_, err := l.client.TrainClone(ctx, clone.ID)
			return err
		},
		Refresh: []viewmodel.Refresher{l.Clones},
		Success: "Clone retrained",
	})
}

// Session opens a chat with the clone of subjectID. language is consulted
// on every turn.
func (l *CloneLab) Session(subjectID string, language func() string) (*viewmodel.ChatSession, error) {
	clone, ok := l.CloneFor(subjectID)
	if !ok {
		return nil, ErrNoClone
	}
	backend := viewmodel.CloneBackend(l.client, clone.ID, subjectID, language)
	return viewmodel.NewChatSession(backend, viewmodel.RoleClone, l.opts...), nil
}

// History returns stored conversations. A clone without history, or
// without a conversation store yet, yields an empty list.
func (l *CloneLab) History(ctx context.Context, subjectID string) ([]api.Conversation, error) {
	clone, ok := l.CloneFor(subjectID)
	if !ok {
		return nil, ErrNoClone
	}
	convs, err := l.client.CloneConversations(ctx, clone.ID)
	if api.IsNotFound(err) {
		return nil, nil
	}
	return convs, err
}

func (l *CloneLab) DeleteConversation(ctx context.Context, subjectID, conversationID string) error {
	clone, ok := l.CloneFor(subjectID)
	if !ok {
		return ErrNoClone
	}
	return l.d.Dispatch(ctx, viewmodel.Action{
		Name: "clones.conversation.delete",
		Key:  conversationID,
		Do: func(ctx context.Context) error {
			return l.client.DeleteConversation(ctx, clone.ID, conversationID)
		},
	})
}
