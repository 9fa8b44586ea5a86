package dashboard

import (
	"context"
	"log/slog"

	"github.com/kalambet/recapture/internal/api"
	"github.com/kalambet/recapture/internal/viewmodel"
)

// SubjectsScreen lists subjects and the authorities of the selected one.
type SubjectsScreen struct {
	List *viewmodel.SelectableList[api.Subject, api.Authority]

	client *api.Client
	d      *viewmodel.Dispatcher
}

func NewSubjectsScreen(c *api.Client, d *viewmodel.Dispatcher, opts ...viewmodel.Option) *SubjectsScreen {
	return &SubjectsScreen{
		List: viewmodel.NewSelectableList(viewmodel.ListConfig[api.Subject, api.Authority]{
			Name:            "subjects",
			Fetch:           c.ListSubjects,
			Key:             func(s api.Subject) string { return s.ID },
			FetchDependents: c.ListAuthorities,
		}, opts...),
		client: c,
		d:      d,
	}
}

func (s *SubjectsScreen) Load(ctx context.Context) error {
	return s.List.Load(ctx)
}

func (s *SubjectsScreen) Select(ctx context.Context, id string) error {
	return s.List.Select(ctx, id)
}

// CreateSubject creates a subject and reloads the subject list.
func (s *SubjectsScreen) CreateSubject(ctx context.Context, subject api.Subject) (api.Subject, error) {
	var created api.Subject
	err := s.d.Dispatch(ctx, viewmodel.Action{
		Name: "subjects.create",
		Key:  subject.Name,
		Do: func(ctx context.Context) error {
			var err error
			created, err = s.client.CreateSubject(ctx, subject)
			return err
		},
		Refresh: []viewmodel.Refresher{s.List},
	})
	return created, err
}

// UpdateNotes rewrites the notes of a listed subject. Every other field,
// including ones this client does not model, is sent back unchanged.
func (s *SubjectsScreen) UpdateNotes(ctx context.Context, id, notes string) error {
	subject, ok := s.find(id)
	if !ok {
		return ErrUnknownItem
	}
	subject.Notes = notes
	return s.d.Dispatch(ctx, viewmodel.Action{
		Name: "subjects.notes",
		Key:  id,
		Do: func(ctx context.Context) error {
			_, err := s.client.UpdateSubject(ctx, subject)
			return err
		},
		Refresh: []viewmodel.Refresher{s.List},
	})
}

func (s *SubjectsScreen) DeleteSubject(ctx context.Context, id string) error {
	return s.d.Dispatch(ctx, viewmodel.Action{
		Name:    "subjects.delete",
		Key:     id,
		Do:      func(ctx context.Context) error { return s.client.DeleteSubject(ctx, id) },
		Refresh: []viewmodel.Refresher{s.List},
	})
}

// AddAuthority attaches a to the selected subject and reloads its authorities.
func (s *SubjectsScreen) AddAuthority(ctx context.Context, a api.Authority) error {
	parent := s.List.Selected()
	if parent == "" {
		return ErrNoSelection
	}
	a.SubjectID = parent
	return s.d.Dispatch(ctx, viewmodel.Action{
		Name: "authorities.add",
		Key:  parent + "/" + a.Name,
		Do: func(ctx context.Context) error {
			_, err := s.client.AddAuthority(ctx, parent, a)
			return err
		},
		Refresh: []viewmodel.Refresher{s.List.DependentsRefresher()},
	})
}

func (s *SubjectsScreen) DeleteAuthority(ctx context.Context, authorityID string) error {
	parent := s.List.Selected()
	if parent == "" {
		return ErrNoSelection
	}
	return s.d.Dispatch(ctx, viewmodel.Action{
		Name:    "authorities.delete",
		Key:     authorityID,
		Do:      func(ctx context.Context) error { return s.client.DeleteAuthority(ctx, parent, authorityID) },
		Refresh: []viewmodel.Refresher{s.List.DependentsRefresher()},
	})
}

// Recommended returns suggested authorities for the selection. Failures
// degrade to an empty list.
func (s *SubjectsScreen) Recommended(ctx context.Context) []api.RecommendedAuthority {
	id := s.List.Selected()
	if id == "" {
		return nil
	}
	recs, err := s.client.RecommendedAuthorities(ctx, id)
	if err != nil {
		slog.Warn("recommended authorities unavailable", "subject", id, "error", err)
		return nil
	}
	return recs
}

func (s *SubjectsScreen) Close() {
	s.List.Close()
}

func (s *SubjectsScreen) find(id string) (api.Subject, bool) {
	for _, it := range s.List.Items() {
		if it.ID == id {
			return it, true
		}
	}
	return api.Subject{}, false
}
