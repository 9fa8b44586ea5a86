package console

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/recapture/internal/api"
	"github.com/kalambet/recapture/internal/dashboard"
	"github.com/kalambet/recapture/internal/viewmodel"
)

// guardianStub serves the endpoints the console touches.
type guardianStub struct {
	*httptest.Server

	mu      sync.Mutex
	content map[string]api.ContentStatus
	chats   int
}

func newGuardianStub(t *testing.T) *guardianStub {
	t.Helper()
	g := &guardianStub{content: map[string]api.ContentStatus{"c1": api.ContentPending}}

	r := chi.NewRouter()
	r.Get("/api/subjects", func(w http.ResponseWriter, _ *http.Request) {
		stubJSON(w, http.StatusOK, []map[string]any{
			{"id": "s1", "name": "Ana", "age": 15, "risk_level": "High"},
			{"id": "s2", "name": "Ben", "age": 13, "risk_level": "Low"},
		})
	})
	r.Get("/api/subjects/{id}/authorities", func(w http.ResponseWriter, req *http.Request) {
		stubJSON(w, http.StatusOK, []api.Authority{{ID: "a-" + chi.URLParam(req, "id"), Name: "Coach"}})
	})
	r.Get("/api/subjects/{id}/logs", func(w http.ResponseWriter, _ *http.Request) {
		stubJSON(w, http.StatusOK, []api.ContentLog{})
	})
	r.Get("/pipeline/content", func(w http.ResponseWriter, _ *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()
		var out []api.ContentItem
		for id, st := range g.content {
			out = append(out, api.ContentItem{ID: id, Status: st})
		}
		stubJSON(w, http.StatusOK, out)
	})
	r.Post("/pipeline/content/{id}/approve", func(w http.ResponseWriter, req *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()
		id := chi.URLParam(req, "id")
		if g.content[id] != api.ContentPending {
			stubJSON(w, http.StatusBadRequest, map[string]string{"detail": "content is not pending"})
			return
		}
		g.content[id] = api.ContentApproved
		stubJSON(w, http.StatusOK, api.Message{Message: "ok"})
	})
	r.Get("/pipeline/stats", func(w http.ResponseWriter, _ *http.Request) {
		stubJSON(w, http.StatusOK, api.PipelineStats{TotalDocuments: 7})
	})
	r.Get("/sources", func(w http.ResponseWriter, _ *http.Request) { stubJSON(w, http.StatusOK, []api.Source{}) })
	r.Get("/topics", func(w http.ResponseWriter, _ *http.Request) { stubJSON(w, http.StatusOK, []string{}) })
	r.Get("/trends", func(w http.ResponseWriter, _ *http.Request) { stubJSON(w, http.StatusOK, []api.Trend{}) })
	r.Get("/api/listening/feed", func(w http.ResponseWriter, _ *http.Request) {
		stubJSON(w, http.StatusOK, api.FeedPage{
			Items:      []api.FeedItem{{ID: "f1", Content: "x", MatchedTrendID: "t"}, {ID: "f2", Content: "y"}},
			Total:      12,
			TotalPages: 3,
			Page:       1,
			PageSize:   5,
		})
	})
	r.Get("/api/clones", func(w http.ResponseWriter, _ *http.Request) {
		stubJSON(w, http.StatusOK, []api.Clone{{ID: "k1", SubjectID: "s1", Status: api.CloneReady}})
	})
	r.Post("/api/clones/{id}/chat", func(w http.ResponseWriter, _ *http.Request) {
		g.mu.Lock()
		g.chats++
		g.mu.Unlock()
		stubJSON(w, http.StatusOK, api.CloneChatReply{CloneResponse: "whatever", EffectivenessScore: 0.6, Suggestions: []string{"ask questions"}})
	})
	r.Post("/analyze", func(w http.ResponseWriter, _ *http.Request) {
		stubJSON(w, http.StatusOK, api.Analysis{ID: "an1", RadicalizationScore: 0.8, DetectedThemes: []string{"us-vs-them"}})
	})

	g.Server = httptest.NewServer(r)
	t.Cleanup(g.Close)
	return g
}

func stubJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestDashboard(t *testing.T, g *guardianStub, mode viewmodel.FeedMode) *dashboard.Dashboard {
	t.Helper()
	d := dashboard.New(api.New(g.URL), dashboard.Config{FeedMode: mode, FeedPageSize: 5})
	t.Cleanup(d.Close)
	return d
}
