package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/recapture/internal/api"
)

// fakeGuardian is an in-memory guardian API counting hits per "METHOD path".
type fakeGuardian struct {
	*httptest.Server

	mu          sync.Mutex
	hits        map[string]int
	bodies      map[string]string
	subjects    []json.RawMessage
	authorities map[string][]api.Authority
	logs        map[string][]api.ContentLog
	content     []api.ContentItem
	stats       api.PipelineStats
	clones      []api.Clone
	failures    map[string]int // "METHOD path" -> status to return
	nextID      int
}

func newFakeGuardian(t *testing.T) *fakeGuardian {
	t.Helper()
	f := &fakeGuardian{
		hits:        make(map[string]int),
		bodies:      make(map[string]string),
		authorities: make(map[string][]api.Authority),
		logs:        make(map[string][]api.ContentLog),
		failures:    make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(f.record)

	r.Get("/api/subjects", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		reply(w, f.subjects)
	})
	r.Post("/api/subjects", func(w http.ResponseWriter, req *http.Request) {
		var s map[string]any
		_ = json.NewDecoder(req.Body).Decode(&s)
		f.mu.Lock()
		f.nextID++
		s["id"] = fmt.Sprintf("new-%d", f.nextID)
		b, _ := json.Marshal(s)
		f.subjects = append(f.subjects, b)
		f.mu.Unlock()
		reply(w, s)
	})
	r.Put("/api/subjects/{id}", func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		reply(w, json.RawMessage(b))
	})
	r.Get("/api/subjects/{id}", func(w http.ResponseWriter, req *http.Request) {
		reply(w, map[string]any{"id": chi.URLParam(req, "id"), "name": "Detail", "age": 16, "risk_level": "Medium"})
	})
	r.Get("/api/subjects/{id}/authorities", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		out := f.authorities[chi.URLParam(req, "id")]
		if out == nil {
			out = []api.Authority{}
		}
		reply(w, out)
	})
	r.Post("/api/subjects/{id}/authorities", func(w http.ResponseWriter, req *http.Request) {
		var a api.Authority
		_ = json.NewDecoder(req.Body).Decode(&a)
		id := chi.URLParam(req, "id")
		f.mu.Lock()
		a.ID = "auth-" + a.Name
		f.authorities[id] = append(f.authorities[id], a)
		f.mu.Unlock()
		reply(w, a)
	})
	r.Get("/api/subjects/{id}/logs", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		out := f.logs[chi.URLParam(req, "id")]
		if out == nil {
			out = []api.ContentLog{}
		}
		reply(w, out)
	})
	r.Get("/api/subjects/{id}/social-feeds", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, []api.SocialFeed{{ID: "f1", Platform: "tiktok", Username: "kid"}})
	})
	r.Get("/api/subjects/{id}/social-posts", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, []api.SocialPost{{ID: "p1", Platform: "tiktok", Content: "hi"}})
	})
	r.Get("/api/subjects/{id}/risk-profile", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Risk profile not found"}`)
	})
	r.Post("/api/scanner/ingest", func(w http.ResponseWriter, req *http.Request) {
		var in api.IngestRequest
		_ = json.NewDecoder(req.Body).Decode(&in)
		f.mu.Lock()
		f.logs[in.ProfileID] = append(f.logs[in.ProfileID], api.ContentLog{ID: "l", SubjectID: in.ProfileID, Content: in.Content, RiskScore: 0.5})
		f.mu.Unlock()
		reply(w, api.ContentLog{ID: "l"})
	})

	r.Get("/pipeline/content", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		reply(w, f.content)
	})
	r.Post("/pipeline/content/{id}/approve", func(w http.ResponseWriter, req *http.Request) {
		f.transition(w, chi.URLParam(req, "id"), api.ContentApproved)
	})
	r.Post("/pipeline/content/{id}/discard", func(w http.ResponseWriter, req *http.Request) {
		f.transition(w, chi.URLParam(req, "id"), api.ContentDiscarded)
	})
	r.Post("/pipeline/train-batch", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		n := 0
		for i := range f.content {
			if f.content[i].Status == api.ContentApproved {
				f.content[i].Status = api.ContentTrained
				n++
			}
		}
		f.stats.TotalDocuments += n
		total := f.stats.TotalDocuments
		f.mu.Unlock()
		reply(w, api.TrainResult{Message: "trained", TotalDocuments: total})
	})
	r.Get("/pipeline/stats", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		reply(w, f.stats)
	})
	r.Get("/sources", func(w http.ResponseWriter, _ *http.Request) { reply(w, []api.Source{}) })
	r.Get("/topics", func(w http.ResponseWriter, _ *http.Request) { reply(w, []string{"vaping"}) })
	r.Get("/trends", func(w http.ResponseWriter, _ *http.Request) { reply(w, []api.Trend{{ID: "t1", Topic: "x"}}) })
	r.Post("/trends/{id}/queue", func(w http.ResponseWriter, _ *http.Request) { reply(w, api.Message{Message: "queued"}) })

	r.Get("/api/clones", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		reply(w, f.clones)
	})
	r.Get("/api/clones/{id}/conversations", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Post("/api/clones/{id}/chat", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, api.CloneChatReply{CloneResponse: "meh", EffectivenessScore: 0.3, Suggestions: []string{"slow down"}})
	})
	r.Post("/api/clones/{id}/train", func(w http.ResponseWriter, req *http.Request) {
		reply(w, api.Clone{ID: chi.URLParam(req, "id"), Status: api.CloneReady})
	})

	r.Get("/api/listening/status", func(w http.ResponseWriter, _ *http.Request) { reply(w, api.ListeningStatus{}) })
	r.Get("/api/listening/feed", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, api.FeedPage{Items: []api.FeedItem{{ID: "fi1", Content: "bad take", MatchedTrendID: "t1"}}, Total: 1, TotalPages: 1, Page: 1, PageSize: 5})
	})
	r.Post("/api/listening/promote", func(w http.ResponseWriter, _ *http.Request) { reply(w, api.Message{Message: "ok"}) })

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeGuardian) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		key := req.Method + " " + req.URL.Path
		body, _ := io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(body))

		f.mu.Lock()
		f.hits[key]++
		f.bodies[key] = string(body)
		status := f.failures[key]
		f.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"detail":"forced failure"}`)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (f *fakeGuardian) transition(w http.ResponseWriter, id string, to api.ContentStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.content {
		if f.content[i].ID != id {
			continue
		}
		if f.content[i].Status != api.ContentPending {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"detail":"content is not pending"}`)
			return
		}
		f.content[i].Status = to
		reply(w, api.Message{Message: "ok"})
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (f *fakeGuardian) hitCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func (f *fakeGuardian) body(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

func (f *fakeGuardian) fail(key string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key] = status
}

func (f *fakeGuardian) setSubjects(raw ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = nil
	for _, s := range raw {
		f.subjects = append(f.subjects, json.RawMessage(s))
	}
}

func reply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if v == nil {
		_, _ = io.WriteString(w, "[]")
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}
