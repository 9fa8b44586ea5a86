// Package console exposes the dashboard screens over a local JSON API and
// as MCP tools.
package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kalambet/recapture/internal/api"
	"github.com/kalambet/recapture/internal/dashboard"
	"github.com/kalambet/recapture/internal/metrics"
	"github.com/kalambet/recapture/internal/viewmodel"
)

// Deps holds what the console serves.
type Deps struct {
	Dashboard *dashboard.Dashboard
	Token     string
	// Gatherer backs /metrics; nil disables the route.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewHandler returns the console router.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/feed", handleFeed(deps))
		r.Post("/feed/start", feedAction(deps, (*viewmodel.Feed).Start))
		r.Post("/feed/stop", feedAction(deps, (*viewmodel.Feed).Stop))
		r.Post("/feed/refresh", feedAction(deps, (*viewmodel.Feed).Refresh))
		r.Post("/feed/page/{n}", handleFeedPage(deps))

		r.Get("/subjects", handleSubjects(deps))
		r.Post("/subjects/select/{id}", handleSelectSubject(deps))

		r.Get("/intel", handleIntel(deps))
		r.Post("/intel/content/{id}/approve", contentAction(deps, (*dashboard.IntelCenter).Approve))
		r.Post("/intel/content/{id}/discard", contentAction(deps, (*dashboard.IntelCenter).Discard))
		r.Post("/intel/train", handleTrain(deps))

		r.Delete("/banner", handleDismiss(deps))
	})

	return r
}

// Serve runs the console on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("console listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down console: %w", err)
		}
		return nil
	}
}

// banner is the latest dispatcher notice, shown with every snapshot.
type banner struct {
	Notice *viewmodel.Notice `json:"notice,omitempty"`
}

func currentBanner(d *dashboard.Dashboard) banner {
	if n, ok := d.Banner.Last(); ok {
		return banner{Notice: &n}
	}
	return banner{}
}

type feedResponse struct {
	viewmodel.FeedSnapshot
	Polling bool   `json:"polling"`
	Banner  banner `json:"banner"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func handleFeed(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, feedSnapshot(deps.Dashboard))
	}
}

func feedSnapshot(d *dashboard.Dashboard) feedResponse {
	feed := d.Listening.Feed
	return feedResponse{
		FeedSnapshot: feed.Snapshot(),
		Polling:      feed.Polling(),
		Banner:       currentBanner(d),
	}
}

func feedAction(deps Deps, fn func(*viewmodel.Feed, context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(deps.Dashboard.Listening.Feed, r.Context()); err != nil {
			writeError(w, deps.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, feedSnapshot(deps.Dashboard))
	}
}

func handleFeedPage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(chi.URLParam(r, "n"))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "page must be a number")
			return
		}
		if err := deps.Dashboard.Listening.Feed.SetPage(r.Context(), n); err != nil {
			writeError(w, deps.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, feedSnapshot(deps.Dashboard))
	}
}

type subjectsResponse struct {
	Loaded      bool            `json:"loaded"`
	Items       []api.Subject   `json:"items"`
	Selected    string          `json:"selected,omitempty"`
	Authorities []api.Authority `json:"authorities"`
	Banner      banner          `json:"banner"`
}

func subjectsSnapshot(d *dashboard.Dashboard) subjectsResponse {
	list := d.Subjects.List
	return subjectsResponse{
		Loaded:      list.Loaded(),
		Items:       list.Items(),
		Selected:    list.Selected(),
		Authorities: list.Dependents(),
		Banner:      currentBanner(d),
	}
}

func handleSubjects(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deps.Dashboard.Subjects.List.Loaded() {
			if err := deps.Dashboard.Subjects.Load(r.Context()); err != nil {
				writeError(w, deps.Logger, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, subjectsSnapshot(deps.Dashboard))
	}
}

func handleSelectSubject(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Dashboard.Subjects.Select(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, deps.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, subjectsSnapshot(deps.Dashboard))
	}
}

type intelResponse struct {
	Sources []api.Source      `json:"sources"`
	Topics  []string          `json:"topics"`
	Content []api.ContentItem `json:"content"`
	Trends  []api.Trend       `json:"trends"`
	Summary dashboard.Summary `json:"summary"`
	Banner  banner            `json:"banner"`
}

func intelSnapshot(d *dashboard.Dashboard) intelResponse {
	ic := d.Intel
	sources, _ := ic.Sources.Get()
	topics, _ := ic.Topics.Get()
	content, _ := ic.Content.Get()
	trends, _ := ic.Trends.Get()
	return intelResponse{
		Sources: sources,
		Topics:  topics,
		Content: content,
		Trends:  trends,
		Summary: ic.Summary(),
		Banner:  currentBanner(d),
	}
}

func handleIntel(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := deps.Dashboard.Intel.Content.Get(); !ok {
			// Partial failures are logged by each collection and shown
			// as whatever did load.
			if err := deps.Dashboard.Intel.Load(r.Context()); err != nil {
				deps.Logger.Warn("intel load incomplete", "error", err)
			}
		}
		writeJSON(w, http.StatusOK, intelSnapshot(deps.Dashboard))
	}
}

func contentAction(deps Deps, fn func(*dashboard.IntelCenter, context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(deps.Dashboard.Intel, r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, deps.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, intelSnapshot(deps.Dashboard))
	}
}

func handleTrain(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := deps.Dashboard.Intel.TrainBatch(r.Context())
		if err != nil {
			writeError(w, deps.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"result": res,
			"intel":  intelSnapshot(deps.Dashboard),
		})
	}
}

func handleDismiss(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		deps.Dashboard.Banner.Dismiss()
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps controller and API errors onto console status codes.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var apiErr *api.Error
	switch {
	case errors.Is(err, viewmodel.ErrInFlight):
		httpError(w, http.StatusConflict, "conflict_error", "%v", err)
	case errors.Is(err, viewmodel.ErrNotPaginated):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case errors.Is(err, viewmodel.ErrNotInList), errors.Is(err, dashboard.ErrUnknownItem):
		httpError(w, http.StatusNotFound, "not_found_error", "%v", err)
	case errors.Is(err, dashboard.ErrNoSelection):
		httpError(w, http.StatusConflict, "invalid_request_error", "%v", err)
	case errors.As(err, &apiErr):
		httpError(w, http.StatusBadGateway, "api_error", "%s", apiErr.Detail())
	default:
		logger.Error("console request failed", "error", err)
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
