package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func findMetric(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			got := make(map[string]string)
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue next
				}
			}
			return m
		}
	}
	return nil
}

func TestObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveRequest("GET", "/api/subjects", 200, 20*time.Millisecond)
	c.ObserveRequest("GET", "/api/subjects", 200, 40*time.Millisecond)
	c.ObserveRequest("GET", "/api/subjects", 0, time.Second)

	m := findMetric(t, reg, "recapture_api_requests_total", map[string]string{"route": "/api/subjects", "status": "200"})
	if m == nil {
		t.Fatal("request counter for status 200 not found")
	}
	if v := m.GetCounter().GetValue(); v != 2 {
		t.Errorf("requests_total{status=200} = %v, want 2", v)
	}

	m = findMetric(t, reg, "recapture_api_requests_total", map[string]string{"status": "0"})
	if m == nil || m.GetCounter().GetValue() != 1 {
		t.Error("transport failure not counted under status 0")
	}

	h := findMetric(t, reg, "recapture_api_request_duration_seconds", map[string]string{"method": "GET"})
	if h == nil {
		t.Fatal("latency histogram not found")
	}
	if n := h.GetHistogram().GetSampleCount(); n != 3 {
		t.Errorf("latency samples = %d, want 3", n)
	}
}

func TestObserveAction(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveAction("approve", nil)
	c.ObserveAction("approve", errors.New("boom"))

	ok := findMetric(t, reg, "recapture_actions_total", map[string]string{"action": "approve", "outcome": "ok"})
	bad := findMetric(t, reg, "recapture_actions_total", map[string]string{"action": "approve", "outcome": "error"})
	if ok == nil || ok.GetCounter().GetValue() != 1 {
		t.Error("ok outcome not counted once")
	}
	if bad == nil || bad.GetCounter().GetValue() != 1 {
		t.Error("error outcome not counted once")
	}
}

func TestObserveStale(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveStale("feed")

	m := findMetric(t, reg, "recapture_stale_responses_total", map[string]string{"controller": "feed"})
	if m == nil || m.GetCounter().GetValue() != 1 {
		t.Error("stale response not counted")
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.ObserveRequest("POST", "/pipeline/run", 202, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "recapture_api_requests_total") {
		t.Error("scrape output missing recapture_api_requests_total")
	}
}
