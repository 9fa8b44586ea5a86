// Package metrics collects Prometheus metrics for API traffic and dashboard actions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements api.RequestObserver and viewmodel.ActionObserver.
type Collector struct {
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	actions        *prometheus.CounterVec
	stale          *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recapture_api_requests_total",
			Help: "API requests by method, route and status code (0 = transport failure).",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recapture_api_request_duration_seconds",
			Help:    "API request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recapture_actions_total",
			Help: "Dispatched dashboard actions by name and outcome.",
		}, []string{"action", "outcome"}),
		stale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recapture_stale_responses_total",
			Help: "Responses dropped because a newer request or selection superseded them.",
		}, []string{"controller"}),
	}

	reg.MustRegister(
		c.requests,
		c.requestLatency,
		c.actions,
		c.stale,
	)

	return c
}

// ObserveRequest records one finished API request. route is the path
// template (e.g. /api/subjects/{id}), never the concrete path.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveAction records the outcome of a dispatched action.
func (c *Collector) ObserveAction(name string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.actions.WithLabelValues(name, outcome).Inc()
}

// ObserveStale records a discarded out-of-date response.
func (c *Collector) ObserveStale(controller string) {
	c.stale.WithLabelValues(controller).Inc()
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
