// Package metrics holds the Prometheus collectors for document syncs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "billsync_"

// Result labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics groups the sync collectors. A nil *Metrics records nothing.
type Metrics struct {
	syncRuns          *prometheus.CounterVec
	syncLatency       *prometheus.HistogramVec
	documents         *prometheus.CounterVec
	extractLatency    *prometheus.HistogramVec
	referencesCreated *prometheus.CounterVec
	referencesSkipped *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		syncRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sync_runs_total",
				Help: "Total sync runs by provider and result",
			},
			[]string{"provider", "result"},
		),
		syncLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "sync_latency_seconds",
				Help:    "Sync run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "result"},
		),
		documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "documents_total",
				Help: "Documents extracted by provider and result",
			},
			[]string{"provider", "result"},
		),
		extractLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "extract_latency_seconds",
				Help:    "Per-document extraction latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider"},
		),
		referencesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "references_created_total",
				Help: "Billing periods persisted by provider",
			},
			[]string{"provider"},
		),
		referencesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "references_skipped_total",
				Help: "Billing periods already known by provider",
			},
			[]string{"provider"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by route pattern and status code",
			},
			[]string{"route", "code"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.syncRuns,
			m.syncLatency,
			m.documents,
			m.extractLatency,
			m.referencesCreated,
			m.referencesSkipped,
			m.httpRequests,
		)
	}
	return m
}

// ObserveDocument records one extraction attempt.
func (m *Metrics) ObserveDocument(provider string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(provider, result(err)).Inc()
	m.extractLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveSync records a finished sync run.
func (m *Metrics) ObserveSync(provider string, created, skipped int, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	res := result(err)
	m.syncRuns.WithLabelValues(provider, res).Inc()
	m.syncLatency.WithLabelValues(provider, res).Observe(elapsed.Seconds())
	if err != nil {
		return
	}
	m.referencesCreated.WithLabelValues(provider).Add(float64(created))
	m.referencesSkipped.WithLabelValues(provider).Add(float64(skipped))
}

// ObserveRequest counts one HTTP response.
func (m *Metrics) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, statusCode(code)).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

func statusCode(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
