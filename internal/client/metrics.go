package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the front-end's backend calls.
type Metrics struct {
	Registry          *prometheus.Registry
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	StaleDiscarded    prometheus.Counter
	TrackReverts      prometheus.Counter
	NavigationsFailed *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frontend_backend_requests_total",
			Help: "Requests issued to the backend API by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "frontend_backend_request_duration_seconds",
			Help:    "Backend API request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
	stale := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "frontend_stale_responses_discarded_total",
			Help: "Search responses dropped because a newer navigation was issued.",
		},
	)
	reverts := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "frontend_track_reverts_total",
			Help: "Optimistic tracking toggles reverted to the server's value.",
		},
	)
	failed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frontend_navigations_failed_total",
			Help: "Navigations that ended in the failed state by error kind.",
		},
		[]string{"kind"},
	)

	registry.MustRegister(requests, duration, stale, reverts, failed)

	return &Metrics{
		Registry:          registry,
		RequestsTotal:     requests,
		RequestDuration:   duration,
		StaleDiscarded:    stale,
		TrackReverts:      reverts,
		NavigationsFailed: failed,
	}
}

func (m *Metrics) ObserveRequest(endpoint string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(endpoint, Kind(err)).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) IncStale() {
	if m == nil {
		return
	}
	m.StaleDiscarded.Inc()
}

func (m *Metrics) IncRevert() {
	if m == nil {
		return
	}
	m.TrackReverts.Inc()
}

func (m *Metrics) IncFailed(err error) {
	if m == nil {
		return
	}
	m.NavigationsFailed.WithLabelValues(Kind(err)).Inc()
}
