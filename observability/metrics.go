package observability

import (
	"net/http"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus series for the panel. Everything registers on the default
// registry; MetricsHandler exposes it when --metrics-addr is set.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nupanel_http_requests_total",
			Help: "Outbound HTTP requests by method, status code, and source.",
		},
		[]string{"method", "status_code", "source"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nupanel_http_request_duration_seconds",
			Help:    "Outbound HTTP request latency in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms up to ~16s
		},
		[]string{"method", "source"},
	)

	// CacheHitsTotal and CacheMissesTotal cover the panel's in-memory
	// caches, labeled "versions" and "metadata".
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nupanel_cache_hits_total",
			Help: "Cache hits by cache name.",
		},
		[]string{"cache"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nupanel_cache_misses_total",
			Help: "Cache misses by cache name.",
		},
		[]string{"cache"},
	)

	// StaleResponsesTotal counts host responses discarded because the
	// panel had already moved on when they arrived.
	StaleResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nupanel_stale_responses_total",
			Help: "Host responses discarded as stale, by response kind.",
		},
		[]string{"kind"},
	)

	DebounceFiresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nupanel_debounce_fires_total",
			Help: "Debounce timers that fired, by timer.",
		},
		[]string{"timer"}, // suggestion, full, recent
	)

	HostRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nupanel_host_requests_total",
			Help: "Requests dispatched to the host, by kind.",
		},
		[]string{"kind"},
	)
)

// MetricsHandler serves the default registry in exposition format.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// GetCounterValue reads the current value of one labeled counter.
// Intended for tests.
func GetCounterValue(counter *prometheus.CounterVec, labels ...string) (float64, error) {
	m, err := counter.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0, err
	}
	var pb dto.Metric
	if err := m.Write(&pb); err != nil {
		return 0, err
	}
	if pb.Counter == nil {
		return 0, nil
	}
	return pb.Counter.GetValue(), nil
}
