package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// registering the same collector twice panics
	once sync.Once

	// HTTPRequestsTotal counts finished requests. route is the route pattern,
	// never the raw path, to keep label cardinality bounded.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// SubmissionsTotal counts resolved submissions by outcome: success,
	// invalid_link, fetch, malformed_response or stale.
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summary_submissions_total",
			Help: "Resolved summary submissions by outcome.",
		},
		[]string{"outcome"},
	)

	// UpstreamRequestsTotal counts calls to the summarization service.
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summary_upstream_requests_total",
			Help: "Requests to the summarization service by outcome.",
		},
		[]string{"outcome"},
	)

	// The service can take tens of seconds to summarize a long video.
	UpstreamRequestDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "summary_upstream_request_duration_seconds",
			Help:    "Latency of requests to the summarization service.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "summary_active_sessions",
			Help: "Number of live browser sessions.",
		},
	)

	EventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "summary_events_dropped_total",
			Help: "Submission events dropped because the buffer was full.",
		},
	)
)

// Init registers all collectors with the default registry. Safe to call more
// than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			SubmissionsTotal,
			UpstreamRequestsTotal,
			UpstreamRequestDurationSeconds,
			ActiveSessions,
			EventsDroppedTotal,
		)
	})
}

// ObserveSubmission records a resolved submission. outcome is "stale" for
// dropped completions.
func ObserveSubmission(outcome string) {
	SubmissionsTotal.WithLabelValues(outcome).Inc()
}
