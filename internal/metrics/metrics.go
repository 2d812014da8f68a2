package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aftercare_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aftercare_http_requests_in_flight",
			Help: "HTTP requests currently being served, health checks and scrapes excluded.",
		},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aftercare_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// InferenceRequestsTotal counts generation calls by endpoint shape and
	// outcome ("ok" or a failure kind).
	InferenceRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aftercare_inference_requests_total",
			Help: "Total number of generation endpoint calls.",
		},
		[]string{"shape", "outcome"},
	)

	InferenceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aftercare_inference_duration_seconds",
			Help:    "Generation endpoint latency in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"shape"},
	)

	KnowledgeCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aftercare_knowledge_cache_total",
			Help: "Knowledge search cache lookups by result.",
		},
		[]string{"result"},
	)

	FallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aftercare_fallback_total",
			Help: "Answers served by the fallback responder, by reason.",
		},
		[]string{"reason"},
	)

	TurnsRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aftercare_turns_recorded_total",
			Help: "Dialogue turns persisted, by path (sync or event).",
		},
		[]string{"path"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestsInFlight,
		HTTPRequestDuration,
		InferenceRequestsTotal,
		InferenceDuration,
		KnowledgeCacheTotal,
		FallbackTotal,
		TurnsRecordedTotal,
	)
}
