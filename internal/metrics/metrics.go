package metrics

import "github.com/prometheus/client_golang/prometheus"

// Remote-call Prometheus metrics.
var (
	SchemaFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flexrag",
			Name:      "schema_fetches_total",
			Help:      "Total number of index schema fetches",
		},
		[]string{"index", "status"},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flexrag",
			Name:      "search_requests_total",
			Help:      "Total number of search queries",
		},
		[]string{"index", "status"},
	)

	SearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "flexrag",
			Name:      "search_request_duration_seconds",
			Help:      "Search query duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"index"},
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flexrag",
			Name:      "generation_requests_total",
			Help:      "Total number of answer generation requests",
		},
		[]string{"deployment", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "flexrag",
			Name:      "generation_request_duration_seconds",
			Help:      "Answer generation duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"deployment"},
	)

	GenerationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flexrag",
			Name:      "generation_tokens_total",
			Help:      "Total generation tokens consumed",
		},
		[]string{"deployment", "type"},
	)
)

var registered bool

// Register registers the metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(SchemaFetchesTotal)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchRequestDuration)
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationRequestDuration)
	prometheus.MustRegister(GenerationTokensTotal)
	registered = true
}
