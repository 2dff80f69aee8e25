package metrics

import "github.com/prometheus/client_golang/prometheus"

// Matching and embedding Prometheus metrics.
var (
	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "refind",
			Name:      "pipeline_runs_total",
			Help:      "Total number of match pipeline runs",
		},
		[]string{"trigger", "status"}, // trigger: ingest|recheck, status: success|error
	)

	PipelineRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "refind",
			Name:      "pipeline_run_duration_seconds",
			Help:      "Match pipeline run duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"trigger"},
	)

	MatchDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "refind",
			Name:      "match_decisions_total",
			Help:      "Candidate decisions by outcome and reason",
		},
		[]string{"outcome", "reason"}, // outcome: accepted|rejected|dropped
	)

	MatchesCommittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "refind",
			Name:      "matches_committed_total",
			Help:      "Match record pairs newly committed to the ledger",
		},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "refind",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "refind",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "refind",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	VisionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "refind",
			Name:      "vision_requests_total",
			Help:      "Total number of image analysis requests",
		},
		[]string{"provider", "model", "status"},
	)
)

var matchingMetricsRegistered bool

// RegisterMatchingMetrics registers matching metrics. Must be called once from main.
func RegisterMatchingMetrics() {
	if matchingMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineRunsTotal)
	prometheus.MustRegister(PipelineRunDuration)
	prometheus.MustRegister(MatchDecisionsTotal)
	prometheus.MustRegister(MatchesCommittedTotal)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(VisionRequestsTotal)
	matchingMetricsRegistered = true
}
