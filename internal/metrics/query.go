package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query pipeline Prometheus metrics.
var (
	QueryOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragdex",
			Name:      "query_outcomes_total",
			Help:      "Query pipeline terminal states",
		},
		[]string{"outcome"}, // "answered", "empty_question", "embed_failed", "no_context", "answer_failed"
	)

	RetrievedChunks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ragdex",
			Name:      "retrieved_chunks",
			Help:      "Number of chunks returned per search",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 10},
		},
	)

	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragdex",
			Name:      "chat_requests_total",
			Help:      "Total number of answer generation requests",
		},
		[]string{"model", "status"},
	)
)

var queryMetricsRegistered bool

// RegisterQueryMetrics registers Prometheus query metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueryOutcomesTotal)
	prometheus.MustRegister(RetrievedChunks)
	prometheus.MustRegister(ChatRequestsTotal)
	queryMetricsRegistered = true
}
