package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bayesnet_queries_enqueued_total",
		Help: "Total number of queries placed on the inference queue.",
	})

	QueriesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bayesnet_queries_dropped_total",
		Help: "Total number of queries rejected due to a full queue.",
	})

	QueriesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bayesnet_queries_processed_total",
		Help: "Total number of queries processed, labelled by algorithm and status.",
	}, []string{"algorithm", "status"})

	SamplesAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bayesnet_samples_accepted_total",
		Help: "Samples that contributed to a result (matched evidence or carried non-zero weight).",
	}, []string{"algorithm"})

	SamplesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bayesnet_samples_rejected_total",
		Help: "Samples discarded by rejection or carrying zero weight.",
	}, []string{"algorithm"})

	EmptyDistributions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bayesnet_empty_distributions_total",
		Help: "Target results for which no information could be obtained, labelled by target.",
	}, []string{"target"})

	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bayesnet_query_duration_ms",
		Help:    "End-to-end query latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bayesnet_queue_utilization_ratio",
		Help: "Current query queue utilization (0–1).",
	})

	NetworkNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bayesnet_network_nodes",
		Help: "Number of nodes in the active network.",
	})

	NetworkSwaps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bayesnet_network_swaps_total",
		Help: "Total number of times the active network was replaced.",
	})
)
