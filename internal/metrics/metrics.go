package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sourceagg",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sourceagg",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"method", "path"})

	FetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sourceagg",
		Name:      "fetches_total",
		Help:      "Total upstream source fetches by terminal status.",
	}, []string{"status"})

	FetchRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sourceagg",
		Name:      "fetch_retries_total",
		Help:      "Total fetch attempts that failed and were retried.",
	})

	AggregationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sourceagg",
		Name:      "aggregations_total",
		Help:      "Total aggregation runs by media kind and result status.",
	}, []string{"kind", "status"})

	AggregationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sourceagg",
		Name:      "aggregation_duration_seconds",
		Help:      "Aggregation run duration in seconds.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"kind"})

	FallbackTierTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sourceagg",
		Name:      "fallback_tier_total",
		Help:      "Aggregation runs that escalated to the fallback tier, by media kind.",
	}, []string{"kind"})

	CandidatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sourceagg",
		Name:      "candidates_total",
		Help:      "Raw candidates produced by source adapters, by source family.",
	}, []string{"family"})

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sourceagg",
		Name:      "cache_hits_total",
		Help:      "Total number of aggregation result cache hits.",
	})

	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sourceagg",
		Name:      "cache_misses_total",
		Help:      "Total number of aggregation result cache misses.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		FetchesTotal,
		FetchRetriesTotal,
		AggregationsTotal,
		AggregationDuration,
		FallbackTierTotal,
		CandidatesTotal,
		CacheHitsTotal,
		CacheMissesTotal,
	)
}
