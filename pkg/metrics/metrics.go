package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ProjectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "headway", Name: "projections_total", Help: "Number of node projections by content type."},
		[]string{"type"},
	)
	DepthTruncationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "headway", Name: "depth_truncations_total", Help: "Number of expansions stopped by an exhausted depth budget."},
		[]string{"relation"},
	)
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "headway", Name: "cache_hits_total", Help: "Number of read-through cache hits by entity."},
		[]string{"entity"},
	)
	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "headway", Name: "cache_misses_total", Help: "Number of read-through cache misses by entity."},
		[]string{"entity"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "headway", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "headway", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(ProjectionsTotal)
	reg.MustRegister(DepthTruncationsTotal)
	reg.MustRegister(CacheHits)
	reg.MustRegister(CacheMisses)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
