package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ValuationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finvalue",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of valuation endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ValuationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finvalue",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by valuation endpoint and code",
		},
		[]string{"endpoint", "code"},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finvalue",
			Subsystem: "api",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client limiter",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ValuationLatency, ValuationErrors, RateLimited)
	})
}
