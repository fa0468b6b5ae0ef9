package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	valuations  *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	fetches     *prometheus.CounterVec
	publishes   *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder registered on reg. A nil reg
// uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		valuations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finvalue_valuations_total",
				Help: "Valuation model runs by outcome",
			},
			[]string{"model", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finvalue_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finvalue_upstream_fetches_total",
				Help: "Upstream data fetches by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		publishes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finvalue_reports_published_total",
				Help: "Valuation reports handed to the publisher",
			},
			[]string{"outcome"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finvalue_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finvalue_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordValuation counts a model run ("ok", or an error kind).
func (r *Recorder) RecordValuation(model, outcome string) {
	r.valuations.WithLabelValues(model, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordFetch records an upstream fetch ("hit", "miss", "ok", "error").
func (r *Recorder) RecordFetch(source, outcome string) {
	r.fetches.WithLabelValues(source, outcome).Inc()
}

// RecordPublish records a report publish attempt.
func (r *Recorder) RecordPublish(outcome string) {
	r.publishes.WithLabelValues(outcome).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) RecordValuation(string, string)  {}
func (Nop) RecordError(string)              {}
func (Nop) RecordFetch(string, string)      {}
func (Nop) RecordPublish(string)            {}
func (Nop) RecordLastPrice(string, float64) {}
func (Nop) RecordLatency(string, float64)   {}
