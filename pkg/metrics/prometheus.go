package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetches      *prometheus.CounterVec
	candlesSaved *prometheus.CounterVec
	candleErrors *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder registered on reg.
// A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlepull_fetches_total",
				Help: "Candle fetches by timeframe, symbol and outcome",
			},
			[]string{"timeframe", "symbol", "result"},
		),
		candlesSaved: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlepull_candles_stored_total",
				Help: "Candles written to the candle store",
			},
			[]string{"timeframe", "symbol"},
		),
		candleErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlepull_candle_store_errors_total",
				Help: "Candles the store rejected",
			},
			[]string{"timeframe", "symbol"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlepull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "candlepull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch counts one fetch attempt with its result ("success" or "error").
func (r *Recorder) RecordFetch(timeframe, symbol, result string) {
	r.fetches.WithLabelValues(timeframe, symbol, result).Inc()
}

// RecordCandlesStored adds persisted and rejected candle counts.
func (r *Recorder) RecordCandlesStored(timeframe, symbol string, stored, errors int) {
	if stored > 0 {
		r.candlesSaved.WithLabelValues(timeframe, symbol).Add(float64(stored))
	}
	if errors > 0 {
		r.candleErrors.WithLabelValues(timeframe, symbol).Add(float64(errors))
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
