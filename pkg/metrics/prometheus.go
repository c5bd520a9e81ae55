package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	requests     *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	retries      *prometheus.CounterVec
	exported     *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "segpull_upstream_requests_total",
				Help: "Upstream API calls by operation and result",
			},
			[]string{"operation", "result"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "segpull_cache_lookups_total",
				Help: "Cache lookups by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		retries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "segpull_upstream_retries_total",
				Help: "Retried upstream attempts",
			},
			[]string{"operation"},
		),
		exported: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "segpull_exported_records_total",
				Help: "Segment records written per sink",
			},
			[]string{"sink"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "segpull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "segpull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRequest counts an upstream call; result is "ok", "cache" or "error".
func (r *Recorder) RecordRequest(operation, result string) {
	r.requests.WithLabelValues(operation, result).Inc()
}

func (r *Recorder) RecordCacheLookup(kind string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheLookups.WithLabelValues(kind, outcome).Inc()
}

func (r *Recorder) RecordRetry(operation string) {
	r.retries.WithLabelValues(operation).Inc()
}

// RecordExported adds n written records for sink.
func (r *Recorder) RecordExported(sink string, n int) {
	r.exported.WithLabelValues(sink).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
