// Package metrics exposes Prometheus metrics for batch processing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the batch processing metrics. A nil *Metrics is a valid
// no-op receiver so wiring metrics stays optional.
type Metrics struct {
	runs       *prometheus.CounterVec
	scanErrors *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// New creates and registers the batch metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "artshow_batches_processed_total",
			Help: "Total batch dispatch runs by batch type and outcome",
		}, []string{"batchtype", "outcome"}),
		scanErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "artshow_scan_errors_total",
			Help: "Total line diagnostics recorded by failed scan runs",
		}, []string{"batchtype"}),
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "artshow_batch_processing_seconds",
			Help:    "Batch processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"batchtype"}),
	}
}

// RecordRun counts one dispatch outcome and its duration.
func (m *Metrics) RecordRun(batchType, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(batchType, outcome).Inc()
	m.duration.WithLabelValues(batchType).Observe(seconds)
}

// RecordScanErrors counts the diagnostics of a failed run.
func (m *Metrics) RecordScanErrors(batchType string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.scanErrors.WithLabelValues(batchType).Add(float64(count))
}
