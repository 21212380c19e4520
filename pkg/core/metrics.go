package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "yap"

// Metrics collected about batches of operations
type Metrics struct {
	Files    *prometheus.CounterVec
	Bytes    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Batches  *prometheus.CounterVec
}

// NewMetrics registers batch metrics with a prometheus registerer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "files_total",
			Help:      "Files processed, by operation and outcome",
		}, []string{"operation", "outcome"}),
		Bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "bytes_total",
			Help:      "Bytes copied to snapshots or transferred to and from remotes, by operation",
		}, []string{"operation"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "file_duration_seconds",
			Help:      "Time spent processing a single file, by operation",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"operation"}),
		Batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "batches_total",
			Help:      "Batches run, by operation and result",
		}, []string{"operation", "result"}),
	}
	reg.MustRegister(m.Files, m.Bytes, m.Duration, m.Batches)
	return m
}
