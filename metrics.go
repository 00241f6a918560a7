package domcore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the analyzer's Prometheus collectors, kept on a private
// registry so several analyzers can coexist in one process (and in tests).
type Metrics struct {
	Registry *prometheus.Registry

	Runs          *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
	Groups        *prometheus.CounterVec
	FlaggedNodes  prometheus.Histogram
	DocumentNodes prometheus.Histogram
	Truncations   prometheus.Counter
}

// NewMetrics registers the collectors on a fresh registry, together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "domcore_runs_total",
			Help: "Analyses by source and outcome",
		}, []string{"source", "status"}),
		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "domcore_run_duration_seconds",
			Help:    "Wall time of one analysis, capture excluded",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"source"}),
		Groups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "domcore_groups_total",
			Help: "Slot groups processed, by outcome",
		}, []string{"outcome"}),
		FlaggedNodes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "domcore_flagged_nodes",
			Help:    "Core nodes flagged per analysis",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		DocumentNodes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "domcore_document_nodes",
			Help:    "Elements per analysed document",
			Buckets: prometheus.ExponentialBuckets(16, 4, 8),
		}),
		Truncations: f.NewCounter(prometheus.CounterOpts{
			Name: "domcore_truncations_total",
			Help: "Analyses where a node or depth cap cut a walk short",
		}),
	}
}
