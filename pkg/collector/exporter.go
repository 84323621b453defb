package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Exporter exposes collector self-metrics to Prometheus in daemon mode.
type Exporter struct {
	// Cycle metrics
	CyclesTotal    *prometheus.CounterVec
	AppendDuration prometheus.Histogram
	LastSampleUnix prometheus.Gauge

	// Degradation metrics
	SourceDegradedTotal *prometheus.CounterVec
	BottlenecksTotal    *prometheus.CounterVec
}

// NewExporter registers the collector metrics with the given registerer.
func NewExporter(reg prometheus.Registerer, namespace string) *Exporter {
	factory := promauto.With(reg)

	return &Exporter{
		CyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "collect_cycles_total",
				Help:      "Total number of collection cycles by result (success/failure)",
			},
			[]string{"result"},
		),
		AppendDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_append_duration_seconds",
				Help:      "Duration of the locked store append in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		LastSampleUnix: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_sample_timestamp_seconds",
				Help:      "Unix timestamp of the most recently persisted sample",
			},
		),
		SourceDegradedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_degraded_total",
				Help:      "Total number of degraded-source events by source",
			},
			[]string{"source"},
		),
		BottlenecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bottleneck_warnings_total",
				Help:      "Total number of bottleneck warnings by metric",
			},
			[]string{"metric"},
		),
	}
}
