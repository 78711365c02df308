package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and gauges for one conversion run.
// Each instance owns its registry so runs and tests never collide.
type Metrics struct {
	Registry *prometheus.Registry

	LinesRead           prometheus.Counter
	RecordsWritten      prometheus.Counter
	RecordsSkipped      prometheus.Counter
	RecordsFiltered     prometheus.Counter
	CoordinateFallbacks prometheus.Counter

	RunDuration     prometheus.Gauge
	LastSuccessTime prometheus.Gauge
}

// NewMetrics creates and registers all run metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		LinesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "btsconv",
			Name:      "lines_read_total",
			Help:      "Total input lines read, header included.",
		}),
		RecordsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "btsconv",
			Name:      "records_written_total",
			Help:      "Total data records written to the output file.",
		}),
		RecordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "btsconv",
			Name:      "records_skipped_total",
			Help:      "Total data records dropped after a processing error.",
		}),
		RecordsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "btsconv",
			Name:      "records_filtered_total",
			Help:      "Total data records left out by a filter.",
		}),
		CoordinateFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "btsconv",
			Name:      "coordinate_fallbacks_total",
			Help:      "Coordinate fields written as 0.0 after a decode failure.",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "btsconv",
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		LastSuccessTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "btsconv",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time the last run completed.",
		}),
	}

	m.Registry.MustRegister(
		m.LinesRead,
		m.RecordsWritten,
		m.RecordsSkipped,
		m.RecordsFiltered,
		m.CoordinateFallbacks,
		m.RunDuration,
		m.LastSuccessTime,
	)

	return m
}

// WriteTextfile writes the registry in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
