package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// RunStats are the counts published after one processing run.
type RunStats struct {
	RowsRead        int
	CompletedTrips  int
	UnknownVehicles int
	DroppedRows     int
	Drivers         int
	Fleets          int
	Methods         int
	FilesWritten    int
	Duration        time.Duration
}

// Manager owns the run metrics and the registry they live in.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         *prometheus.Registry

	runs            *prometheus.CounterVec
	runDuration     prometheus.Histogram
	lastSuccessUnix prometheus.Gauge
	rowsRead        prometheus.Gauge
	completedTrips  prometheus.Gauge
	unknownVehicles prometheus.Gauge
	droppedRows     prometheus.Gauge
	drivers         prometheus.Gauge
	fleets          prometheus.Gauge
	paymentMethods  prometheus.Gauge
	filesWritten    prometheus.Gauge
}

// NewManager creates a manager with its own registry unless WithRegistry is
// given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fleetsum",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		constLabels:      map[string]string{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.runs = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "runs_total",
		Help:        "Processing runs by outcome.",
		ConstLabels: m.constLabels,
	}, []string{"status"})

	m.runDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "run_duration_seconds",
		Help:        "Wall time of a processing run.",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.lastSuccessUnix = m.gauge(factory, "last_success_timestamp_seconds", "Unix time of the last successful run.")
	m.rowsRead = m.gauge(factory, "rows_read", "Data rows read from the trip export.")
	m.completedTrips = m.gauge(factory, "completed_trips", "Rows whose trip status is completed.")
	m.unknownVehicles = m.gauge(factory, "unknown_vehicle_trips", "Completed trips whose vehicle has no contract.")
	m.droppedRows = m.gauge(factory, "dropped_rows", "Completed trips left out of the summary for a missing fleet or driver.")
	m.drivers = m.gauge(factory, "drivers", "Rows in the combined summary.")
	m.fleets = m.gauge(factory, "fleets", "Distinct fleets in the summary.")
	m.paymentMethods = m.gauge(factory, "payment_methods", "Distinct non-cash payment methods.")
	m.filesWritten = m.gauge(factory, "files_written", "Output files written by the run.")
}

func (m *Manager) gauge(factory promauto.Factory, name, help string) prometheus.Gauge {
	return factory.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

// RecordSuccess publishes the counts of a finished run.
func (m *Manager) RecordSuccess(stats RunStats, finished time.Time) {
	m.runs.WithLabelValues(StatusSuccess).Inc()
	m.runDuration.Observe(stats.Duration.Seconds())
	m.lastSuccessUnix.Set(float64(finished.Unix()))

	m.rowsRead.Set(float64(stats.RowsRead))
	m.completedTrips.Set(float64(stats.CompletedTrips))
	m.unknownVehicles.Set(float64(stats.UnknownVehicles))
	m.droppedRows.Set(float64(stats.DroppedRows))
	m.drivers.Set(float64(stats.Drivers))
	m.fleets.Set(float64(stats.Fleets))
	m.paymentMethods.Set(float64(stats.Methods))
	m.filesWritten.Set(float64(stats.FilesWritten))
}

// RecordFailure counts a failed run.
func (m *Manager) RecordFailure(duration time.Duration) {
	m.runs.WithLabelValues(StatusFailure).Inc()
	m.runDuration.Observe(duration.Seconds())
}

// Registry returns the registry holding the run metrics.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every registered metric to path in the text
// exposition format. The file is replaced atomically.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}
