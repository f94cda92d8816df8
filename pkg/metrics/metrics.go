// Package metrics records ingestion activity as Prometheus metrics.
//
// # Overview
//
// A Recorder owns its own registry so tests and embedded callers do not
// collide with the process-wide default registry. The CLI writes the
// registry to a node-exporter style textfile at exit.
//
// # Basic Usage
//
//	rec := metrics.New()
//	timer := metrics.NewTimer("ingest")
//	tbl, err := read(path)
//	rec.ObserveIngest("csv", metrics.Status(err), tbl.NumRows(), timer.Stop())
//	_ = rec.WriteTextfile("/var/lib/node_exporter/datascope.prom")
//
// # Metrics
//
//	datascope_files_ingested_total{format,status}   counter
//	datascope_rows_read_total{format}               counter
//	datascope_diagnostics_total{code}               counter
//	datascope_ingest_duration_seconds{format}       histogram
//	datascope_process_rss_bytes                     gauge
//
// All methods are safe on a nil *Recorder, which records nothing.
package metrics

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/process"
)

const namespace = "datascope"

// Recorder holds the collectors for one run
type Recorder struct {
	registry *prometheus.Registry

	FilesIngested  *prometheus.CounterVec
	RowsRead       *prometheus.CounterVec
	Diagnostics    *prometheus.CounterVec
	IngestDuration *prometheus.HistogramVec
	ProcessRSS     prometheus.Gauge
}

// New creates a Recorder with a fresh registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		// Labels: format (csv/xlsx/json/parquet/sql), status (success/error)
		FilesIngested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_ingested_total",
				Help:      "Total number of ingestion attempts",
			},
			[]string{"format", "status"},
		),

		RowsRead: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_read_total",
				Help:      "Total number of rows read",
			},
			[]string{"format"},
		),

		// Labels: code (missing_values/duplicate_rows)
		Diagnostics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "diagnostics_total",
				Help:      "Total number of data-quality diagnostics emitted",
			},
			[]string{"code"},
		),

		IngestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ingest_duration_seconds",
				Help:      "Time spent reading and validating one input",
				Buckets: []float64{
					0.001, // small fixtures
					0.01,
					0.1,
					1,
					10,
					60, // large spreadsheets
				},
			},
			[]string{"format"},
		),

		ProcessRSS: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "process_rss_bytes",
				Help:      "Resident set size of the process when last sampled",
			},
		),
	}
}

// Registry exposes the underlying registry for gathering
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveIngest records one ingestion attempt. rows is ignored on failure.
func (r *Recorder) ObserveIngest(format, status string, rows int, d time.Duration) {
	if r == nil {
		return
	}
	r.FilesIngested.WithLabelValues(format, status).Inc()
	r.IngestDuration.WithLabelValues(format).Observe(d.Seconds())
	if status == StatusSuccess {
		r.RowsRead.WithLabelValues(format).Add(float64(rows))
	}
}

// ObserveDiagnostic counts one emitted diagnostic
func (r *Recorder) ObserveDiagnostic(code string) {
	if r == nil {
		return
	}
	r.Diagnostics.WithLabelValues(code).Inc()
}

// SampleProcess updates the RSS gauge from the operating system
func (r *Recorder) SampleProcess() error {
	if r == nil {
		return nil
	}
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // pid fits in int32
	if err != nil {
		return err
	}
	memInfo, err := proc.MemoryInfo()
	if err != nil {
		return err
	}
	r.ProcessRSS.Set(float64(memInfo.RSS))
	return nil
}

// WriteTextfile samples the process and writes every metric to path in the
// Prometheus text format. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	// RSS is best effort; some sandboxes hide /proc.
	_ = r.SampleProcess()
	return prometheus.WriteToTextfile(path, r.registry)
}

// Status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Status maps an error to a status label
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer's label
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It may be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
