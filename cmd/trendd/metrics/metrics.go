// Package metrics provides Prometheus metrics instrumentation for trendd.
//
// It exposes operational metrics about the collection and analysis loop,
// including the duration of each stage (collect, analyze), the size and
// health of the snapshot series, and the findings of the latest report.
// All metrics are exposed via the /metrics HTTP endpoint for Prometheus
// scraping.
//
// Metrics exposed:
//   - hostpulse_collect_seconds: Histogram of snapshot collection duration
//   - hostpulse_analyze_seconds: Histogram of window analysis duration
//   - hostpulse_snapshots_appended_total: Counter of snapshots written to the store
//   - hostpulse_skipped_records: Gauge of malformed records skipped in the last window read
//   - hostpulse_window_data_points: Gauge of snapshots in the last analysis window
//   - hostpulse_report_age_seconds: Gauge of current report age, computed at scrape time
//   - hostpulse_warnings: Gauge of warnings in the current report
//   - hostpulse_anomalies: Gauge of anomalies in the current report
//   - hostpulse_errors_total: Counter of errors by component and reason
//
// All metrics include the host label so series from several hosts can share
// one Prometheus.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for trendd.
type Metrics struct {
	CollectSeconds         prometheus.Histogram
	AnalyzeSeconds         prometheus.Histogram
	SnapshotsAppendedTotal prometheus.Counter
	SkippedRecords         prometheus.Gauge
	WindowDataPoints       prometheus.Gauge
	ReportAgeSeconds       prometheus.GaugeFunc
	Warnings               prometheus.Gauge
	Anomalies              prometheus.Gauge
	ErrorsTotal            *prometheus.CounterVec

	// reportGeneratedAt holds the latest report's generation instant as
	// unix nanos; zero until the first report. The age gauge derives its
	// value from this at scrape time so it keeps growing between ticks.
	reportGeneratedAt atomic.Int64
}

// New creates and registers all Prometheus metrics.
func New(host string) *Metrics {
	m := &Metrics{
		CollectSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "hostpulse_collect_seconds",
			Help: "Time spent collecting one snapshot",
			ConstLabels: prometheus.Labels{
				"host": host,
			},
			Buckets: prometheus.DefBuckets,
		}),

		AnalyzeSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "hostpulse_analyze_seconds",
			Help: "Time spent loading the window and analyzing trends",
			ConstLabels: prometheus.Labels{
				"host": host,
			},
			Buckets: prometheus.DefBuckets,
		}),

		SnapshotsAppendedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hostpulse_snapshots_appended_total",
			Help: "Total snapshots written to the store",
			ConstLabels: prometheus.Labels{
				"host": host,
			},
		}),

		SkippedRecords: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hostpulse_skipped_records",
			Help: "Malformed records skipped during the last window read",
			ConstLabels: prometheus.Labels{
				"host": host,
			},
		}),

		WindowDataPoints: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hostpulse_window_data_points",
			Help: "Snapshots in the last analysis window",
			ConstLabels: prometheus.Labels{
				"host": host,
			},
		}),

		Warnings: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hostpulse_warnings",
			Help: "Warnings in the current report",
			ConstLabels: prometheus.Labels{
				"host": host,
			},
		}),

		Anomalies: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hostpulse_anomalies",
			Help: "Anomalies in the current report",
			ConstLabels: prometheus.Labels{
				"host": host,
			},
		}),

		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hostpulse_errors_total",
			Help: "Total number of errors by component and reason",
			ConstLabels: prometheus.Labels{
				"host": host,
			},
		}, []string{"component", "reason"}),
	}

	m.ReportAgeSeconds = promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "hostpulse_report_age_seconds",
		Help: "Age of the current report in seconds",
		ConstLabels: prometheus.Labels{
			"host": host,
		},
	}, func() float64 {
		ns := m.reportGeneratedAt.Load()
		if ns == 0 {
			return 0
		}
		return time.Since(time.Unix(0, ns)).Seconds()
	})

	return m
}

// RecordCollect records the time spent collecting a snapshot.
func (m *Metrics) RecordCollect(seconds float64) {
	m.CollectSeconds.Observe(seconds)
}

// RecordAnalyze records the time spent analyzing the window.
func (m *Metrics) RecordAnalyze(seconds float64) {
	m.AnalyzeSeconds.Observe(seconds)
}

// RecordAppend increments the appended snapshot counter.
func (m *Metrics) RecordAppend() {
	m.SnapshotsAppendedTotal.Inc()
}

// SetWindow records the size and skip count of the last window read.
func (m *Metrics) SetWindow(dataPoints, skipped int) {
	m.WindowDataPoints.Set(float64(dataPoints))
	m.SkippedRecords.Set(float64(skipped))
}

// SetReportGenerated records when the current report was generated. The
// age gauge reports time elapsed since this instant.
func (m *Metrics) SetReportGenerated(t time.Time) {
	m.reportGeneratedAt.Store(t.UnixNano())
}

// SetFindings records the warning and anomaly counts of the current report.
func (m *Metrics) SetFindings(warnings, anomalies int) {
	m.Warnings.Set(float64(warnings))
	m.Anomalies.Set(float64(anomalies))
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, reason string) {
	m.ErrorsTotal.WithLabelValues(component, reason).Inc()
}
