// Package main implements the core collection and analysis loop.
//
// This file contains the Monitor type which orchestrates the pipeline:
//
//	collect → append → load window → summarize → classify → publish report
//
// The Monitor runs continuously via Run(), executing Tick() at regular
// intervals. Each tick captures one snapshot, appends it to the store, and
// rebuilds the trend report over the configured window. The latest report
// is published for the HTTP API to serve.
//
// The loop is instrumented with Prometheus metrics tracking the duration of
// each stage (collect, analyze) and any errors encountered during execution.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/HatiCode/hostpulse/cmd/trendd/metrics"
	"github.com/HatiCode/hostpulse/pkg/collect"
	"github.com/HatiCode/hostpulse/pkg/policy"
	"github.com/HatiCode/hostpulse/pkg/report"
	"github.com/HatiCode/hostpulse/pkg/snapshot"
	"github.com/HatiCode/hostpulse/pkg/store"
	"github.com/HatiCode/hostpulse/pkg/trend"
	"github.com/HatiCode/hostpulse/pkg/window"
)

// Monitor orchestrates the loop: collect → append → analyze → publish.
type Monitor struct {
	host     string
	provider collect.Provider
	store    store.Store
	policy   policy.Policy
	window   time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics

	// now is swappable for tests.
	now func() time.Time

	mu     sync.RWMutex
	latest *report.Report
	sink   func(report.Report)
}

// NewMonitor creates a new Monitor.
func NewMonitor(
	host string,
	provider collect.Provider,
	st store.Store,
	pol policy.Policy,
	windowDur time.Duration,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Monitor{
		host:     host,
		provider: provider,
		store:    st,
		policy:   pol,
		window:   windowDur,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// Run executes the collection loop at regular intervals.
// Blocks until context is canceled.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) error {
	m.logger.Info("starting collection loop", "interval", interval, "window", m.window)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := m.Tick(ctx); err != nil {
		m.logger.Error("initial tick failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("collection loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.Tick(ctx); err != nil {
				m.logger.Error("tick failed", "error", err)
			}
		}
	}
}

// Tick performs one collect-and-analyze cycle and returns the report it
// published. Exported for testing purposes and for -once mode.
func (m *Monitor) Tick(ctx context.Context) (report.Report, error) {
	start := m.now()
	m.logger.Debug("starting tick")

	snap, collectDuration, err := m.collect(ctx, start)
	if err != nil {
		if m.metrics != nil {
			m.metrics.RecordError("provider", "collect_failed")
		}
		return report.Report{}, fmt.Errorf("collect: %w", err)
	}

	if err := m.store.Append(ctx, snap); err != nil {
		if m.metrics != nil {
			m.metrics.RecordError("store", "append_failed")
		}
		return report.Report{}, fmt.Errorf("append: %w", err)
	}
	if m.metrics != nil {
		m.metrics.RecordAppend()
	}

	rep, analyzeDuration, err := m.analyze(ctx, start, &snap)
	if err != nil {
		if m.metrics != nil {
			m.metrics.RecordError("store", "list_failed")
		}
		return report.Report{}, fmt.Errorf("analyze: %w", err)
	}

	m.publish(rep)
	if m.sink != nil {
		m.sink(rep)
	}

	if m.metrics != nil {
		m.metrics.SetReportGenerated(rep.GeneratedAt)
		m.metrics.SetWindow(rep.DataPoints, rep.SkippedRecords)
		m.metrics.SetFindings(len(rep.Warnings), len(rep.Anomalies))
	}

	totalDuration := time.Since(start)
	m.logger.Info("tick complete",
		"host", m.host,
		"status", rep.Status,
		"data_points", rep.DataPoints,
		"warnings", len(rep.Warnings),
		"anomalies", len(rep.Anomalies),
		"collect_ms", collectDuration.Milliseconds(),
		"analyze_ms", analyzeDuration.Milliseconds(),
		"total_ms", totalDuration.Milliseconds(),
	)

	return rep, nil
}

// collect captures one snapshot from the provider.
func (m *Monitor) collect(ctx context.Context, now time.Time) (snapshot.Snapshot, time.Duration, error) {
	start := time.Now()

	snap, err := m.provider.Collect(ctx, now)
	if err != nil {
		return snapshot.Snapshot{}, 0, err
	}

	duration := time.Since(start)

	if m.metrics != nil {
		m.metrics.RecordCollect(duration.Seconds())
	}

	m.logger.Debug("collected snapshot",
		"provider", m.provider.Name(),
		"duration_ms", duration.Milliseconds(),
	)

	return snap, duration, nil
}

// analyze loads the window from the store and builds the trend report.
func (m *Monitor) analyze(ctx context.Context, now time.Time, current *snapshot.Snapshot) (report.Report, time.Duration, error) {
	start := time.Now()

	w, err := window.Load(ctx, m.store, now, m.window)
	if err != nil {
		return report.Report{}, 0, err
	}

	summaries := trend.Summarize(w.Snapshots)
	classification := policy.Classify(summaries, m.policy)

	latest := current
	if snap := w.Latest(); snap != nil {
		latest = snap
	}
	rep := report.Build(now, latest, w, summaries, classification)

	duration := time.Since(start)

	if m.metrics != nil {
		m.metrics.RecordAnalyze(duration.Seconds())
	}

	m.logger.Debug("analyzed window",
		"data_points", rep.DataPoints,
		"skipped_records", rep.SkippedRecords,
		"duration_ms", duration.Milliseconds(),
	)

	return rep, duration, nil
}

// SetSink registers a callback invoked with each published report, used
// to mirror reports to a file. Must be called before Run.
func (m *Monitor) SetSink(sink func(report.Report)) {
	m.sink = sink
}

// publish replaces the report served by the HTTP API.
func (m *Monitor) publish(rep report.Report) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = &rep
}

// Latest returns the most recently published report.
// The second return value is false until the first successful tick.
func (m *Monitor) Latest() (report.Report, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latest == nil {
		return report.Report{}, false
	}
	return *m.latest, true
}

// Host returns the host identifier this monitor collects for.
func (m *Monitor) Host() string {
	return m.host
}
