// Package trend computes per-metric summary statistics over a snapshot
// window.
//
// Statistics only ever see values that were actually captured: a snapshot
// whose provider could not read a field contributes nothing to that
// metric, so an hour of missing load data never drags an average toward
// zero. A metric with fewer than two present values cannot express a
// trend and is marked insufficient instead of reporting a fabricated
// zero delta as fact.
package trend

import (
	"github.com/HatiCode/hostpulse/pkg/snapshot"
)

// Metric names used as keys in the summary map and in classifier policy.
const (
	MetricDiskUsagePercent  = "disk_usage_percent"
	MetricMemoryUsed        = "memory_used"
	MetricMemoryAvailable   = "memory_available"
	MetricLoad1             = "load_1min"
	MetricLoad5             = "load_5min"
	MetricLoad15            = "load_15min"
	MetricContainersTotal   = "containers_total"
	MetricContainersRunning = "containers_running"
)

// Summary holds derived statistics for one metric over a window.
// It is recomputed on every analysis call and never persisted.
type Summary struct {
	Current      float64 `json:"current"`
	Average      float64 `json:"average"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Delta        float64 `json:"delta_over_window"`
	DeltaPercent float64 `json:"delta_as_percent_of_average"`
	Samples      int     `json:"samples"`

	// InsufficientData marks a metric with fewer than two present values.
	// Delta is zero in that state and threshold rules that need a trend
	// are skipped rather than evaluated against it.
	InsufficientData bool `json:"insufficient_data,omitempty"`

	// Values carries the present values in window order for rules that
	// inspect the series shape (growth rate over trailing samples).
	Values []float64 `json:"-"`
}

// extractor pulls one metric's value out of a snapshot, nil when absent.
type extractor func(snapshot.Snapshot) *float64

var metrics = map[string]extractor{
	MetricDiskUsagePercent: func(s snapshot.Snapshot) *float64 { return s.Disk.UsagePercent },
	MetricMemoryUsed:       func(s snapshot.Snapshot) *float64 { return s.Memory.Used },
	MetricMemoryAvailable:  func(s snapshot.Snapshot) *float64 { return s.Memory.Available },
	MetricLoad1:            func(s snapshot.Snapshot) *float64 { return s.Load.Load1 },
	MetricLoad5:            func(s snapshot.Snapshot) *float64 { return s.Load.Load5 },
	MetricLoad15:           func(s snapshot.Snapshot) *float64 { return s.Load.Load15 },
	MetricContainersTotal:  func(s snapshot.Snapshot) *float64 { return intValue(s.Docker.Total) },
	MetricContainersRunning: func(s snapshot.Snapshot) *float64 {
		return intValue(s.Docker.Running)
	},
}

func intValue(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

// Summarize computes a Summary per metric over the ordered window.
// Metrics with no present value at all are omitted from the result.
func Summarize(snaps []snapshot.Snapshot) map[string]Summary {
	summaries := make(map[string]Summary, len(metrics))

	for name, extract := range metrics {
		values := make([]float64, 0, len(snaps))
		for _, snap := range snaps {
			if v := extract(snap); v != nil {
				values = append(values, *v)
			}
		}
		if len(values) == 0 {
			continue
		}
		summaries[name] = summarize(values)
	}

	return summaries
}

func summarize(values []float64) Summary {
	sum := 0.0
	min := values[0]
	max := values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	avg := sum / float64(len(values))

	s := Summary{
		Current: values[len(values)-1],
		Average: avg,
		Min:     min,
		Max:     max,
		Samples: len(values),
		Values:  values,
	}

	if len(values) < 2 {
		s.InsufficientData = true
		return s
	}

	s.Delta = values[len(values)-1] - values[0]
	if avg > 0 {
		s.DeltaPercent = s.Delta / avg * 100
	}
	return s
}
