// Package policy classifies trend summaries into threshold warnings and
// pattern anomalies using a deterministic, named-constant policy table.
//
// A Warning flags an absolute level ("disk is at 81%"); an Anomaly flags
// an unusual pattern ("disk grew 5 points per sample") even when the
// absolute level is still acceptable. Classification is a pure function
// of its inputs: no I/O, no clock, no state between calls.
package policy

import (
	"fmt"

	"github.com/HatiCode/hostpulse/pkg/trend"
)

// Severity grades warnings and anomalies.
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Anomaly kinds.
const (
	AnomalyDiskGrowth = "disk_growth"
	AnomalyLoadSpike  = "load_spike"
)

// Rule names, reported in Result.SkippedRules when a rule could not be
// evaluated for lack of data.
const (
	RuleDiskThreshold = "disk_threshold"
	RuleDiskGrowth    = "disk_growth"
	RuleLoadAverage   = "load_average"
	RuleLoadSpike     = "load_spike"
)

// Default thresholds. Deployments that need different limits override the
// corresponding Policy field; the rules themselves stay fixed.
const (
	DefaultDiskWarnMediumPercent   = 70.0
	DefaultDiskWarnHighPercent     = 80.0
	DefaultDiskGrowthWindowSamples = 4
	DefaultDiskGrowthRateThreshold = 2.0
	DefaultLoadAvgWarnHigh         = 2.0
	DefaultLoadSpikeMultiplier     = 3.0
)

// Policy is the threshold table the classifier applies.
type Policy struct {
	// DiskWarnMediumPercent and DiskWarnHighPercent bound the disk usage
	// warning bands: current > high is a high warning, current > medium
	// a medium one.
	DiskWarnMediumPercent float64
	DiskWarnHighPercent   float64

	// DiskGrowthWindowSamples is how many trailing window samples the
	// growth rule compares across; the rule is skipped with fewer.
	DiskGrowthWindowSamples int

	// DiskGrowthRateThreshold is the growth rate, in percentage points
	// per sample interval, above which disk growth is anomalous.
	DiskGrowthRateThreshold float64

	// LoadAvgWarnHigh is the window-average 1-minute load above which a
	// high warning fires.
	LoadAvgWarnHigh float64

	// LoadSpikeMultiplier flags a spike when the window maximum exceeds
	// this multiple of the window average.
	LoadSpikeMultiplier float64
}

// Default returns the stock policy table.
func Default() Policy {
	return Policy{
		DiskWarnMediumPercent:   DefaultDiskWarnMediumPercent,
		DiskWarnHighPercent:     DefaultDiskWarnHighPercent,
		DiskGrowthWindowSamples: DefaultDiskGrowthWindowSamples,
		DiskGrowthRateThreshold: DefaultDiskGrowthRateThreshold,
		LoadAvgWarnHigh:         DefaultLoadAvgWarnHigh,
		LoadSpikeMultiplier:     DefaultLoadSpikeMultiplier,
	}
}

// Warning is an absolute-threshold breach.
type Warning struct {
	Metric   string   `json:"metric"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Anomaly is a pattern-based classification, independent of absolute level.
type Anomaly struct {
	Kind     string   `json:"kind"`
	Metric   string   `json:"metric"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Result is the classifier output. SkippedRules names the rules that were
// not evaluated because the data was insufficient, so "rule evaluated,
// nothing found" and "rule not evaluated" stay distinguishable.
type Result struct {
	Warnings     []Warning `json:"warnings"`
	Anomalies    []Anomaly `json:"anomalies"`
	SkippedRules []string  `json:"skipped_rules,omitempty"`
}

// Classify applies the policy to the summaries. Zero-valued policy fields
// fall back to the defaults, so a partially-overridden Policy stays sane.
func Classify(summaries map[string]trend.Summary, p Policy) Result {
	if p.DiskWarnMediumPercent <= 0 {
		p.DiskWarnMediumPercent = DefaultDiskWarnMediumPercent
	}
	if p.DiskWarnHighPercent <= 0 {
		p.DiskWarnHighPercent = DefaultDiskWarnHighPercent
	}
	if p.DiskWarnHighPercent < p.DiskWarnMediumPercent {
		p.DiskWarnHighPercent = p.DiskWarnMediumPercent
	}
	if p.DiskGrowthWindowSamples <= 1 {
		p.DiskGrowthWindowSamples = DefaultDiskGrowthWindowSamples
	}
	if p.DiskGrowthRateThreshold <= 0 {
		p.DiskGrowthRateThreshold = DefaultDiskGrowthRateThreshold
	}
	if p.LoadAvgWarnHigh <= 0 {
		p.LoadAvgWarnHigh = DefaultLoadAvgWarnHigh
	}
	if p.LoadSpikeMultiplier <= 0 {
		p.LoadSpikeMultiplier = DefaultLoadSpikeMultiplier
	}

	var result Result

	disk, haveDisk := summaries[trend.MetricDiskUsagePercent]

	// Disk level thresholds compare the current value only.
	if haveDisk {
		switch {
		case disk.Current > p.DiskWarnHighPercent:
			result.Warnings = append(result.Warnings, Warning{
				Metric:   trend.MetricDiskUsagePercent,
				Severity: SeverityHigh,
				Message:  fmt.Sprintf("Disk usage is at %.1f%%", disk.Current),
			})
		case disk.Current > p.DiskWarnMediumPercent:
			result.Warnings = append(result.Warnings, Warning{
				Metric:   trend.MetricDiskUsagePercent,
				Severity: SeverityMedium,
				Message:  fmt.Sprintf("Disk usage is at %.1f%%", disk.Current),
			})
		}
	} else {
		result.SkippedRules = append(result.SkippedRules, RuleDiskThreshold)
	}

	// Disk growth compares the latest sample against the one
	// DiskGrowthWindowSamples-1 intervals back.
	if haveDisk && len(disk.Values) >= p.DiskGrowthWindowSamples {
		n := p.DiskGrowthWindowSamples
		vals := disk.Values
		rate := (vals[len(vals)-1] - vals[len(vals)-n]) / float64(n-1)
		if rate > p.DiskGrowthRateThreshold {
			result.Anomalies = append(result.Anomalies, Anomaly{
				Kind:     AnomalyDiskGrowth,
				Metric:   trend.MetricDiskUsagePercent,
				Severity: SeverityMedium,
				Message:  fmt.Sprintf("Disk growing at %.2f%% per sample interval", rate),
			})
		}
	} else {
		result.SkippedRules = append(result.SkippedRules, RuleDiskGrowth)
	}

	load, haveLoad := summaries[trend.MetricLoad1]

	if haveLoad {
		if load.Average > p.LoadAvgWarnHigh {
			result.Warnings = append(result.Warnings, Warning{
				Metric:   trend.MetricLoad1,
				Severity: SeverityHigh,
				Message:  fmt.Sprintf("High average load: %.2f", load.Average),
			})
		}
	} else {
		result.SkippedRules = append(result.SkippedRules, RuleLoadAverage)
	}

	// A spike needs a distribution to stand out from; one sample is its
	// own average and proves nothing.
	if haveLoad && !load.InsufficientData {
		if load.Max > p.LoadSpikeMultiplier*load.Average {
			result.Anomalies = append(result.Anomalies, Anomaly{
				Kind:     AnomalyLoadSpike,
				Metric:   trend.MetricLoad1,
				Severity: SeverityMedium,
				Message:  fmt.Sprintf("Load spike detected: %.2f (avg: %.2f)", load.Max, load.Average),
			})
		}
	} else {
		result.SkippedRules = append(result.SkippedRules, RuleLoadSpike)
	}

	return result
}
