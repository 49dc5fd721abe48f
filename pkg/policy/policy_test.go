package policy

import (
	"reflect"
	"testing"
	"time"

	"github.com/HatiCode/hostpulse/pkg/snapshot"
	"github.com/HatiCode/hostpulse/pkg/trend"
)

func summarizeDisk(t *testing.T, percents ...float64) map[string]trend.Summary {
	t.Helper()
	base := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	snaps := make([]snapshot.Snapshot, len(percents))
	for i, p := range percents {
		snaps[i] = snapshot.Snapshot{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Disk:      snapshot.Disk{UsagePercent: snapshot.Float(p)},
		}
	}
	return trend.Summarize(snaps)
}

func summarizeLoad(t *testing.T, loads ...float64) map[string]trend.Summary {
	t.Helper()
	base := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	snaps := make([]snapshot.Snapshot, len(loads))
	for i, l := range loads {
		snaps[i] = snapshot.Snapshot{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Load:      snapshot.Load{Load1: snapshot.Float(l)},
		}
	}
	return trend.Summarize(snaps)
}

func hasWarning(r Result, metric string, severity Severity) bool {
	for _, w := range r.Warnings {
		if w.Metric == metric && w.Severity == severity {
			return true
		}
	}
	return false
}

func hasAnomaly(r Result, kind string) bool {
	for _, a := range r.Anomalies {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

func skipped(r Result, rule string) bool {
	for _, s := range r.SkippedRules {
		if s == rule {
			return true
		}
	}
	return false
}

func TestClassify_DiskThresholds(t *testing.T) {
	tests := []struct {
		name         string
		current      float64
		wantSeverity Severity
		wantNone     bool
	}{
		{name: "above high", current: 81, wantSeverity: SeverityHigh},
		{name: "between medium and high", current: 75, wantSeverity: SeverityMedium},
		{name: "exactly high is medium band", current: 80, wantSeverity: SeverityMedium},
		{name: "exactly medium is clear", current: 70, wantNone: true},
		{name: "well below", current: 40, wantNone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Two flat samples so the rule is evaluated on real data.
			r := Classify(summarizeDisk(t, tt.current, tt.current), Default())
			if tt.wantNone {
				if len(r.Warnings) != 0 {
					t.Errorf("Warnings = %v, want none", r.Warnings)
				}
				return
			}
			if !hasWarning(r, trend.MetricDiskUsagePercent, tt.wantSeverity) {
				t.Errorf("want %s disk warning, got %v", tt.wantSeverity, r.Warnings)
			}
		})
	}
}

func TestClassify_DiskGrowthAnomaly(t *testing.T) {
	// Growth over the last 4 samples is (81-65)/3 = 5.33 > 2, and the
	// current value 81 clears the high threshold.
	r := Classify(summarizeDisk(t, 60, 65, 70, 76, 81), Default())

	if !hasWarning(r, trend.MetricDiskUsagePercent, SeverityHigh) {
		t.Errorf("want high disk warning, got %v", r.Warnings)
	}
	if !hasAnomaly(r, AnomalyDiskGrowth) {
		t.Errorf("want disk_growth anomaly, got %v", r.Anomalies)
	}
	if skipped(r, RuleDiskGrowth) {
		t.Error("disk_growth rule should have been evaluated")
	}
}

func TestClassify_DiskGrowth_RequiresFourSamples(t *testing.T) {
	// Steep growth but only 3 samples: rule must be skipped, not fired.
	r := Classify(summarizeDisk(t, 60, 70, 81), Default())

	if hasAnomaly(r, AnomalyDiskGrowth) {
		t.Error("disk_growth must not fire with fewer than 4 samples")
	}
	if !skipped(r, RuleDiskGrowth) {
		t.Error("disk_growth should be reported as skipped")
	}
}

func TestClassify_DiskGrowth_FlatIsNotAnomalous(t *testing.T) {
	r := Classify(summarizeDisk(t, 60, 61, 61, 62), Default())

	if hasAnomaly(r, AnomalyDiskGrowth) {
		t.Error("slow growth should not be anomalous")
	}
	if skipped(r, RuleDiskGrowth) {
		t.Error("rule was evaluated; it must not appear in SkippedRules")
	}
}

func TestClassify_LoadSpike(t *testing.T) {
	// [0.5, 0.4, 0.6, 3.0] has average 1.125 and max 3.0;
	// 3.0 > 3x1.125 is false, so no spike.
	r := Classify(summarizeLoad(t, 0.5, 0.4, 0.6, 3.0), Default())
	if hasAnomaly(r, AnomalyLoadSpike) {
		t.Errorf("no spike expected, got %v", r.Anomalies)
	}

	// [0.5, 0.4, 0.6, 6.0]: average 1.875, max 6.0 > 3x1.875 = 5.625.
	r = Classify(summarizeLoad(t, 0.5, 0.4, 0.6, 6.0), Default())
	if !hasAnomaly(r, AnomalyLoadSpike) {
		t.Errorf("want load_spike anomaly, got %v", r.Anomalies)
	}
}

func TestClassify_LoadAverageWarning(t *testing.T) {
	r := Classify(summarizeLoad(t, 2.5, 2.8, 3.1), Default())
	if !hasWarning(r, trend.MetricLoad1, SeverityHigh) {
		t.Errorf("want high load warning, got %v", r.Warnings)
	}

	r = Classify(summarizeLoad(t, 0.5, 0.6, 0.4), Default())
	if len(r.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", r.Warnings)
	}
}

func TestClassify_LoadSpike_SkippedOnSingleSample(t *testing.T) {
	r := Classify(summarizeLoad(t, 9.0), Default())

	if hasAnomaly(r, AnomalyLoadSpike) {
		t.Error("spike rule must not fire on a single sample")
	}
	if !skipped(r, RuleLoadSpike) {
		t.Error("load_spike should be reported as skipped")
	}
}

func TestClassify_AllRulesSkippedWithoutData(t *testing.T) {
	r := Classify(map[string]trend.Summary{}, Default())

	if len(r.Warnings) != 0 || len(r.Anomalies) != 0 {
		t.Errorf("empty summaries produced findings: %+v", r)
	}
	for _, rule := range []string{RuleDiskThreshold, RuleDiskGrowth, RuleLoadAverage, RuleLoadSpike} {
		if !skipped(r, rule) {
			t.Errorf("rule %s should be skipped with no data", rule)
		}
	}
}

func TestClassify_IsPure(t *testing.T) {
	summaries := summarizeDisk(t, 60, 65, 70, 76, 81)

	first := Classify(summaries, Default())
	second := Classify(summaries, Default())

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Classify is not deterministic:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestClassify_ZeroPolicyFallsBackToDefaults(t *testing.T) {
	r := Classify(summarizeDisk(t, 81, 81, 81, 81), Policy{})

	if !hasWarning(r, trend.MetricDiskUsagePercent, SeverityHigh) {
		t.Errorf("zero policy should behave like Default(), got %v", r.Warnings)
	}
}

func TestClassify_OverriddenThreshold(t *testing.T) {
	p := Default()
	p.DiskWarnHighPercent = 90

	r := Classify(summarizeDisk(t, 85, 85), p)

	if hasWarning(r, trend.MetricDiskUsagePercent, SeverityHigh) {
		t.Error("85% should not be high with a 90% threshold")
	}
	if !hasWarning(r, trend.MetricDiskUsagePercent, SeverityMedium) {
		t.Errorf("85%% should still be medium, got %v", r.Warnings)
	}
}

func TestDockerCountsProduceNoFindings(t *testing.T) {
	base := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	snaps := []snapshot.Snapshot{
		{Timestamp: base, Docker: snapshot.Docker{Total: snapshot.Int(50), Running: snapshot.Int(50)}},
		{Timestamp: base.Add(time.Minute), Docker: snapshot.Docker{Total: snapshot.Int(2), Running: snapshot.Int(1)}},
	}

	r := Classify(trend.Summarize(snaps), Default())
	if len(r.Warnings) != 0 || len(r.Anomalies) != 0 {
		t.Errorf("container counts are trend-only, got %+v", r)
	}
}
