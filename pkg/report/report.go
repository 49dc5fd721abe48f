// Package report assembles the analysis output handed to renderers.
//
// A Report is the complete result of one pipeline pass: the snapshot just
// captured, the per-metric trend summaries over the window, and the
// classified warnings and anomalies. It marshals directly to the JSON
// output format and renders itself as human-readable text.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/HatiCode/hostpulse/pkg/policy"
	"github.com/HatiCode/hostpulse/pkg/snapshot"
	"github.com/HatiCode/hostpulse/pkg/trend"
	"github.com/HatiCode/hostpulse/pkg/window"
)

// Status values for a report.
const (
	StatusOK     = "ok"
	StatusNoData = "no_data"
)

// Report is the output structure consumed by renderers.
type Report struct {
	GeneratedAt    time.Time                `json:"generated_at"`
	Status         string                   `json:"status"`
	DataPoints     int                      `json:"data_points"`
	SkippedRecords int                      `json:"skipped_records,omitempty"`
	Current        *snapshot.Snapshot       `json:"current_snapshot,omitempty"`
	Trends         map[string]trend.Summary `json:"trend_summaries,omitempty"`
	Warnings       []policy.Warning         `json:"warnings"`
	Anomalies      []policy.Anomaly         `json:"anomalies"`
	SkippedRules   []string                 `json:"skipped_rules,omitempty"`
}

// Build assembles a report from one pipeline pass. current may be nil when
// collection failed entirely; an empty window yields a no_data report with
// empty findings rather than zero-filled summaries.
func Build(now time.Time, current *snapshot.Snapshot, w window.Window,
	summaries map[string]trend.Summary, classification policy.Result) Report {

	r := Report{
		GeneratedAt:    now,
		Status:         StatusOK,
		DataPoints:     len(w.Snapshots),
		SkippedRecords: w.Skipped,
		Current:        current,
		Trends:         summaries,
		Warnings:       classification.Warnings,
		Anomalies:      classification.Anomalies,
		SkippedRules:   classification.SkippedRules,
	}
	if w.Empty() {
		r.Status = StatusNoData
		r.Trends = nil
	}
	if r.Warnings == nil {
		r.Warnings = []policy.Warning{}
	}
	if r.Anomalies == nil {
		r.Anomalies = []policy.Anomaly{}
	}
	return r
}

// Render formats the report as human-readable text, section by section.
func (r Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# System Trend Analysis Report\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## Current System Status\n\n")
	if r.Current != nil {
		renderCurrent(&b, *r.Current)
	} else {
		b.WriteString("No current snapshot available.\n\n")
	}

	fmt.Fprintf(&b, "## Trend Analysis (%d data points)\n\n", r.DataPoints)
	if r.Status == StatusNoData {
		b.WriteString("No historical data available.\n\n")
	} else {
		renderTrends(&b, r.Trends)
	}
	if r.SkippedRecords > 0 {
		fmt.Fprintf(&b, "Skipped %d malformed record(s).\n\n", r.SkippedRecords)
	}

	if len(r.Warnings) > 0 {
		b.WriteString("## Warnings\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- [%s] %s\n", strings.ToUpper(string(w.Severity)), w.Message)
		}
		b.WriteString("\n")
	}

	if len(r.Anomalies) > 0 {
		b.WriteString("## Anomalies Detected\n")
		for _, a := range r.Anomalies {
			fmt.Fprintf(&b, "- [%s] %s\n", a.Kind, a.Message)
		}
		b.WriteString("\n")
	}

	if len(r.Warnings) == 0 && len(r.Anomalies) == 0 {
		b.WriteString("## Summary\n")
		if r.Status == StatusNoData {
			b.WriteString("No data to analyze yet.\n")
		} else {
			b.WriteString("No issues detected. System is operating normally.\n")
		}
	}

	return b.String()
}

func renderCurrent(b *strings.Builder, s snapshot.Snapshot) {
	b.WriteString("### Disk\n")
	fmt.Fprintf(b, "- Usage: %s\n", fmtPercent(s.Disk.UsagePercent))
	fmt.Fprintf(b, "- Size: %s  Used: %s  Available: %s\n\n",
		fmtNum(s.Disk.Size), fmtNum(s.Disk.Used), fmtNum(s.Disk.Available))

	b.WriteString("### Memory\n")
	fmt.Fprintf(b, "- Total: %s  Used: %s  Free: %s  Available: %s\n\n",
		fmtNum(s.Memory.Total), fmtNum(s.Memory.Used),
		fmtNum(s.Memory.Free), fmtNum(s.Memory.Available))

	b.WriteString("### Load\n")
	fmt.Fprintf(b, "- 1 min: %s  5 min: %s  15 min: %s\n\n",
		fmtNum(s.Load.Load1), fmtNum(s.Load.Load5), fmtNum(s.Load.Load15))

	b.WriteString("### Docker\n")
	fmt.Fprintf(b, "- Total: %s  Running: %s\n\n",
		fmtInt(s.Docker.Total), fmtInt(s.Docker.Running))
}

func renderTrends(b *strings.Builder, trends map[string]trend.Summary) {
	names := make([]string, 0, len(trends))
	for name := range trends {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := trends[name]
		fmt.Fprintf(b, "### %s\n", name)
		fmt.Fprintf(b, "- Current: %.2f  Average: %.2f  Min: %.2f  Max: %.2f\n",
			s.Current, s.Average, s.Min, s.Max)
		if s.InsufficientData {
			fmt.Fprintf(b, "- Trend: insufficient data (%d sample(s))\n\n", s.Samples)
		} else {
			fmt.Fprintf(b, "- Trend: %+.2f (%+.1f%% of average) over %d samples\n\n",
				s.Delta, s.DeltaPercent, s.Samples)
		}
	}
}

func fmtNum(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

func fmtPercent(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func fmtInt(v *int) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *v)
}
