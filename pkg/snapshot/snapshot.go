// Package snapshot defines the typed snapshot model for host metrics.
//
// A Snapshot is one timestamped capture of coarse host state: disk usage,
// memory usage, load averages, and container counts. Every metric field is
// a pointer so that "the provider could not produce this value" is a typed
// state (nil) rather than a zero that would silently skew averages
// downstream. Snapshots are immutable once stored; stores and analyzers
// operate on copies.
package snapshot

import (
	"fmt"
	"time"
)

// Snapshot is one capture of system state at a point in time.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Disk      Disk      `json:"disk"`
	Memory    Memory    `json:"memory"`
	Load      Load      `json:"load"`
	Docker    Docker    `json:"docker"`
}

// Disk holds filesystem usage for the monitored mount.
// Size/Used/Available carry whatever unit the provider reports
// (bytes for the system provider); UsagePercent is always 0-100.
type Disk struct {
	Size         *float64 `json:"size,omitempty"`
	Used         *float64 `json:"used,omitempty"`
	Available    *float64 `json:"available,omitempty"`
	UsagePercent *float64 `json:"usage_percent,omitempty"`
}

// Memory holds physical memory usage.
type Memory struct {
	Total     *float64 `json:"total,omitempty"`
	Used      *float64 `json:"used,omitempty"`
	Free      *float64 `json:"free,omitempty"`
	Available *float64 `json:"available,omitempty"`
}

// Load holds the 1/5/15 minute load averages.
type Load struct {
	Load1  *float64 `json:"load_1min,omitempty"`
	Load5  *float64 `json:"load_5min,omitempty"`
	Load15 *float64 `json:"load_15min,omitempty"`
}

// Docker holds container counts.
type Docker struct {
	Total   *int `json:"total_containers,omitempty"`
	Running *int `json:"running_containers,omitempty"`
}

// Float returns a pointer to v. Convenience for building snapshots.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Validate checks the snapshot's internal invariants:
// a non-zero timestamp, usage percent within [0,100], non-negative load
// averages, and running containers not exceeding total containers.
// Absent fields are always valid.
func (s Snapshot) Validate() error {
	if s.Timestamp.IsZero() {
		return fmt.Errorf("snapshot timestamp cannot be zero")
	}
	if p := s.Disk.UsagePercent; p != nil && (*p < 0 || *p > 100) {
		return fmt.Errorf("disk usage percent %v out of range [0, 100]", *p)
	}
	for _, l := range []*float64{s.Load.Load1, s.Load.Load5, s.Load.Load15} {
		if l != nil && *l < 0 {
			return fmt.Errorf("load average %v cannot be negative", *l)
		}
	}
	if s.Docker.Total != nil && s.Docker.Running != nil && *s.Docker.Running > *s.Docker.Total {
		return fmt.Errorf("running containers (%d) exceed total containers (%d)",
			*s.Docker.Running, *s.Docker.Total)
	}
	return nil
}

// Equal reports whether two snapshots are field-for-field equal,
// including presence/absence of every optional field.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Timestamp.Equal(o.Timestamp) &&
		floatEq(s.Disk.Size, o.Disk.Size) &&
		floatEq(s.Disk.Used, o.Disk.Used) &&
		floatEq(s.Disk.Available, o.Disk.Available) &&
		floatEq(s.Disk.UsagePercent, o.Disk.UsagePercent) &&
		floatEq(s.Memory.Total, o.Memory.Total) &&
		floatEq(s.Memory.Used, o.Memory.Used) &&
		floatEq(s.Memory.Free, o.Memory.Free) &&
		floatEq(s.Memory.Available, o.Memory.Available) &&
		floatEq(s.Load.Load1, o.Load.Load1) &&
		floatEq(s.Load.Load5, o.Load.Load5) &&
		floatEq(s.Load.Load15, o.Load.Load15) &&
		intEq(s.Docker.Total, o.Docker.Total) &&
		intEq(s.Docker.Running, o.Docker.Running)
}

func floatEq(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intEq(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
