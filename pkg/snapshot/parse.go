package snapshot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ParseValue extracts a numeric value from a string that may carry a unit
// suffix, as emitted by tools like df and free ("81%", "6.2Gi", "512M",
// "40G"). The suffix is stripped and the leading number parsed; the
// magnitude is kept as-is, no unit conversion is attempted.
//
// Returns nil for empty or unparsable input so callers can treat the field
// as absent instead of coercing it to zero.
func ParseValue(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	// Trim trailing unit characters: %, i-suffixed binary units (Gi, Mi),
	// single-letter size units (K, M, G, T, P).
	s = strings.TrimRight(s, "%iKMGTPkmgtpB")
	s = strings.TrimSpace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseJSON decodes a loosely-shaped snapshot JSON document into a typed
// Snapshot. It accepts both the canonical field names this package writes
// and the legacy shape produced by shell-based collectors, where numeric
// fields arrive as strings with unit suffixes and groups may be missing
// entirely:
//
//	{"timestamp": "2026-01-02T15:04:05",
//	 "disk": {"usage_percent": "81%", "size": "40G", ...},
//	 "load": {"1min": 0.5, ...},
//	 "docker": {"total": 3, "running": 2}}
//
// Missing or unparsable fields come back absent; only a missing or
// unparsable timestamp is an error, since an unkeyed snapshot cannot be
// ordered into a series.
func ParseJSON(data []byte) (Snapshot, error) {
	return parseJSON(data, time.Time{})
}

// ParseJSONAt is like ParseJSON but stamps documents that carry no
// timestamp of their own with the provided fallback instant instead of
// failing.
func ParseJSONAt(data []byte, fallback time.Time) (Snapshot, error) {
	return parseJSON(data, fallback)
}

func parseJSON(data []byte, fallback time.Time) (Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return Snapshot{}, fmt.Errorf("invalid JSON")
	}

	root := gjson.ParseBytes(data)

	ts, err := parseTimestamp(root.Get("timestamp"))
	if err != nil {
		if fallback.IsZero() {
			return Snapshot{}, err
		}
		ts = fallback
	}

	s := Snapshot{Timestamp: ts}

	s.Disk = Disk{
		Size:         numField(root, "disk.size"),
		Used:         numField(root, "disk.used"),
		Available:    numField(root, "disk.available"),
		UsagePercent: numField(root, "disk.usage_percent"),
	}
	s.Memory = Memory{
		Total:     numField(root, "memory.total"),
		Used:      numField(root, "memory.used"),
		Free:      numField(root, "memory.free"),
		Available: numField(root, "memory.available"),
	}
	s.Load = Load{
		Load1:  firstNumField(root, "load.load_1min", "load.1min"),
		Load5:  firstNumField(root, "load.load_5min", "load.5min"),
		Load15: firstNumField(root, "load.load_15min", "load.15min"),
	}

	if total := firstNumField(root, "docker.total_containers", "docker.total"); total != nil {
		s.Docker.Total = Int(int(*total))
	}
	if running := firstNumField(root, "docker.running_containers", "docker.running"); running != nil {
		s.Docker.Running = Int(int(*running))
	}

	return s, nil
}

// parseTimestamp accepts RFC 3339 and the second-resolution ISO form
// without a zone that legacy collectors wrote.
func parseTimestamp(v gjson.Result) (time.Time, error) {
	if !v.Exists() || v.String() == "" {
		return time.Time{}, fmt.Errorf("snapshot missing timestamp")
	}

	raw := v.String()
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", raw)
}

// numField extracts a numeric field that may be a JSON number or a
// unit-suffixed string. Absent, null, or unparsable values return nil.
func numField(root gjson.Result, path string) *float64 {
	v := root.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	switch v.Type {
	case gjson.Number:
		f := v.Float()
		return &f
	case gjson.String:
		return ParseValue(v.String())
	default:
		return nil
	}
}

func firstNumField(root gjson.Result, paths ...string) *float64 {
	for _, path := range paths {
		if v := numField(root, path); v != nil {
			return v
		}
	}
	return nil
}
