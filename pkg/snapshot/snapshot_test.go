package snapshot

import (
	"encoding/json"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		snapshot Snapshot
		wantErr  bool
	}{
		{
			name:     "minimal valid",
			snapshot: Snapshot{Timestamp: now},
		},
		{
			name: "fully populated",
			snapshot: Snapshot{
				Timestamp: now,
				Disk:      Disk{UsagePercent: Float(81)},
				Load:      Load{Load1: Float(0.5), Load5: Float(0.4), Load15: Float(0.3)},
				Docker:    Docker{Total: Int(5), Running: Int(4)},
			},
		},
		{
			name:     "zero timestamp",
			snapshot: Snapshot{},
			wantErr:  true,
		},
		{
			name:     "usage percent above 100",
			snapshot: Snapshot{Timestamp: now, Disk: Disk{UsagePercent: Float(101)}},
			wantErr:  true,
		},
		{
			name:     "negative usage percent",
			snapshot: Snapshot{Timestamp: now, Disk: Disk{UsagePercent: Float(-1)}},
			wantErr:  true,
		},
		{
			name:     "negative load",
			snapshot: Snapshot{Timestamp: now, Load: Load{Load5: Float(-0.1)}},
			wantErr:  true,
		},
		{
			name:     "running exceeds total",
			snapshot: Snapshot{Timestamp: now, Docker: Docker{Total: Int(2), Running: Int(3)}},
			wantErr:  true,
		},
		{
			name:     "running without total",
			snapshot: Snapshot{Timestamp: now, Docker: Docker{Running: Int(3)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.snapshot.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJSONRoundTrip_PreservesAbsence(t *testing.T) {
	orig := Snapshot{
		Timestamp: time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC),
		Disk:      Disk{UsagePercent: Float(76.5), Size: Float(40)},
		Memory:    Memory{Used: Float(6200)}, // Total/Free/Available absent
		Load:      Load{Load1: Float(0.52)},  // 5min/15min absent
		Docker:    Docker{Total: Int(0), Running: Int(0)},
	}

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !got.Equal(orig) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, orig)
	}

	// Zero container counts must survive as present values, not be
	// confused with absence.
	if got.Docker.Total == nil || *got.Docker.Total != 0 {
		t.Errorf("Docker.Total = %v, want present 0", got.Docker.Total)
	}
	if got.Memory.Free != nil {
		t.Error("Memory.Free should remain absent after round trip")
	}
}

func TestEqual(t *testing.T) {
	ts := time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)

	base := Snapshot{Timestamp: ts, Disk: Disk{UsagePercent: Float(50)}}

	if !base.Equal(Snapshot{Timestamp: ts, Disk: Disk{UsagePercent: Float(50)}}) {
		t.Error("identical snapshots should be equal")
	}
	if base.Equal(Snapshot{Timestamp: ts, Disk: Disk{UsagePercent: Float(51)}}) {
		t.Error("different values should not be equal")
	}
	if base.Equal(Snapshot{Timestamp: ts}) {
		t.Error("present vs absent should not be equal")
	}
	if base.Equal(Snapshot{Timestamp: ts.Add(time.Second), Disk: Disk{UsagePercent: Float(50)}}) {
		t.Error("different timestamps should not be equal")
	}
}
