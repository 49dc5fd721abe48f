package collect

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/HatiCode/hostpulse/pkg/snapshot"
)

// FileProvider reads one loose-JSON snapshot document from a path on each
// collection. It integrates external collectors (shell scripts, cron
// jobs) that write their latest sample to a well-known file: whatever
// fields the document carries become the snapshot, restamped with the
// collection instant.
type FileProvider struct {
	Path string
}

func (p *FileProvider) Name() string {
	return "file"
}

func (p *FileProvider) Collect(ctx context.Context, now time.Time) (snapshot.Snapshot, error) {
	select {
	case <-ctx.Done():
		return snapshot.Snapshot{}, ctx.Err()
	default:
	}

	data, err := os.ReadFile(p.Path)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("read snapshot file: %w", err)
	}

	snap, err := snapshot.ParseJSONAt(data, now)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("parse snapshot file: %w", err)
	}

	// The capture instant is this collection, regardless of any stale
	// timestamp the document carries.
	snap.Timestamp = now
	return snap, nil
}
