// Package window loads the trailing analysis window from a snapshot store.
package window

import (
	"context"
	"fmt"
	"time"

	"github.com/HatiCode/hostpulse/pkg/snapshot"
	"github.com/HatiCode/hostpulse/pkg/store"
)

// Window is the subset of a host's series within a trailing duration from
// a reference instant. An empty window is a normal state, not an error:
// callers must report "no data" rather than fabricating zeros.
type Window struct {
	Snapshots []snapshot.Snapshot

	// Skipped counts stored records that could not be parsed and were
	// excluded from the window.
	Skipped int

	// Cutoff is the exclusive lower bound the window was loaded with.
	Cutoff time.Time
}

// Empty reports whether the window holds no snapshots.
func (w Window) Empty() bool {
	return len(w.Snapshots) == 0
}

// Latest returns the most recent snapshot in the window, or nil when the
// window is empty.
func (w Window) Latest() *snapshot.Snapshot {
	if len(w.Snapshots) == 0 {
		return nil
	}
	return &w.Snapshots[len(w.Snapshots)-1]
}

// Load reads all snapshots captured within duration of now. The reference
// instant is an explicit parameter so schedulers and tests control it;
// nothing here reads the wall clock.
func Load(ctx context.Context, s store.Store, now time.Time, duration time.Duration) (Window, error) {
	cutoff := now.Add(-duration)

	result, err := s.List(ctx, cutoff)
	if err != nil {
		return Window{}, fmt.Errorf("load window: %w", err)
	}

	return Window{
		Snapshots: result.Snapshots,
		Skipped:   result.Skipped,
		Cutoff:    cutoff,
	}, nil
}
