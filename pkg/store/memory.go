package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/HatiCode/hostpulse/pkg/snapshot"
)

// MemoryStore keeps the series in process memory. It is safe for
// concurrent use and is intended for tests and ephemeral runs where
// history is not expected to survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps []snapshot.Snapshot
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append adds one snapshot to the series. Appends at identical timestamps
// are kept in arrival order.
func (s *MemoryStore) Append(ctx context.Context, snap snapshot.Snapshot) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := snap.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snaps = append(s.snaps, snap)
	return nil
}

// List returns all snapshots with timestamp strictly after since,
// ascending, ties in arrival order.
func (s *MemoryStore) List(ctx context.Context, since time.Time) (ListResult, error) {
	select {
	case <-ctx.Done():
		return ListResult{}, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result ListResult
	for _, snap := range s.snaps {
		if snap.Timestamp.After(since) {
			result.Snapshots = append(result.Snapshots, snap)
		}
	}

	sort.SliceStable(result.Snapshots, func(i, j int) bool {
		return result.Snapshots[i].Timestamp.Before(result.Snapshots[j].Timestamp)
	})

	return result, nil
}

// Len returns the number of snapshots currently stored.
// Primarily useful for tests.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snaps)
}
