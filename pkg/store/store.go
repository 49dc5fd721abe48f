// Package store provides append-only snapshot persistence implementations.
//
// A Store holds one host's metric series: snapshots are appended as they
// are captured and read back as an ascending window via List. Stores never
// mutate or compact what they hold; retention is the reader's concern.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/HatiCode/hostpulse/pkg/snapshot"
)

// ErrStoreUnavailable indicates the persistence medium cannot be read or
// written (directory missing and not creatable, Redis unreachable, ...).
// It is fatal for the calling operation and is not retried internally.
var ErrStoreUnavailable = errors.New("snapshot store unavailable")

// ListResult is the outcome of a List call: the snapshots inside the
// requested window in ascending timestamp order, plus the number of stored
// records that could not be parsed and were skipped. Malformed records
// never abort a List.
type ListResult struct {
	Snapshots []snapshot.Snapshot
	Skipped   int
}

// Store is the interface all snapshot stores implement.
type Store interface {
	// Append durably persists one snapshot. Two snapshots captured within
	// the same second (or even the same instant) must both survive; the
	// store disambiguates rather than overwriting.
	Append(ctx context.Context, s snapshot.Snapshot) error

	// List returns all snapshots with timestamp strictly after since,
	// ordered ascending, ties in arrival order.
	List(ctx context.Context, since time.Time) (ListResult, error)
}
