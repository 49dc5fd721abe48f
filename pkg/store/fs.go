package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/HatiCode/hostpulse/pkg/snapshot"
)

const (
	filePrefix = "stats_"
	fileSuffix = ".json"

	// nameLayout is the capture time embedded in each filename. Nanosecond
	// precision keeps names unique across appends within the same second,
	// and zero padding keeps lexical order equal to chronological order.
	nameLayout = "20060102_150405.000000000"
)

// FSStore persists snapshots as one JSON file each under a data directory.
//
// Writes go through a temp file followed by a rename, so a concurrent
// reader either sees a fully-written record or no record at all. List
// filters by the capture time embedded in the filename before opening
// anything, so reading a narrow window does not decode the whole history.
type FSStore struct {
	dir string
}

// NewFSStore creates a filesystem store rooted at dir, creating the
// directory if needed. Returns ErrStoreUnavailable if the directory cannot
// be created or is not writable.
func NewFSStore(dir string) (*FSStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: data directory cannot be empty", ErrStoreUnavailable)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrStoreUnavailable, dir, err)
	}
	return &FSStore{dir: dir}, nil
}

// Dir returns the data directory this store writes into.
func (s *FSStore) Dir() string {
	return s.dir
}

// Append writes one snapshot record. The filename is derived from the
// snapshot's capture time; if a record with that exact name already exists
// (two appends at the same instant) a numeric suffix disambiguates, so the
// earlier record is never overwritten.
func (s *FSStore) Append(ctx context.Context, snap snapshot.Snapshot) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := snap.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".stats_*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write snapshot: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close snapshot file: %v", ErrStoreUnavailable, err)
	}

	base := filePrefix + snap.Timestamp.UTC().Format(nameLayout)
	for i := 0; ; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s_%d", base, i)
		}
		final := filepath.Join(s.dir, name+fileSuffix)

		if _, err := os.Lstat(final); err == nil {
			continue // same-instant record already present, bump suffix
		} else if !os.IsNotExist(err) {
			os.Remove(tmpName)
			return fmt.Errorf("%w: stat %s: %v", ErrStoreUnavailable, final, err)
		}

		if err := os.Rename(tmpName, final); err != nil {
			os.Remove(tmpName)
			return fmt.Errorf("%w: rename snapshot file: %v", ErrStoreUnavailable, err)
		}
		return nil
	}
}

// List returns all snapshots captured strictly after since, ascending.
// Files whose embedded timestamp falls outside the window are never
// opened. Records that cannot be parsed are skipped and counted.
func (s *FSStore) List(ctx context.Context, since time.Time) (ListResult, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return ListResult{}, fmt.Errorf("%w: read %s: %v", ErrStoreUnavailable, s.dir, err)
	}

	var result ListResult

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return ListResult{}, ctx.Err()
		default:
		}

		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}

		if ts, ok := timeFromName(name); ok && !ts.After(since) {
			continue
		}

		snap, ok := s.readRecord(filepath.Join(s.dir, name))
		if !ok {
			result.Skipped++
			continue
		}
		if !snap.Timestamp.After(since) {
			continue
		}
		result.Snapshots = append(result.Snapshots, snap)
	}

	// os.ReadDir yields lexical filename order, which already matches
	// capture order for records this store wrote. The sort covers records
	// whose filename carried no parsable time.
	sort.SliceStable(result.Snapshots, func(i, j int) bool {
		return result.Snapshots[i].Timestamp.Before(result.Snapshots[j].Timestamp)
	})

	return result, nil
}

// readRecord decodes one snapshot file. Strict decoding is tried first;
// legacy loose-JSON records (unit-suffixed strings, shell-collector field
// names) fall back to snapshot.ParseJSON.
func (s *FSStore) readRecord(path string) (snapshot.Snapshot, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return snapshot.Snapshot{}, false
	}

	var snap snapshot.Snapshot
	if err := json.Unmarshal(data, &snap); err == nil && !snap.Timestamp.IsZero() {
		return snap, true
	}

	snap, err = snapshot.ParseJSON(data)
	if err != nil {
		return snapshot.Snapshot{}, false
	}
	return snap, true
}

// timeFromName extracts the capture time embedded in a record filename.
// A trailing collision suffix ("_1") is ignored.
func timeFromName(name string) (time.Time, bool) {
	stem := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	if len(stem) > len(nameLayout) {
		stem = stem[:len(nameLayout)]
	}
	ts, err := time.Parse(nameLayout, stem)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
