// Package collect provides metric snapshot providers.
//
// A Provider produces one Snapshot per invocation. Providers degrade
// gracefully: when one metric group cannot be read (docker not installed,
// statfs denied), that group's fields come back absent and the rest of
// the snapshot still carries data. A provider error is reserved for "no
// snapshot could be produced at all".
package collect

import (
	"context"
	"fmt"
	"time"

	"github.com/HatiCode/hostpulse/pkg/snapshot"
)

// Provider is the interface all snapshot providers implement.
type Provider interface {
	// Collect captures one snapshot stamped with the given instant. The
	// caller owns "now" so schedulers and tests control time explicitly.
	Collect(ctx context.Context, now time.Time) (snapshot.Snapshot, error)

	// Name returns a short, unique identifier for the provider.
	// Example: "system", "file".
	Name() string
}

// Func adapts a plain function into a Provider. Useful in tests and for
// wiring canned snapshot sources.
type Func struct {
	ProviderName string
	Fn           func(ctx context.Context, now time.Time) (snapshot.Snapshot, error)
}

func (f Func) Collect(ctx context.Context, now time.Time) (snapshot.Snapshot, error) {
	return f.Fn(ctx, now)
}

func (f Func) Name() string {
	if f.ProviderName == "" {
		return "func"
	}
	return f.ProviderName
}

// New creates a provider based on kind and generic configuration map.
// This is the central extension point for adding new provider types.
//
// Supported kinds:
//   - "system": gopsutil-backed host metrics plus docker CLI counts
//   - "file": reads a loose-JSON snapshot document from a path, for
//     external collectors that drop their output on disk
//
// Returns error if kind is unknown or required fields are missing.
func New(kind string, config map[string]string) (Provider, error) {
	switch kind {
	case "system":
		return &SystemProvider{
			Mount:      config["mount"],
			DockerPath: config["docker"],
		}, nil
	case "file":
		path := config["path"]
		if path == "" {
			return nil, fmt.Errorf("file provider requires 'path' config")
		}
		return &FileProvider{Path: path}, nil
	default:
		return nil, fmt.Errorf("unknown provider kind: %s (must be system or file)", kind)
	}
}
