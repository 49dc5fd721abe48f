package collect

import (
	"bufio"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/tidwall/gjson"

	"github.com/HatiCode/hostpulse/pkg/snapshot"
)

// SystemProvider captures host metrics in-process via gopsutil and
// container counts by shelling out to the docker CLI. Each metric group
// degrades independently: a host without docker still produces disk,
// memory, and load data.
type SystemProvider struct {
	// Mount is the filesystem path whose usage is sampled. Default "/".
	Mount string

	// DockerPath is the docker binary to invoke. Default "docker".
	DockerPath string

	// Logger records per-group collection failures. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

func (p *SystemProvider) Name() string {
	return "system"
}

// Collect captures disk, memory, load, and container metrics. Group
// failures are logged and leave the group's fields absent; Collect itself
// only fails on context cancellation.
func (p *SystemProvider) Collect(ctx context.Context, now time.Time) (snapshot.Snapshot, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	snap := snapshot.Snapshot{Timestamp: now}

	mount := p.Mount
	if mount == "" {
		mount = "/"
	}

	if usage, err := disk.UsageWithContext(ctx, mount); err != nil {
		logger.Warn("disk collection failed", "mount", mount, "error", err)
	} else {
		snap.Disk = snapshot.Disk{
			Size:         snapshot.Float(float64(usage.Total)),
			Used:         snapshot.Float(float64(usage.Used)),
			Available:    snapshot.Float(float64(usage.Free)),
			UsagePercent: snapshot.Float(usage.UsedPercent),
		}
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		logger.Warn("memory collection failed", "error", err)
	} else {
		snap.Memory = snapshot.Memory{
			Total:     snapshot.Float(float64(vm.Total)),
			Used:      snapshot.Float(float64(vm.Used)),
			Free:      snapshot.Float(float64(vm.Free)),
			Available: snapshot.Float(float64(vm.Available)),
		}
	}

	if avg, err := load.AvgWithContext(ctx); err != nil {
		logger.Warn("load collection failed", "error", err)
	} else {
		snap.Load = snapshot.Load{
			Load1:  snapshot.Float(avg.Load1),
			Load5:  snapshot.Float(avg.Load5),
			Load15: snapshot.Float(avg.Load15),
		}
	}

	if total, running, err := p.dockerCounts(ctx); err != nil {
		logger.Warn("docker collection failed", "error", err)
	} else {
		snap.Docker = snapshot.Docker{
			Total:   snapshot.Int(total),
			Running: snapshot.Int(running),
		}
	}

	if err := ctx.Err(); err != nil {
		return snapshot.Snapshot{}, err
	}

	return snap, nil
}

// dockerCounts lists all containers as JSON lines and counts how many are
// up.
func (p *SystemProvider) dockerCounts(ctx context.Context) (total, running int, err error) {
	dockerPath := p.DockerPath
	if dockerPath == "" {
		dockerPath = "docker"
	}

	cmd := exec.CommandContext(ctx, dockerPath, "ps", "-a", "--format", "{{json .}}")
	out, err := cmd.Output()
	if err != nil {
		return 0, 0, err
	}

	total, running = countContainers(string(out))
	return total, running, nil
}

// countContainers parses docker ps JSON-lines output. Lines that are not
// valid JSON are ignored; a container is running when its status starts
// with "Up".
func countContainers(output string) (total, running int) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !gjson.Valid(line) {
			continue
		}
		total++
		if strings.HasPrefix(gjson.Get(line, "Status").String(), "Up") {
			running++
		}
	}
	return total, running
}
