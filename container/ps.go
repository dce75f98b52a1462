// Package container implements the ps operation.
package container

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"

	cerrors "runc-go/errors"
	"runc-go/metrics"
)

// unlimitedThreshold catches the sentinel "no limit" values cgroup v1 and v2
// report for memory.limit_in_bytes/pids.max ("max"), which land near
// math.MaxInt64 once rounded to a page boundary.
const unlimitedThreshold = math.MaxInt64 / 2

func humanBytesLimit(v uint64) string {
	if v == 0 || v > unlimitedThreshold {
		return "unlimited"
	}
	return units.BytesSize(float64(v))
}

func humanCountLimit(v uint64) string {
	if v == 0 || v > unlimitedThreshold {
		return "unlimited"
	}
	return strconv.FormatUint(v, 10)
}

// StatsHuman renders a container's cgroup resource usage as a short
// human-readable summary (byte sizes and durations), for terminal display
// rather than the Prometheus text exposition `Metrics` produces.
func StatsHuman(ctx context.Context, id, stateRoot string) (string, error) {
	c, err := Load(ctx, id, stateRoot)
	if err != nil {
		return "", fmt.Errorf("load container: %w", err)
	}

	manager, err := managerFor(c)
	if err != nil {
		return "", err
	}

	stats, err := manager.Stats()
	if err != nil {
		return "", cerrors.WrapWithContainer(err, cerrors.ErrCgroup, "stats", id)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "memory:  %s / %s\n", units.BytesSize(float64(stats.MemoryUsageBytes)), humanBytesLimit(stats.MemoryLimitBytes))
	fmt.Fprintf(&b, "cpu:     %s\n", units.HumanDuration(time.Duration(stats.CPUUsageNanos)))
	fmt.Fprintf(&b, "pids:    %d / %s\n", stats.PidsCurrent, humanCountLimit(stats.PidsLimit))
	return b.String(), nil
}

// Metrics renders a container's cgroup resource usage in Prometheus text
// exposition format.
func Metrics(ctx context.Context, id, stateRoot string) (string, error) {
	c, err := Load(ctx, id, stateRoot)
	if err != nil {
		return "", fmt.Errorf("load container: %w", err)
	}

	manager, err := managerFor(c)
	if err != nil {
		return "", err
	}

	text, err := metrics.RenderText(id, manager)
	if err != nil {
		return "", cerrors.WrapWithContainer(err, cerrors.ErrCgroup, "metrics", id)
	}
	return text, nil
}

// Ps lists the PIDs of every process currently in a container's cgroup, as
// seen from the host PID namespace.
func Ps(ctx context.Context, id, stateRoot string) ([]int, error) {
	c, err := Load(ctx, id, stateRoot)
	if err != nil {
		return nil, fmt.Errorf("load container: %w", err)
	}

	manager, err := managerFor(c)
	if err != nil {
		return nil, err
	}

	pids, err := manager.Procs()
	if err != nil {
		return nil, cerrors.WrapWithContainer(err, cerrors.ErrCgroup, "ps", id)
	}
	return pids, nil
}

// NamespacePid translates a host-visible PID into its container-namespace
// PID by reading /proc/<pid>/status's NSpid line, used to present `ps`
// output the way a tool running inside the container would see it.
func NamespacePid(hostPid int) (int, error) {
	data, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(hostPid), "status"))
	if err != nil {
		return 0, fmt.Errorf("read proc status: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "NSpid:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		// The last field is the PID as seen in the innermost (container's)
		// PID namespace; earlier fields are ancestor namespaces' views.
		return strconv.Atoi(fields[len(fields)-1])
	}
	return hostPid, nil
}
