package cgroups

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"runc-go/spec"
)

// v1 is a hand-rolled multi-controller filesystem writer, generalized from
// the single-hierarchy cgroup v2 writer the teacher shipped: cgroup v1
// splits controllers across separate mountpoints
// (/sys/fs/cgroup/<controller>/...), so resource files (cpu shares,
// memory and memory+swap limits) are written under several controller
// roots instead of one unified tree. Values are written as given; the
// shares-to-weight and swap-delta conversions exist only in v2.go.
const v1Root = "/sys/fs/cgroup"

var v1Controllers = []string{"cpu", "cpuset", "memory", "pids", "devices", "freezer"}

type v1Backend struct {
	relPath string
}

func newV1Backend(containerID, cgroupPath string) (*v1Backend, error) {
	rel := cgroupPath
	if rel == "" {
		rel = filepath.Join("runc-go", containerID)
	}
	rel = strings.TrimPrefix(rel, "/")

	for _, ctrl := range v1Controllers {
		dir := filepath.Join(v1Root, ctrl, rel)
		if err := os.MkdirAll(dir, 0755); err != nil {
			if os.IsNotExist(err) || os.IsPermission(err) {
				// Controller not mounted on this host; skip it.
				continue
			}
			return nil, fmt.Errorf("cgroup v1: mkdir %s: %w", dir, err)
		}
	}
	return &v1Backend{relPath: rel}, nil
}

func (b *v1Backend) ctrlDir(ctrl string) string {
	return filepath.Join(v1Root, ctrl, b.relPath)
}

func (b *v1Backend) writeFile(ctrl, file, value string) error {
	path := filepath.Join(b.ctrlDir(ctrl), file)
	if err := os.WriteFile(path, []byte(value), 0644); err != nil {
		return fmt.Errorf("cgroup v1: write %s: %w", path, err)
	}
	return nil
}

func (b *v1Backend) path() string {
	return b.relPath
}

func (b *v1Backend) apply(pid int) error {
	for _, ctrl := range v1Controllers {
		dir := b.ctrlDir(ctrl)
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, "cgroup.procs"), []byte(strconv.Itoa(pid)), 0644); err != nil {
			return fmt.Errorf("cgroup v1: add pid to %s: %w", ctrl, err)
		}
	}
	return nil
}

func (b *v1Backend) set(r *spec.LinuxResources) error {
	if mem := r.Memory; mem != nil {
		if mem.Limit != nil {
			if err := b.writeFile("memory", "memory.limit_in_bytes", strconv.FormatInt(*mem.Limit, 10)); err != nil {
				return err
			}
		}
		if mem.Reservation != nil {
			if err := b.writeFile("memory", "memory.soft_limit_in_bytes", strconv.FormatInt(*mem.Reservation, 10)); err != nil {
				return err
			}
		}
		if mem.Swap != nil {
			// cgroup v1 memsw.limit_in_bytes is memory+swap combined, matching
			// the OCI field directly (unlike v2's swap-only accounting).
			_ = b.writeFile("memory", "memory.memsw.limit_in_bytes", strconv.FormatInt(*mem.Swap, 10))
		}
	}

	if cpu := r.CPU; cpu != nil {
		if cpu.Quota != nil && *cpu.Quota > 0 {
			if err := b.writeFile("cpu", "cpu.cfs_quota_us", strconv.FormatInt(*cpu.Quota, 10)); err != nil {
				return err
			}
		}
		if cpu.Period != nil && *cpu.Period > 0 {
			if err := b.writeFile("cpu", "cpu.cfs_period_us", strconv.FormatUint(*cpu.Period, 10)); err != nil {
				return err
			}
		}
		if cpu.Shares != nil && *cpu.Shares > 0 {
			if err := b.writeFile("cpu", "cpu.shares", strconv.FormatUint(*cpu.Shares, 10)); err != nil {
				return err
			}
		}
		if cpu.Cpus != "" {
			_ = b.writeFile("cpuset", "cpuset.cpus", cpu.Cpus)
		}
		if cpu.Mems != "" {
			_ = b.writeFile("cpuset", "cpuset.mems", cpu.Mems)
		}
	}

	if pids := r.Pids; pids != nil && pids.Limit > 0 {
		if err := b.writeFile("pids", "pids.max", strconv.FormatInt(pids.Limit, 10)); err != nil {
			return err
		}
	}

	for _, dev := range r.Devices {
		rule := deviceRule(dev)
		file := "devices.deny"
		if dev.Allow {
			file = "devices.allow"
		}
		_ = b.writeFile("devices", file, rule)
	}

	return nil
}

// deviceRule formats an OCI device cgroup entry as the
// "TYPE MAJOR:MINOR ACCESS" string devices.allow/devices.deny expect.
func deviceRule(dev spec.LinuxDeviceCgroup) string {
	typ := dev.Type
	if typ == "" {
		typ = "a"
	}
	major, minor := "*", "*"
	if dev.Major != nil {
		major = strconv.FormatInt(*dev.Major, 10)
	}
	if dev.Minor != nil {
		minor = strconv.FormatInt(*dev.Minor, 10)
	}
	return fmt.Sprintf("%s %s:%s %s", typ, major, minor, dev.Access)
}

func (b *v1Backend) freeze() error {
	return b.writeFile("freezer", "freezer.state", "FROZEN")
}

func (b *v1Backend) thaw() error {
	return b.writeFile("freezer", "freezer.state", "THAWED")
}

func (b *v1Backend) remove() error {
	var firstErr error
	for _, ctrl := range v1Controllers {
		dir := b.ctrlDir(ctrl)
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := os.Remove(dir); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (b *v1Backend) stats() (Stats, error) {
	var s Stats
	if v, err := readUint(filepath.Join(b.ctrlDir("memory"), "memory.usage_in_bytes")); err == nil {
		s.MemoryUsageBytes = v
	}
	if v, err := readUint(filepath.Join(b.ctrlDir("memory"), "memory.limit_in_bytes")); err == nil {
		s.MemoryLimitBytes = v
	}
	if v, err := readUint(filepath.Join(b.ctrlDir("pids"), "pids.current")); err == nil {
		s.PidsCurrent = v
	}
	if v, err := readUint(filepath.Join(b.ctrlDir("pids"), "pids.max")); err == nil {
		s.PidsLimit = v
	}
	return s, nil
}

func (b *v1Backend) procs() ([]int, error) {
	return readProcs(filepath.Join(b.ctrlDir("pids"), "cgroup.procs"))
}

// readProcs parses a newline-separated cgroup.procs file.
func readProcs(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var pids []int
	for _, line := range strings.Fields(string(data)) {
		pid, err := strconv.Atoi(line)
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

func readUint(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
}
