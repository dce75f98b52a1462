package cgroups

import (
	"fmt"
	"path/filepath"

	"github.com/containerd/cgroups/v3/cgroup2"

	"runc-go/spec"
)

// v2Backend wraps the unified hierarchy manager from containerd/cgroups/v3.
// Resource translation (shares->weight, swap delta, device eBPF filter
// attachment) is handled by the library itself; this file is only
// responsible for mapping the OCI LinuxResources shape onto its Resources
// type.
type v2Backend struct {
	group   string
	manager *cgroup2.Manager
}

func newV2Backend(containerID, cgroupPath string) (*v2Backend, error) {
	group := cgroupPath
	if group == "" {
		group = filepath.Join("/runc-go", containerID)
	}
	if group[0] != '/' {
		group = "/" + group
	}

	m, err := cgroup2.NewManager(cgroup2.Default, group, &cgroup2.Resources{})
	if err != nil {
		return nil, fmt.Errorf("cgroup2: new manager: %w", err)
	}
	return &v2Backend{group: group, manager: m}, nil
}

func (b *v2Backend) path() string {
	return b.group
}

func (b *v2Backend) apply(pid int) error {
	return b.manager.AddProc(uint64(pid))
}

func (b *v2Backend) set(resources *spec.LinuxResources) error {
	return b.manager.Update(toV2Resources(resources))
}

func (b *v2Backend) freeze() error {
	return b.manager.Freeze()
}

func (b *v2Backend) thaw() error {
	return b.manager.Thaw()
}

func (b *v2Backend) remove() error {
	return b.manager.Delete()
}

func (b *v2Backend) stats() (Stats, error) {
	metrics, err := b.manager.Stat()
	if err != nil {
		return Stats{}, fmt.Errorf("cgroup2: stat: %w", err)
	}

	var s Stats
	if metrics.GetMemory() != nil {
		s.MemoryUsageBytes = metrics.GetMemory().GetUsage()
		s.MemoryLimitBytes = metrics.GetMemory().GetUsageLimit()
	}
	if metrics.GetCPU() != nil {
		s.CPUUsageNanos = metrics.GetCPU().GetUsageUsec() * 1000
	}
	if metrics.GetPids() != nil {
		s.PidsCurrent = metrics.GetPids().GetCurrent()
		s.PidsLimit = metrics.GetPids().GetLimit()
	}
	return s, nil
}

func (b *v2Backend) procs() ([]int, error) {
	procs, err := b.manager.Procs(false)
	if err != nil {
		return nil, fmt.Errorf("cgroup2: procs: %w", err)
	}
	pids := make([]int, len(procs))
	for i, p := range procs {
		pids[i] = int(p)
	}
	return pids, nil
}

func toV2Resources(r *spec.LinuxResources) *cgroup2.Resources {
	res := &cgroup2.Resources{}
	if r == nil {
		return res
	}

	if mem := r.Memory; mem != nil {
		res.Memory = &cgroup2.Memory{}
		if mem.Limit != nil {
			res.Memory.Max = mem.Limit
		}
		if mem.Reservation != nil {
			res.Memory.Low = mem.Reservation
		}
		if mem.Swap != nil {
			swap := *mem.Swap
			if mem.Limit != nil {
				swap -= *mem.Limit
				if swap < 0 {
					swap = 0
				}
			}
			res.Memory.Swap = &swap
		}
	}

	if cpu := r.CPU; cpu != nil {
		res.CPU = &cgroup2.CPU{}
		if cpu.Quota != nil || cpu.Period != nil {
			period := uint64(100000)
			if cpu.Period != nil && *cpu.Period > 0 {
				period = *cpu.Period
			}
			res.CPU.Max = cgroup2.NewCPUMax(cpu.Quota, &period)
		}
		if cpu.Shares != nil && *cpu.Shares > 0 {
			weight := sharesToWeight(*cpu.Shares)
			res.CPU.Weight = &weight
		}
		res.CPU.Cpus = cpu.Cpus
		res.CPU.Mems = cpu.Mems
	}

	if pids := r.Pids; pids != nil && pids.Limit > 0 {
		res.Pids = &cgroup2.Pids{Max: pids.Limit}
	}

	if len(r.Devices) > 0 {
		res.Devices = r.Devices
	}

	return res
}

// sharesToWeight converts a cgroup v1 cpu.shares value (2-262144) into a
// cgroup v2 cpu.weight value (1-10000), per the conversion documented by
// the kernel's cgroup v2 migration notes.
func sharesToWeight(shares uint64) uint64 {
	if shares <= 2 {
		return 1
	}
	weight := 1 + (shares-2)*9999/262142
	if weight > 10000 {
		weight = 10000
	}
	return weight
}
