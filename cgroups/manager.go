// Package cgroups implements the Cgroups Manager: a uniform Apply/Set/
// Freeze/Thaw/Stats/Remove surface dispatched across three backends (fs v1,
// unified v2, and systemd transient scopes) selected once at create time.
//
// Dispatch is a tagged variant over concrete backend types, not an
// interface-implementing hierarchy per backend package: Manager picks a
// concrete strategy at construction and forwards every call to it, which
// keeps the backend-selection policy (see resolve.go) in one place instead
// of scattered across type assertions at call sites.
package cgroups

import (
	"fmt"

	"runc-go/spec"
)

// Stats is a backend-independent snapshot of cgroup resource usage,
// consumed by `state --metrics` and the metrics package's Prometheus
// collectors.
type Stats struct {
	MemoryUsageBytes uint64
	MemoryLimitBytes uint64
	CPUUsageNanos    uint64
	PidsCurrent      uint64
	PidsLimit        uint64
}

// backend is the interface every concrete cgroup backend implements.
// Unexported: external code only ever sees the Manager wrapper so the
// backend tag stays authoritative.
type backend interface {
	apply(pid int) error
	set(resources *spec.LinuxResources) error
	freeze() error
	thaw() error
	stats() (Stats, error)
	remove() error
	path() string
	procs() ([]int, error)
}

// Manager is the runtime's single handle onto a container's cgroup,
// regardless of which backend was resolved for it.
type Manager struct {
	kind spec.CgroupBackend
	impl backend
}

// Kind returns the resolved backend, as frozen into the container's state
// record at create time.
func (m *Manager) Kind() spec.CgroupBackend {
	return m.kind
}

// Path returns the backend's resolved path (filesystem path for v1/v2,
// unit name for systemd).
func (m *Manager) Path() string {
	return m.impl.path()
}

// Apply places pid into the cgroup. The cgroup itself is created by New;
// Apply does not create it.
func (m *Manager) Apply(pid int) error {
	return m.impl.apply(pid)
}

// Set applies OCI resource limits to the already-created cgroup.
func (m *Manager) Set(resources *spec.LinuxResources) error {
	if resources == nil {
		return nil
	}
	return m.impl.set(resources)
}

// Freeze suspends all processes in the cgroup, backing `pause`.
func (m *Manager) Freeze() error {
	return m.impl.freeze()
}

// Thaw resumes a frozen cgroup, backing `resume`.
func (m *Manager) Thaw() error {
	return m.impl.thaw()
}

// Stats returns current resource usage.
func (m *Manager) Stats() (Stats, error) {
	return m.impl.stats()
}

// Remove tears down the cgroup. Must be called only once the cgroup is
// empty of live processes.
func (m *Manager) Remove() error {
	return m.impl.remove()
}

// Procs lists the PIDs currently in the cgroup, backing `ps`.
func (m *Manager) Procs() ([]int, error) {
	return m.impl.procs()
}

// New constructs a Manager for the given already-resolved backend and path.
// containerID is used to derive default paths when path is empty.
func New(kindBackend spec.CgroupBackend, containerID, path string, rootless bool) (*Manager, error) {
	switch kindBackend {
	case spec.CgroupBackendV1:
		b, err := newV1Backend(containerID, path)
		if err != nil {
			return nil, err
		}
		return &Manager{kind: kindBackend, impl: b}, nil
	case spec.CgroupBackendV2:
		b, err := newV2Backend(containerID, path)
		if err != nil {
			return nil, err
		}
		return &Manager{kind: kindBackend, impl: b}, nil
	case spec.CgroupBackendSystemd:
		b, err := newSystemdBackend(containerID, path, rootless)
		if err != nil {
			return nil, err
		}
		return &Manager{kind: kindBackend, impl: b}, nil
	default:
		return nil, fmt.Errorf("unknown cgroup backend %q", kindBackend)
	}
}
