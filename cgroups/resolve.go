package cgroups

import (
	"strings"

	cgroupsv3 "github.com/containerd/cgroups/v3"

	"runc-go/spec"
)

// ResolveOptions carries the inputs to the backend-resolution policy,
// pinned as an Open Question resolution (see DESIGN.md): --systemd-cgroup
// or a slice:prefix:name-form cgroupsPath selects the systemd backend;
// otherwise v2 if the host's cgroup root is unified, else v1. The choice
// is made once, at create time, and frozen into the state record -
// Resolve is never called again for the lifetime of a container.
type ResolveOptions struct {
	// SystemdCgroup is the --systemd-cgroup CLI flag.
	SystemdCgroup bool
	// CgroupsPath is Linux.CgroupsPath from config.json, which may be a
	// plain filesystem-style path or a "slice:prefix:name" systemd unit
	// descriptor.
	CgroupsPath string
}

// IsSystemdPath reports whether a cgroupsPath is in systemd's
// "slice:prefix:name" form (three colon-separated, non-empty components).
func IsSystemdPath(cgroupsPath string) bool {
	parts := strings.Split(cgroupsPath, ":")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// Resolve picks the backend a new container should use.
func Resolve(opts ResolveOptions) spec.CgroupBackend {
	if opts.SystemdCgroup || IsSystemdPath(opts.CgroupsPath) {
		return spec.CgroupBackendSystemd
	}
	if cgroupsv3.Mode() == cgroupsv3.Unified {
		return spec.CgroupBackendV2
	}
	return spec.CgroupBackendV1
}
