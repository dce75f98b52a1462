// Package spec defines the configuration types this runtime consumes.
//
// config.json is parsed directly as github.com/opencontainers/runtime-spec's
// Spec type rather than a hand-rolled mirror of it: that struct is the actual
// wire format the OCI Runtime Specification defines, and it is what every
// other tool in this ecosystem (containerd, cri-o, Docker, podman) produces
// and consumes. This package re-exports the upstream types under short local
// names so the rest of the tree reads the same way it would against a
// hand-rolled version, and adds the handful of load/save/default helpers a
// runtime actually needs around them.
package spec

import (
	"encoding/json"
	"fmt"
	"os"

	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// Version is the OCI Runtime Specification version this runtime implements.
const Version = specs.Version

// Re-exported OCI configuration types. Aliasing (not wrapping) means every
// field, including ones added by later OCI revisions, is available without
// this package tracking the upstream schema by hand.
type (
	Spec                   = specs.Spec
	Process                = specs.Process
	Box                    = specs.Box
	User                   = specs.User
	LinuxCapabilities      = specs.LinuxCapabilities
	POSIXRlimit            = specs.POSIXRlimit
	Root                   = specs.Root
	Mount                  = specs.Mount
	Hook                   = specs.Hook
	Hooks                  = specs.Hooks
	Linux                  = specs.Linux
	LinuxIDMapping         = specs.LinuxIDMapping
	LinuxNamespace         = specs.LinuxNamespace
	LinuxNamespaceType     = specs.LinuxNamespaceType
	LinuxDevice            = specs.LinuxDevice
	LinuxResources         = specs.LinuxResources
	LinuxDeviceCgroup      = specs.LinuxDeviceCgroup
	LinuxMemory            = specs.LinuxMemory
	LinuxCPU               = specs.LinuxCPU
	LinuxPids              = specs.LinuxPids
	LinuxBlockIO           = specs.LinuxBlockIO
	LinuxWeightDevice      = specs.LinuxWeightDevice
	LinuxThrottleDevice    = specs.LinuxThrottleDevice
	LinuxHugepageLimit     = specs.LinuxHugepageLimit
	LinuxNetwork           = specs.LinuxNetwork
	LinuxInterfacePriority = specs.LinuxInterfacePriority
	LinuxRdma              = specs.LinuxRdma
	LinuxSeccomp           = specs.LinuxSeccomp
	LinuxSeccompAction     = specs.LinuxSeccompAction
	LinuxSeccompArg        = specs.LinuxSeccompArg
	LinuxSeccompOperator   = specs.LinuxSeccompOperator
	LinuxSyscall           = specs.LinuxSyscall
	LinuxIntelRdt          = specs.LinuxIntelRdt
	LinuxPersonality       = specs.LinuxPersonality
	LinuxPersonalityDomain = specs.LinuxPersonalityDomain
	Arch                   = specs.Arch
)

// Namespace type constants.
const (
	PIDNamespace     = specs.PIDNamespace
	NetworkNamespace = specs.NetworkNamespace
	MountNamespace   = specs.MountNamespace
	IPCNamespace     = specs.IPCNamespace
	UTSNamespace     = specs.UTSNamespace
	UserNamespace    = specs.UserNamespace
	CgroupNamespace  = specs.CgroupNamespace
	TimeNamespace    = specs.TimeNamespace
)

// Seccomp action constants.
const (
	ActKill        = specs.ActKill
	ActKillProcess = specs.ActKillProcess
	ActKillThread  = specs.ActKillThread
	ActTrap        = specs.ActTrap
	ActErrno       = specs.ActErrno
	ActTrace       = specs.ActTrace
	ActAllow       = specs.ActAllow
	ActLog         = specs.ActLog
	ActNotify      = specs.ActNotify
)

// Architecture constants.
const (
	ArchX86     = specs.ArchX86
	ArchX86_64  = specs.ArchX86_64
	ArchARM     = specs.ArchARM
	ArchAARCH64 = specs.ArchAARCH64
)

// LoadSpec reads and parses config.json from the given path.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var s Spec
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if s.Process == nil || len(s.Process.Args) == 0 {
		return nil, fmt.Errorf("config.json: process.args must not be empty")
	}
	if s.Root == nil || s.Root.Path == "" {
		return nil, fmt.Errorf("config.json: root.path must not be empty")
	}

	return &s, nil
}

// Save writes the spec as config.json to the given path.
func Save(s *Spec, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultSpec returns a minimal, runnable default OCI configuration, the
// same shape `runc spec` and its alikes emit: a shell in a private set of
// namespaces with a conservative capability and mount set.
func DefaultSpec() *Spec {
	return &Spec{
		Version: Version,
		Process: &Process{
			Terminal:        true,
			User:            User{UID: 0, GID: 0},
			Args:            []string{"sh"},
			Env: []string{
				"PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin",
				"TERM=xterm",
			},
			Cwd:             "/",
			Capabilities:    defaultCapabilities(),
			Rlimits:         []POSIXRlimit{{Type: "RLIMIT_NOFILE", Hard: 1024, Soft: 1024}},
			NoNewPrivileges: true,
		},
		Root: &Root{
			Path:     "rootfs",
			Readonly: true,
		},
		Hostname: "runc-go",
		Mounts:   defaultMounts(),
		Linux: &Linux{
			Namespaces: []LinuxNamespace{
				{Type: PIDNamespace},
				{Type: NetworkNamespace},
				{Type: IPCNamespace},
				{Type: UTSNamespace},
				{Type: MountNamespace},
			},
			Resources: &LinuxResources{
				Devices: defaultDeviceCgroupRules(),
			},
			MaskedPaths: []string{
				"/proc/acpi", "/proc/asound", "/proc/kcore", "/proc/keys",
				"/proc/latency_stats", "/proc/timer_list", "/proc/timer_stats",
				"/proc/sched_debug", "/sys/firmware", "/proc/scsi",
			},
			ReadonlyPaths: []string{
				"/proc/bus", "/proc/fs", "/proc/irq", "/proc/sys", "/proc/sysrq-trigger",
			},
		},
	}
}

func defaultMounts() []Mount {
	return []Mount{
		{Destination: "/proc", Type: "proc", Source: "proc"},
		{Destination: "/dev", Type: "tmpfs", Source: "tmpfs",
			Options: []string{"nosuid", "strictatime", "mode=755", "size=65536k"}},
		{Destination: "/dev/pts", Type: "devpts", Source: "devpts",
			Options: []string{"nosuid", "noexec", "newinstance", "ptmxmode=0666", "mode=0620"}},
		{Destination: "/dev/shm", Type: "tmpfs", Source: "shm",
			Options: []string{"nosuid", "noexec", "nodev", "mode=1777", "size=65536k"}},
		{Destination: "/dev/mqueue", Type: "mqueue", Source: "mqueue",
			Options: []string{"nosuid", "noexec", "nodev"}},
		{Destination: "/sys", Type: "sysfs", Source: "sysfs",
			Options: []string{"nosuid", "noexec", "nodev", "ro"}},
	}
}

func defaultDeviceCgroupRules() []LinuxDeviceCgroup {
	return []LinuxDeviceCgroup{{Allow: false, Access: "rwm"}}
}

func defaultCapabilities() *LinuxCapabilities {
	caps := []string{
		"CAP_AUDIT_WRITE", "CAP_KILL", "CAP_NET_BIND_SERVICE",
		"CAP_CHOWN", "CAP_DAC_OVERRIDE", "CAP_FOWNER", "CAP_FSETID",
		"CAP_MKNOD", "CAP_NET_RAW", "CAP_SETGID", "CAP_SETUID",
		"CAP_SETFCAP", "CAP_SETPCAP", "CAP_SYS_CHROOT",
	}
	return &LinuxCapabilities{
		Bounding:    caps,
		Effective:   caps,
		Inheritable: caps,
		Permitted:   caps,
	}
}

// RootlessSpec augments a spec with a user namespace mapping the caller's
// uid/gid to root inside the container, for `spec --rootless`.
func RootlessSpec(s *Spec, uid, gid int) {
	if s.Linux == nil {
		s.Linux = &Linux{}
	}
	s.Linux.Namespaces = append(s.Linux.Namespaces, LinuxNamespace{Type: UserNamespace})
	s.Linux.UIDMappings = []LinuxIDMapping{{ContainerID: 0, HostID: uint32(uid), Size: 1}}
	s.Linux.GIDMappings = []LinuxIDMapping{{ContainerID: 0, HostID: uint32(gid), Size: 1}}
}
