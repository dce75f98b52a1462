package spec

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestVersionNonEmpty(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestDefaultSpec(t *testing.T) {
	s := DefaultSpec()

	if s == nil {
		t.Fatal("DefaultSpec returned nil")
	}
	if s.Version != Version {
		t.Errorf("expected version %s, got %s", Version, s.Version)
	}
	if s.Root == nil {
		t.Fatal("Root is nil")
	}
	if s.Root.Path != "rootfs" {
		t.Errorf("expected root path 'rootfs', got %s", s.Root.Path)
	}
	if s.Process == nil {
		t.Fatal("Process is nil")
	}
	if len(s.Process.Args) == 0 || s.Process.Args[0] != "sh" {
		t.Errorf("expected default arg 'sh', got %v", s.Process.Args)
	}
	if s.Hostname == "" {
		t.Error("Hostname should not be empty")
	}
	if s.Linux == nil {
		t.Fatal("Linux config is nil")
	}
	if len(s.Linux.Namespaces) == 0 {
		t.Error("No namespaces configured")
	}

	namespaceTypes := make(map[LinuxNamespaceType]bool)
	for _, ns := range s.Linux.Namespaces {
		namespaceTypes[ns.Type] = true
	}

	required := []LinuxNamespaceType{PIDNamespace, NetworkNamespace, IPCNamespace, UTSNamespace, MountNamespace}
	for _, ns := range required {
		if !namespaceTypes[ns] {
			t.Errorf("missing required namespace: %s", ns)
		}
	}
}

func TestDefaultCapabilities(t *testing.T) {
	caps := defaultCapabilities()
	if caps == nil {
		t.Fatal("defaultCapabilities returned nil")
	}

	expected := map[string]bool{
		"CAP_CHOWN":      false,
		"CAP_SETUID":     false,
		"CAP_SETGID":     false,
		"CAP_KILL":       false,
		"CAP_SYS_CHROOT": false,
	}

	for _, c := range caps.Bounding {
		if _, ok := expected[c]; ok {
			expected[c] = true
		}
	}
	for c, found := range expected {
		if !found {
			t.Errorf("missing expected capability in bounding set: %s", c)
		}
	}
	if len(caps.Effective) != len(caps.Bounding) || len(caps.Permitted) != len(caps.Bounding) {
		t.Error("effective/permitted sets should mirror the bounding set by default")
	}
}

func TestLoadSpec(t *testing.T) {
	tmpDir := t.TempDir()

	want := DefaultSpec()
	specPath := filepath.Join(tmpDir, "config.json")

	data, err := json.MarshalIndent(want, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal spec: %v", err)
	}
	if err := os.WriteFile(specPath, data, 0600); err != nil {
		t.Fatalf("failed to write spec: %v", err)
	}

	loaded, err := LoadSpec(specPath)
	if err != nil {
		t.Fatalf("LoadSpec failed: %v", err)
	}
	if loaded.Version != want.Version {
		t.Errorf("version mismatch: expected %s, got %s", want.Version, loaded.Version)
	}
	if loaded.Hostname != want.Hostname {
		t.Errorf("hostname mismatch: expected %s, got %s", want.Hostname, loaded.Hostname)
	}
}

func TestLoadSpecNotFound(t *testing.T) {
	if _, err := LoadSpec("/nonexistent/path/config.json"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadSpecInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	specPath := filepath.Join(tmpDir, "config.json")
	if err := os.WriteFile(specPath, []byte("invalid json"), 0600); err != nil {
		t.Fatalf("failed to write invalid json: %v", err)
	}

	if _, err := LoadSpec(specPath); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadSpecRequiresProcessArgs(t *testing.T) {
	tmpDir := t.TempDir()
	specPath := filepath.Join(tmpDir, "config.json")
	s := &Spec{Version: Version, Root: &Root{Path: "rootfs"}, Process: &Process{}}
	data, _ := json.Marshal(s)
	if err := os.WriteFile(specPath, data, 0600); err != nil {
		t.Fatalf("failed to write spec: %v", err)
	}

	if _, err := LoadSpec(specPath); err == nil {
		t.Error("expected error for empty process.args")
	}
}

func TestLoadSpecRequiresRootPath(t *testing.T) {
	tmpDir := t.TempDir()
	specPath := filepath.Join(tmpDir, "config.json")
	s := &Spec{Version: Version, Process: &Process{Args: []string{"sh"}}}
	data, _ := json.Marshal(s)
	if err := os.WriteFile(specPath, data, 0600); err != nil {
		t.Fatalf("failed to write spec: %v", err)
	}

	if _, err := LoadSpec(specPath); err == nil {
		t.Error("expected error for missing root.path")
	}
}

func TestSaveSpec(t *testing.T) {
	tmpDir := t.TempDir()

	s := DefaultSpec()
	s.Hostname = "test-container"
	specPath := filepath.Join(tmpDir, "config.json")

	if err := Save(s, specPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadSpec(specPath)
	if err != nil {
		t.Fatalf("failed to reload spec: %v", err)
	}
	if loaded.Hostname != "test-container" {
		t.Errorf("hostname mismatch after reload: expected test-container, got %s", loaded.Hostname)
	}
}

func TestSpecJSONSerialization(t *testing.T) {
	s := &Spec{
		Version:  Version,
		Hostname: "test",
		Root: &Root{
			Path:     "rootfs",
			Readonly: true,
		},
		Process: &Process{
			Terminal: true,
			Args:     []string{"/bin/sh", "-c", "echo hello"},
			Env:      []string{"PATH=/bin", "HOME=/root"},
			Cwd:      "/",
			User: User{
				UID: 1000,
				GID: 1000,
			},
		},
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var decoded Spec
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if decoded.Version != s.Version {
		t.Errorf("version mismatch")
	}
	if decoded.Hostname != s.Hostname {
		t.Errorf("hostname mismatch")
	}
	if decoded.Root.Readonly != s.Root.Readonly {
		t.Errorf("root readonly mismatch")
	}
	if decoded.Process.User.UID != s.Process.User.UID {
		t.Errorf("user UID mismatch")
	}
}

func TestNamespaceTypes(t *testing.T) {
	tests := []struct {
		nsType   LinuxNamespaceType
		expected string
	}{
		{PIDNamespace, "pid"},
		{NetworkNamespace, "network"},
		{MountNamespace, "mount"},
		{IPCNamespace, "ipc"},
		{UTSNamespace, "uts"},
		{UserNamespace, "user"},
		{CgroupNamespace, "cgroup"},
		{TimeNamespace, "time"},
	}

	for _, tc := range tests {
		if string(tc.nsType) != tc.expected {
			t.Errorf("expected %s, got %s", tc.expected, tc.nsType)
		}
	}
}

func TestSeccompActions(t *testing.T) {
	actions := []LinuxSeccompAction{
		ActKill, ActKillProcess, ActKillThread, ActTrap,
		ActErrno, ActTrace, ActAllow, ActLog, ActNotify,
	}

	for _, action := range actions {
		if action == "" {
			t.Error("empty seccomp action")
		}
	}
}

func TestMountSerialization(t *testing.T) {
	mount := Mount{
		Destination: "/data",
		Type:        "bind",
		Source:      "/host/data",
		Options:     []string{"rbind", "rw"},
	}

	data, err := json.Marshal(mount)
	if err != nil {
		t.Fatalf("failed to marshal mount: %v", err)
	}

	var decoded Mount
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal mount: %v", err)
	}

	if decoded.Destination != mount.Destination {
		t.Errorf("destination mismatch")
	}
	if len(decoded.Options) != len(mount.Options) {
		t.Errorf("options length mismatch")
	}
}

func TestLinuxResourcesSerialization(t *testing.T) {
	limit := int64(1024 * 1024 * 100)
	resources := &LinuxResources{
		Memory: &LinuxMemory{Limit: &limit},
		Pids:   &LinuxPids{Limit: 100},
	}

	data, err := json.Marshal(resources)
	if err != nil {
		t.Fatalf("failed to marshal resources: %v", err)
	}

	var decoded LinuxResources
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal resources: %v", err)
	}

	if decoded.Memory == nil || decoded.Memory.Limit == nil {
		t.Fatal("memory limit not preserved")
	}
	if *decoded.Memory.Limit != limit {
		t.Errorf("memory limit mismatch: expected %d, got %d", limit, *decoded.Memory.Limit)
	}
	if decoded.Pids == nil || decoded.Pids.Limit != 100 {
		t.Error("pids limit not preserved")
	}
}

func TestRootlessSpec(t *testing.T) {
	s := DefaultSpec()
	s.Linux.UIDMappings = nil
	s.Linux.GIDMappings = nil

	RootlessSpec(s, 1000, 1000)

	if !hasUserNamespace(s) {
		t.Fatal("RootlessSpec should add a user namespace")
	}
	if len(s.Linux.UIDMappings) != 1 || s.Linux.UIDMappings[0].HostID != 1000 {
		t.Errorf("unexpected uid mappings: %+v", s.Linux.UIDMappings)
	}
	if len(s.Linux.GIDMappings) != 1 || s.Linux.GIDMappings[0].HostID != 1000 {
		t.Errorf("unexpected gid mappings: %+v", s.Linux.GIDMappings)
	}
}

func hasUserNamespace(s *Spec) bool {
	for _, ns := range s.Linux.Namespaces {
		if ns.Type == UserNamespace {
			return true
		}
	}
	return false
}
