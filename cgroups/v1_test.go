package cgroups

import (
	"os"
	"path/filepath"
	"testing"

	"runc-go/spec"
)

func TestDeviceRuleDefaults(t *testing.T) {
	dev := spec.LinuxDeviceCgroup{Access: "rwm"}
	got := deviceRule(dev)
	if got != "a *:* rwm" {
		t.Errorf("got %q, want %q", got, "a *:* rwm")
	}
}

func TestDeviceRuleExplicit(t *testing.T) {
	major, minor := int64(10), int64(200)
	dev := spec.LinuxDeviceCgroup{Type: "c", Major: &major, Minor: &minor, Access: "rw"}
	got := deviceRule(dev)
	if got != "c 10:200 rw" {
		t.Errorf("got %q, want %q", got, "c 10:200 rw")
	}
}

func TestReadUint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "value")
	if err := os.WriteFile(path, []byte("12345\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := readUint(path)
	if err != nil {
		t.Fatalf("readUint: %v", err)
	}
	if got != 12345 {
		t.Errorf("got %d, want 12345", got)
	}
}

func TestReadUintMissingFile(t *testing.T) {
	if _, err := readUint(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadProcs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cgroup.procs")
	if err := os.WriteFile(path, []byte("1\n2\n3\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	pids, err := readProcs(path)
	if err != nil {
		t.Fatalf("readProcs: %v", err)
	}
	if len(pids) != 3 || pids[0] != 1 || pids[2] != 3 {
		t.Errorf("got %v, want [1 2 3]", pids)
	}
}

func TestNewV1BackendRequiresRoot(t *testing.T) {
	if os.Getuid() != 0 {
		t.Skip("requires root to create cgroup v1 directories")
	}
	b, err := newV1Backend("test-container", "")
	if err != nil {
		t.Fatalf("newV1Backend: %v", err)
	}
	if b.relPath != filepath.Join("runc-go", "test-container") {
		t.Errorf("got relPath %q", b.relPath)
	}
}
