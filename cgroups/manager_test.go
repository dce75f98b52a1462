package cgroups

import (
	"os"
	"testing"

	"runc-go/spec"
)

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New(spec.CgroupBackend("bogus"), "id", "", false); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNewV1Dispatch(t *testing.T) {
	if os.Getuid() != 0 {
		t.Skip("requires root to create cgroup v1 directories")
	}
	m, err := New(spec.CgroupBackendV1, "test-manager", "", false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Kind() != spec.CgroupBackendV1 {
		t.Errorf("got kind %s, want %s", m.Kind(), spec.CgroupBackendV1)
	}
}

func TestManagerSetNilResourcesIsNoop(t *testing.T) {
	m := &Manager{kind: spec.CgroupBackendV1, impl: &v1Backend{relPath: "does/not/exist"}}
	if err := m.Set(nil); err != nil {
		t.Errorf("Set(nil) should be a no-op, got %v", err)
	}
}
