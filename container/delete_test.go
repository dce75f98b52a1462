package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	cerrors "runc-go/errors"
	"runc-go/spec"
)

func newFixtureContainer(t *testing.T, id string) (*Container, string) {
	t.Helper()
	tmpDir := t.TempDir()

	bundleDir := filepath.Join(tmpDir, "bundle")
	if err := os.MkdirAll(filepath.Join(bundleDir, "rootfs"), 0755); err != nil {
		t.Fatalf("mkdir bundle: %v", err)
	}
	if err := spec.Save(spec.DefaultSpec(), filepath.Join(bundleDir, "config.json")); err != nil {
		t.Fatalf("save config: %v", err)
	}

	stateRoot := filepath.Join(tmpDir, "state")
	c, err := New(context.Background(), id, bundleDir, stateRoot)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.State.Status = spec.StatusStopped
	if err := c.SaveState(); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	return c, stateRoot
}

func TestDeleteStoppedContainer(t *testing.T) {
	c, stateRoot := newFixtureContainer(t, "delete-stopped")

	if err := Delete(context.Background(), c.ID, stateRoot, nil); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(c.StateDir); !os.IsNotExist(err) {
		t.Errorf("expected state dir removed, stat err = %v", err)
	}
}

func TestDeleteNonexistentContainerReturnsNotFound(t *testing.T) {
	stateRoot := t.TempDir()
	err := Delete(context.Background(), "does-not-exist", stateRoot, nil)
	if !cerrors.IsKind(err, cerrors.ErrNotFound) {
		t.Errorf("Delete of nonexistent container: got %v, want a NotFound error", err)
	}
}

func TestDeleteRunningWithoutForceFails(t *testing.T) {
	c, stateRoot := newFixtureContainer(t, "delete-running")
	c.State.Status = spec.StatusRunning
	c.InitProcess = os.Getpid()
	if err := c.SaveState(); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	if err := Delete(context.Background(), c.ID, stateRoot, nil); err == nil {
		t.Fatal("expected error deleting a running container without --force")
	}
}

func TestCleanupRemovesStoppedContainers(t *testing.T) {
	c, stateRoot := newFixtureContainer(t, "cleanup-stopped")

	if err := Cleanup(context.Background(), stateRoot); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(c.StateDir); !os.IsNotExist(err) {
		t.Errorf("expected state dir removed by cleanup, stat err = %v", err)
	}
}

func TestCleanupEmptyStateRoot(t *testing.T) {
	stateRoot := filepath.Join(t.TempDir(), "does-not-exist-yet")
	if err := Cleanup(context.Background(), stateRoot); err != nil {
		t.Errorf("Cleanup of missing state root should be a no-op: %v", err)
	}
}
