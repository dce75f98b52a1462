// Package container implements the delete operation.
package container

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"runc-go/cgroups"
	cerrors "runc-go/errors"
	"runc-go/hooks"
	"runc-go/lock"
	"runc-go/spec"
)

// DeleteOptions contains options for container deletion.
type DeleteOptions struct {
	// Force kills the container if it's running.
	Force bool
}

// Delete removes a container. A Running container is only removed with
// Force: an unforced delete against a running container is an error
// rather than an implicit kill, since silently killing the workload on a
// plain `delete` call surprises callers that expect `delete` to be a
// no-op against state they don't control.
func Delete(ctx context.Context, id, stateRoot string, opts *DeleteOptions) error {
	if opts == nil {
		opts = &DeleteOptions{}
	}

	c, err := Load(ctx, id, stateRoot)
	if err != nil {
		return fmt.Errorf("load container: %w", err)
	}

	containerLock, err := lock.Acquire(ctx, lockFilePath(c.StateDir), lock.DefaultTimeout)
	if err != nil {
		return cerrors.WrapWithContainer(err, cerrors.ErrBusy, "delete", id)
	}
	defer containerLock.Release()

	c.RefreshStatus()

	if c.State.Status == spec.StatusRunning {
		if !opts.Force {
			return cerrors.WrapWithDetail(nil, cerrors.ErrInvalidState, "delete",
				fmt.Sprintf("container %s is running, use --force to kill it", id))
		}
		if err := c.Signal(syscall.SIGKILL); err != nil {
			return fmt.Errorf("kill container: %w", err)
		}
		waitForExit(ctx, c.InitProcess, 5*time.Second)
	}

	removeCgroup(c)
	os.Remove(c.ExecFifoPath())

	state := c.GetState()
	if c.Spec != nil {
		if err := hooks.Run(c.Spec.Hooks, hooks.Poststop, state); err != nil {
			fmt.Printf("[delete] warning: poststop hooks: %v\n", err)
		}
	}

	if err := os.RemoveAll(c.StateDir); err != nil {
		return fmt.Errorf("remove state dir: %w", err)
	}

	return nil
}

// removeCgroup tears down the container's cgroup using its frozen backend
// choice, falling back to v1/v2 auto-resolution for state recorded before
// CgroupBackend was tracked.
func removeCgroup(c *Container) {
	backend := c.State.CgroupBackend
	if backend == "" {
		backend = cgroups.Resolve(cgroups.ResolveOptions{})
	}
	path := c.State.CgroupPath
	if path == "" {
		path = c.CgroupPath
	}

	manager, err := cgroups.New(backend, c.ID, path, false)
	if err != nil {
		return
	}
	if err := manager.Remove(); err != nil {
		fmt.Printf("[delete] warning: remove cgroup: %v\n", err)
	}
}

// waitForExit waits for a process to exit with a timeout.
func waitForExit(ctx context.Context, pid int, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := syscall.Kill(pid, 0); err != nil {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// Cleanup removes all state for containers that are no longer running.
func Cleanup(ctx context.Context, stateRoot string) error {
	if stateRoot == "" {
		stateRoot = DefaultStateDir
	}

	entries, err := os.ReadDir(stateRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !entry.IsDir() {
			continue
		}

		c, err := Load(ctx, entry.Name(), stateRoot)
		if err != nil {
			os.RemoveAll(filepath.Join(stateRoot, entry.Name()))
			continue
		}

		c.RefreshStatus()
		if c.State.Status == spec.StatusStopped {
			Delete(ctx, c.ID, stateRoot, &DeleteOptions{Force: true})
		}
	}

	return nil
}
