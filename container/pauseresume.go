// Package container implements the pause/resume operations.
package container

import (
	"context"
	"fmt"

	"runc-go/cgroups"
	cerrors "runc-go/errors"
	"runc-go/lock"
	"runc-go/spec"
)

// Pause freezes all processes in a running container via its cgroup
// freezer, without sending any signal the workload could observe.
func Pause(ctx context.Context, id, stateRoot string) error {
	c, err := Load(ctx, id, stateRoot)
	if err != nil {
		return fmt.Errorf("load container: %w", err)
	}

	containerLock, err := lock.Acquire(ctx, lockFilePath(c.StateDir), lock.DefaultTimeout)
	if err != nil {
		return cerrors.WrapWithContainer(err, cerrors.ErrBusy, "pause", id)
	}
	defer containerLock.Release()

	c.RefreshStatus()
	if c.State.Status != spec.StatusRunning || c.State.Paused {
		return cerrors.WrapWithDetail(nil, cerrors.ErrInvalidState, "pause",
			fmt.Sprintf("container %s is not running (status: %s, paused: %t)", id, c.State.Status, c.State.Paused))
	}

	manager, err := managerFor(c)
	if err != nil {
		return err
	}
	if err := manager.Freeze(); err != nil {
		return cerrors.WrapWithContainer(err, cerrors.ErrCgroup, "pause", id)
	}

	c.mu.Lock()
	c.State.Paused = true
	c.mu.Unlock()
	if err := c.SaveState(); err != nil {
		return cerrors.Wrap(err, cerrors.ErrInternal, "save state")
	}
	return nil
}

// Resume thaws a previously paused container.
func Resume(ctx context.Context, id, stateRoot string) error {
	c, err := Load(ctx, id, stateRoot)
	if err != nil {
		return fmt.Errorf("load container: %w", err)
	}

	containerLock, err := lock.Acquire(ctx, lockFilePath(c.StateDir), lock.DefaultTimeout)
	if err != nil {
		return cerrors.WrapWithContainer(err, cerrors.ErrBusy, "resume", id)
	}
	defer containerLock.Release()

	if !c.State.Paused {
		return cerrors.WrapWithDetail(nil, cerrors.ErrInvalidState, "resume",
			fmt.Sprintf("container %s is not paused (status: %s)", id, c.State.Status))
	}

	manager, err := managerFor(c)
	if err != nil {
		return err
	}
	if err := manager.Thaw(); err != nil {
		return cerrors.WrapWithContainer(err, cerrors.ErrCgroup, "resume", id)
	}

	c.mu.Lock()
	c.State.Paused = false
	c.mu.Unlock()
	if err := c.SaveState(); err != nil {
		return cerrors.Wrap(err, cerrors.ErrInternal, "save state")
	}
	return nil
}

// managerFor reconstructs a cgroups.Manager for an already-created
// container from its frozen backend choice and path.
func managerFor(c *Container) (*cgroups.Manager, error) {
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
		return nil, cerrors.WrapWithContainer(err, cerrors.ErrCgroup, "resolve cgroup manager", c.ID)
	}
	return manager, nil
}
