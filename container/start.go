// Package container implements the start operation.
package container

import (
	"context"
	"fmt"
	"os"
	"syscall"

	cerrors "runc-go/errors"
	"runc-go/hooks"
	"runc-go/lock"
	"runc-go/spec"
	"runc-go/utils"
)

// Start starts a created container by signaling the init process to exec.
//
// A poststart hook failure moves the container to Stopped rather than
// rolling back the already-running user process: by the time poststart
// hooks run the workload is live, and tearing it back down would destroy
// state the hook failure didn't actually corrupt.
func (c *Container) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	containerLock, err := lock.Acquire(ctx, lockFilePath(c.StateDir), lock.DefaultTimeout)
	if err != nil {
		return cerrors.WrapWithContainer(err, cerrors.ErrBusy, "start", c.ID)
	}
	defer containerLock.Release()

	c.RefreshStatus()
	c.mu.RLock()
	currentStatus := c.State.Status
	c.mu.RUnlock()
	if currentStatus != spec.StatusCreated {
		return cerrors.WrapWithDetail(nil, cerrors.ErrInvalidState, "start",
			fmt.Sprintf("container is not in created state (current: %s)", currentStatus))
	}

	fifoPath := c.ExecFifoPath()
	if err := utils.OpenFifo(fifoPath).Signal(); err != nil {
		return cerrors.Wrap(err, cerrors.ErrResource, "signal fifo")
	}

	if rmErr := os.Remove(fifoPath); rmErr != nil && !os.IsNotExist(rmErr) {
		fmt.Printf("[start] warning: failed to remove fifo: %v\n", rmErr)
	}

	if err := c.UpdateStatus(spec.StatusRunning); err != nil {
		return cerrors.Wrap(err, cerrors.ErrInternal, "save state")
	}

	if c.Spec != nil {
		if err := hooks.Run(c.Spec.Hooks, hooks.Poststart, c.GetState()); err != nil {
			if updateErr := c.UpdateStatus(spec.StatusStopped); updateErr != nil {
				fmt.Printf("[start] warning: mark stopped after poststart failure: %v\n", updateErr)
			}
			return cerrors.WrapWithContainer(err, cerrors.ErrHook, "poststart hooks", c.ID)
		}
	}

	return nil
}

// Run creates and starts a container in one operation.
func (c *Container) Run(ctx context.Context, opts *CreateOptions) error {
	if err := c.Create(ctx, opts); err != nil {
		return err
	}
	return c.Start(ctx)
}

// Wait waits for the container process to exit and returns the exit code.
func (c *Container) Wait(ctx context.Context) (int, error) {
	if c.InitProcess <= 0 {
		return -1, cerrors.WrapWithContainer(nil, cerrors.ErrInvalidState, "wait", c.ID)
	}

	waitCh := make(chan struct {
		wstatus syscall.WaitStatus
		err     error
	}, 1)

	go func() {
		var wstatus syscall.WaitStatus
		_, err := syscall.Wait4(c.InitProcess, &wstatus, 0, nil)
		waitCh <- struct {
			wstatus syscall.WaitStatus
			err     error
		}{wstatus, err}
	}()

	select {
	case <-ctx.Done():
		return -1, ctx.Err()
	case result := <-waitCh:
		if result.err != nil {
			return -1, cerrors.Wrap(result.err, cerrors.ErrInternal, "wait4")
		}

		c.State.Status = spec.StatusStopped
		if saveErr := c.SaveState(); saveErr != nil {
			fmt.Printf("[wait] warning: failed to save state: %v\n", saveErr)
		}

		if result.wstatus.Exited() {
			return result.wstatus.ExitStatus(), nil
		}
		if result.wstatus.Signaled() {
			return 128 + int(result.wstatus.Signal()), nil
		}

		return -1, nil
	}
}
