// Package container implements the create operation.
package container

import (
	"context"

	cerrors "runc-go/errors"
	"runc-go/lock"
	"runc-go/spec"
)

// CreateOptions contains options for container creation.
type CreateOptions struct {
	// ConsoleSocket is the path to a unix socket for the console.
	ConsoleSocket string

	// PidFile is the path to write the container PID.
	PidFile string

	// NoPivot disables pivot_root (use chroot instead).
	NoPivot bool

	// NoNewKeyring disables creating a new session keyring.
	NoNewKeyring bool

	// SystemdCgroup forces the systemd cgroup backend, matching runc's
	// --systemd-cgroup flag.
	SystemdCgroup bool
}

// Create creates a container but doesn't start the user process. The
// container will be in "created" state, waiting for Start().
//
// Construction runs as a three-role pipeline (see pipeline.go): this
// method plays the Caller, driving the Intermediate and Init roles
// through their milestones over a shared ipc.Channel before returning.
func (c *Container) Create(ctx context.Context, opts *CreateOptions) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if opts == nil {
		opts = &CreateOptions{}
	}

	containerLock, err := lock.Acquire(ctx, lockFilePath(c.StateDir), lock.DefaultTimeout)
	if err != nil {
		return cerrors.WrapWithContainer(err, cerrors.ErrBusy, "create", c.ID)
	}
	defer containerLock.Release()

	if err := c.CreateExecFifo(); err != nil {
		return cerrors.Wrap(err, cerrors.ErrResource, "create exec fifo")
	}

	result, err := c.runPipeline(ctx, opts)
	if err != nil {
		removeExecFifo(c)
		return err
	}

	c.InitProcess = result.pid
	c.State.Pid = result.pid
	c.State.CgroupBackend = result.cgroupKind
	c.State.CgroupPath = result.cgroupPath
	c.CgroupPath = result.cgroupPath

	if opts.PidFile != "" {
		if err := writePidFile(opts.PidFile, result.pid); err != nil {
			if result.intermediate != nil {
				result.intermediate.Kill()
			}
			removeExecFifo(c)
			return cerrors.Wrap(err, cerrors.ErrResource, "write pid file")
		}
	}

	c.State.Status = spec.StatusCreated
	if err := c.SaveState(); err != nil {
		if result.intermediate != nil {
			result.intermediate.Kill()
		}
		removeExecFifo(c)
		return cerrors.Wrap(err, cerrors.ErrInternal, "save state")
	}

	return nil
}
