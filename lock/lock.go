// Package lock implements the per-container file lock guarding state.json
// and config.json reads/mutations across create/start/kill/delete.
//
// Acquisition is blocking with a bounded timeout; a timeout is surfaced as
// errors.ErrLockBusy rather than an os-level error, so callers and the CLI
// can map it to a stable exit code.
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	cerrors "runc-go/errors"
)

// DefaultTimeout is how long Acquire waits for a contended lock before
// giving up with errors.ErrLockBusy.
const DefaultTimeout = 10 * time.Second

// pollInterval is how often a blocked Acquire retries LOCK_EX|LOCK_NB.
// flock has no timed variant, so bounded blocking is implemented as a
// retry loop rather than a single syscall.
const pollInterval = 50 * time.Millisecond

// Lock is an exclusive advisory lock on a container's lock file.
type Lock struct {
	file *os.File
	path string
}

// Acquire opens (creating if necessary) and exclusively locks the lock file
// at path, waiting up to timeout. A zero timeout uses DefaultTimeout.
func Acquire(ctx context.Context, path string, timeout time.Duration) (*Lock, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, cerrors.Wrap(err, cerrors.ErrPermission, "lock: mkdir")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.ErrPermission, "lock: open")
	}

	deadline := time.Now().Add(timeout)
	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &Lock{file: f, path: path}, nil
		}
		if err != unix.EWOULDBLOCK {
			f.Close()
			return nil, cerrors.Wrap(err, cerrors.ErrInternal, "lock: flock")
		}

		select {
		case <-ctx.Done():
			f.Close()
			return nil, ctx.Err()
		default:
		}

		if time.Now().After(deadline) {
			f.Close()
			return nil, fmt.Errorf("%w: %s", cerrors.ErrLockBusy, path)
		}
		time.Sleep(pollInterval)
	}
}

// Release unlocks and closes the lock file.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	return l.file.Close()
}
