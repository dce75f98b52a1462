package lock

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	cerrors "runc-go/errors"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	l, err := Acquire(context.Background(), path, time.Second)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("lock file not created: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Errorf("release: %v", err)
	}
}

func TestAcquireZeroTimeoutUsesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	l, err := Acquire(context.Background(), path, 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer l.Release()
}

func TestAcquireContended(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	first, err := Acquire(context.Background(), path, time.Second)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer first.Release()

	_, err = Acquire(context.Background(), path, 100*time.Millisecond)
	if err == nil {
		t.Fatal("expected second acquire to time out")
	}
	if !os.IsTimeout(err) {
		if _, ok := asLockBusy(err); !ok {
			t.Errorf("expected ErrLockBusy, got %v", err)
		}
	}
}

func asLockBusy(err error) (error, bool) {
	if err == nil {
		return nil, false
	}
	for e := err; e != nil; e = unwrap(e) {
		if e == cerrors.ErrLockBusy {
			return e, true
		}
	}
	return nil, false
}

func unwrap(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}

func TestAcquireContextCanceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	first, err := Acquire(context.Background(), path, time.Second)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer first.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Acquire(ctx, path, time.Second)
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
}

func TestReleaseNilLock(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Errorf("release of nil lock should be a no-op: %v", err)
	}
}
