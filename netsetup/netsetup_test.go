package netsetup

import (
	"os"
	"testing"
)

// TestBringUpLoopbackSelf exercises BringUpLoopback against the test
// process's own namespace, where "lo" is already up: bringing up an
// already-up loopback is expected to be a harmless no-op. Requires
// CAP_NET_ADMIN; skipped when the environment won't allow namespace entry.
func TestBringUpLoopbackSelf(t *testing.T) {
	if os.Getuid() != 0 {
		t.Skip("requires root to enter network namespaces")
	}
	if err := BringUpLoopback(os.Getpid()); err != nil {
		t.Fatalf("bring up loopback: %v", err)
	}
}

func TestBringUpLoopbackUnknownPid(t *testing.T) {
	if os.Getuid() != 0 {
		t.Skip("requires root to enter network namespaces")
	}
	if err := BringUpLoopback(-1); err == nil {
		t.Fatal("expected error for invalid pid")
	}
}
