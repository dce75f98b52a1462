package container

import (
	"os"
	"testing"
)

func TestNamespacePidSelf(t *testing.T) {
	nsPid, err := NamespacePid(os.Getpid())
	if err != nil {
		t.Fatalf("NamespacePid: %v", err)
	}
	if nsPid <= 0 {
		t.Errorf("got %d, want a positive pid", nsPid)
	}
}

func TestNamespacePidUnknown(t *testing.T) {
	if _, err := NamespacePid(999999999); err == nil {
		t.Fatal("expected error for nonexistent pid")
	}
}

func TestHumanBytesLimit(t *testing.T) {
	if got := humanBytesLimit(0); got != "unlimited" {
		t.Errorf("got %q, want unlimited", got)
	}
	if got := humanBytesLimit(1 << 62); got != "unlimited" {
		t.Errorf("got %q, want unlimited", got)
	}
	if got := humanBytesLimit(1024); got == "unlimited" || got == "" {
		t.Errorf("got %q, want a formatted size", got)
	}
}

func TestHumanCountLimit(t *testing.T) {
	if got := humanCountLimit(0); got != "unlimited" {
		t.Errorf("got %q, want unlimited", got)
	}
	if got := humanCountLimit(64); got != "64" {
		t.Errorf("got %q, want 64", got)
	}
}
