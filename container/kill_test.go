package container

import (
	"context"
	"os"
	"syscall"
	"testing"

	"runc-go/spec"
)

func TestParseSignalByName(t *testing.T) {
	sig, err := ParseSignal("SIGTERM")
	if err != nil {
		t.Fatalf("ParseSignal: %v", err)
	}
	if sig != syscall.SIGTERM {
		t.Errorf("got %v, want %v", sig, syscall.SIGTERM)
	}
}

func TestParseSignalShorthand(t *testing.T) {
	sig, err := ParseSignal("term")
	if err != nil {
		t.Fatalf("ParseSignal: %v", err)
	}
	if sig != syscall.SIGTERM {
		t.Errorf("got %v, want %v", sig, syscall.SIGTERM)
	}
}

func TestParseSignalNumeric(t *testing.T) {
	sig, err := ParseSignal("9")
	if err != nil {
		t.Fatalf("ParseSignal: %v", err)
	}
	if sig != syscall.SIGKILL {
		t.Errorf("got %v, want %v", sig, syscall.SIGKILL)
	}
}

func TestParseSignalUnknown(t *testing.T) {
	if _, err := ParseSignal("NOTASIGNAL"); err == nil {
		t.Fatal("expected error for unknown signal")
	}
}

func TestKillStoppedContainerFails(t *testing.T) {
	c, stateRoot := newFixtureContainer(t, "kill-stopped")

	err := Kill(context.Background(), c.ID, stateRoot, syscall.SIGTERM, false)
	if err == nil {
		t.Fatal("expected error killing a stopped container")
	}
}

func TestKillRunningContainerSignals(t *testing.T) {
	c, stateRoot := newFixtureContainer(t, "kill-running")
	c.State.Status = spec.StatusRunning
	c.InitProcess = os.Getpid()
	if err := c.SaveState(); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	if err := Kill(context.Background(), c.ID, stateRoot, syscall.Signal(0), false); err != nil {
		t.Fatalf("Kill: %v", err)
	}
}
