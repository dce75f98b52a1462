// Package netsetup brings a freshly created network namespace out of its
// initial, link-less state. The OCI runtime itself is not responsible for
// configuring container networking (that is CNI's job, invoked by the
// higher-level tooling before `start`), but every network namespace starts
// with only a down loopback interface, and nothing outside the container
// can bring it up from inside the namespace after the fact - so this one
// piece of setup is in scope even though broader network configuration is
// not.
package netsetup

import (
	"fmt"
	"runtime"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
)

// BringUpLoopback sets the "lo" interface up inside the network namespace
// of pid. Safe to call even when no network namespace was requested, in
// which case it just brings up the host's loopback again, which is
// already up, so the call is a harmless no-op.
//
// netns.Set changes the network namespace of the calling OS thread, so
// this must run with the thread locked for the duration of the switch.
func BringUpLoopback(pid int) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	targetNs, err := netns.GetFromPid(pid)
	if err != nil {
		return fmt.Errorf("netsetup: get namespace for pid %d: %w", pid, err)
	}
	defer targetNs.Close()

	currentNs, err := netns.Get()
	if err != nil {
		return fmt.Errorf("netsetup: get current namespace: %w", err)
	}
	defer currentNs.Close()

	if err := netns.Set(targetNs); err != nil {
		return fmt.Errorf("netsetup: enter namespace: %w", err)
	}
	defer netns.Set(currentNs)

	link, err := netlink.LinkByName("lo")
	if err != nil {
		return fmt.Errorf("netsetup: find loopback: %w", err)
	}
	if err := netlink.LinkSetUp(link); err != nil {
		return fmt.Errorf("netsetup: bring up loopback: %w", err)
	}
	return nil
}
