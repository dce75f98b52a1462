// Package linux provides Linux capability management.
package linux

import (
	"fmt"
	"strings"

	"github.com/moby/sys/capability"

	"runc-go/spec"
)

// capsByName indexes every capability the running kernel knows about by
// its upper-cased "CAP_FOO" name, built once from capability.List() so
// this tree never has to hand-maintain a name/number table that drifts
// from what the kernel actually supports.
var capsByName = func() map[string]capability.Cap {
	m := make(map[string]capability.Cap)
	for _, c := range capability.List() {
		m[normalizeCapName(c.String())] = c
	}
	return m
}()

func normalizeCapName(name string) string {
	name = strings.ToUpper(name)
	if !strings.HasPrefix(name, "CAP_") {
		name = "CAP_" + name
	}
	return name
}

// NameToCap resolves an OCI capability name (e.g. "CAP_SYS_ADMIN") to its
// capability.Cap value.
func NameToCap(name string) (capability.Cap, bool) {
	c, ok := capsByName[normalizeCapName(name)]
	return c, ok
}

// ApplyCapabilities applies the OCI capability configuration to the
// calling process: bounding set pruning, effective/permitted/inheritable
// sets, and ambient capabilities (which must also be permitted and
// inheritable for the kernel to accept them).
func ApplyCapabilities(caps *spec.LinuxCapabilities) error {
	if caps == nil {
		return nil
	}

	c, err := capability.NewPid2(0)
	if err != nil {
		return fmt.Errorf("capabilities: load process caps: %w", err)
	}
	if err := c.Load(); err != nil {
		return fmt.Errorf("capabilities: load: %w", err)
	}

	c.Clear(capability.BOUNDS)
	c.Set(capability.BOUNDS, resolve(caps.Bounding)...)
	c.Clear(capability.CAPS)
	c.Set(capability.EFFECTIVE, resolve(caps.Effective)...)
	c.Set(capability.PERMITTED, resolve(caps.Permitted)...)
	c.Set(capability.INHERITABLE, resolve(caps.Inheritable)...)
	c.Clear(capability.AMBS)
	c.Set(capability.AMBS, resolve(ambientSubset(caps)...)...)

	if err := c.Apply(capability.BOUNDS | capability.CAPS | capability.AMBS); err != nil {
		return fmt.Errorf("capabilities: apply: %w", err)
	}
	return nil
}

// ambientSubset filters the configured ambient list down to capabilities
// that are also permitted and inheritable, since the kernel rejects an
// ambient raise otherwise.
func ambientSubset(caps *spec.LinuxCapabilities) []string {
	permitted := toSet(caps.Permitted)
	inheritable := toSet(caps.Inheritable)

	var out []string
	for _, name := range caps.Ambient {
		n := normalizeCapName(name)
		if permitted[n] && inheritable[n] {
			out = append(out, name)
		}
	}
	return out
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[normalizeCapName(n)] = true
	}
	return set
}

func resolve(names ...string) []capability.Cap {
	out := make([]capability.Cap, 0, len(names))
	for _, name := range names {
		if c, ok := NameToCap(name); ok {
			out = append(out, c)
		} else {
			fmt.Printf("[capabilities] warning: unknown capability %q\n", name)
		}
	}
	return out
}

// AllCapabilities returns the names of every capability the running
// kernel supports.
func AllCapabilities() []string {
	names := make([]string, 0, len(capsByName))
	for name := range capsByName {
		names = append(names, name)
	}
	return names
}
