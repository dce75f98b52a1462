package linux

import (
	"syscall"
	"testing"

	"runc-go/spec"
)

func TestNamespaceConstants(t *testing.T) {
	if CLONE_NEWNS != syscall.CLONE_NEWNS {
		t.Errorf("CLONE_NEWNS mismatch")
	}
	if CLONE_NEWUTS != syscall.CLONE_NEWUTS {
		t.Errorf("CLONE_NEWUTS mismatch")
	}
	if CLONE_NEWIPC != syscall.CLONE_NEWIPC {
		t.Errorf("CLONE_NEWIPC mismatch")
	}
	if CLONE_NEWPID != syscall.CLONE_NEWPID {
		t.Errorf("CLONE_NEWPID mismatch")
	}
	if CLONE_NEWNET != syscall.CLONE_NEWNET {
		t.Errorf("CLONE_NEWNET mismatch")
	}
	if CLONE_NEWUSER != syscall.CLONE_NEWUSER {
		t.Errorf("CLONE_NEWUSER mismatch")
	}
	if CLONE_NEWCGROUP != 0x02000000 {
		t.Errorf("CLONE_NEWCGROUP should be 0x02000000")
	}
	if CLONE_NEWTIME != 0x00000080 {
		t.Errorf("CLONE_NEWTIME should be 0x00000080")
	}
}

func TestNamespaceTypeToFlag(t *testing.T) {
	tests := []struct {
		nsType   spec.LinuxNamespaceType
		expected uintptr
	}{
		{spec.PIDNamespace, CLONE_NEWPID},
		{spec.NetworkNamespace, CLONE_NEWNET},
		{spec.MountNamespace, CLONE_NEWNS},
		{spec.IPCNamespace, CLONE_NEWIPC},
		{spec.UTSNamespace, CLONE_NEWUTS},
		{spec.UserNamespace, CLONE_NEWUSER},
		{spec.CgroupNamespace, CLONE_NEWCGROUP},
		{spec.TimeNamespace, CLONE_NEWTIME},
	}

	for _, tc := range tests {
		flag, ok := namespaceTypeToFlag[tc.nsType]
		if !ok {
			t.Errorf("missing mapping for %s", tc.nsType)
			continue
		}
		if flag != tc.expected {
			t.Errorf("expected 0x%x for %s, got 0x%x", tc.expected, tc.nsType, flag)
		}
	}
}

func TestFlagsForTypes(t *testing.T) {
	namespaces := []spec.LinuxNamespace{
		{Type: spec.PIDNamespace},
		{Type: spec.MountNamespace},
		{Type: spec.NetworkNamespace, Path: "/var/run/netns/test"},
	}

	got := FlagsForTypes(namespaces, []spec.LinuxNamespaceType{spec.PIDNamespace, spec.NetworkNamespace})
	want := uintptr(CLONE_NEWPID)
	if got != want {
		t.Errorf("FlagsForTypes() = 0x%x, want 0x%x (network has a path and should be excluded)", got, want)
	}
}

func TestEarlyAndLateHopFlagsPartitionTypes(t *testing.T) {
	namespaces := []spec.LinuxNamespace{
		{Type: spec.PIDNamespace},
		{Type: spec.MountNamespace},
		{Type: spec.CgroupNamespace},
	}

	early := EarlyHopFlags(namespaces)
	late := LateHopFlags(namespaces)

	if early&CLONE_NEWNS == 0 {
		t.Error("early hop should include mount namespace")
	}
	if early&CLONE_NEWPID != 0 {
		t.Error("early hop should not include pid namespace")
	}
	if late&CLONE_NEWPID == 0 {
		t.Error("late hop should include pid namespace")
	}
	if late&CLONE_NEWCGROUP == 0 {
		t.Error("late hop should include cgroup namespace")
	}
}

func TestNamespaceFlags(t *testing.T) {
	namespaces := []spec.LinuxNamespace{
		{Type: spec.PIDNamespace},
		{Type: spec.NetworkNamespace},
		{Type: spec.MountNamespace},
	}

	flags := NamespaceFlags(namespaces)

	expected := uintptr(CLONE_NEWPID | CLONE_NEWNET | CLONE_NEWNS)
	if flags != expected {
		t.Errorf("expected 0x%x, got 0x%x", expected, flags)
	}
}

func TestNamespaceFlagsWithPath(t *testing.T) {
	namespaces := []spec.LinuxNamespace{
		{Type: spec.PIDNamespace},
		{Type: spec.NetworkNamespace, Path: "/var/run/netns/test"},
		{Type: spec.MountNamespace},
	}

	flags := NamespaceFlags(namespaces)

	expected := uintptr(CLONE_NEWPID | CLONE_NEWNS)
	if flags != expected {
		t.Errorf("expected 0x%x, got 0x%x", expected, flags)
	}
}

func TestNamespaceFlagsEmpty(t *testing.T) {
	if flags := NamespaceFlags(nil); flags != 0 {
		t.Errorf("expected 0 for empty namespaces, got 0x%x", flags)
	}
}

func TestHasNamespace(t *testing.T) {
	namespaces := []spec.LinuxNamespace{
		{Type: spec.PIDNamespace},
		{Type: spec.NetworkNamespace},
	}

	if !HasNamespace(namespaces, spec.PIDNamespace) {
		t.Error("should have PID namespace")
	}
	if !HasNamespace(namespaces, spec.NetworkNamespace) {
		t.Error("should have network namespace")
	}
	if HasNamespace(namespaces, spec.MountNamespace) {
		t.Error("should not have mount namespace")
	}
}

func TestHasNamespaceEmpty(t *testing.T) {
	if HasNamespace(nil, spec.PIDNamespace) {
		t.Error("empty list should not have any namespace")
	}
}

func TestGetNamespacePath(t *testing.T) {
	namespaces := []spec.LinuxNamespace{
		{Type: spec.PIDNamespace},
		{Type: spec.NetworkNamespace, Path: "/var/run/netns/test"},
	}

	if path := GetNamespacePath(namespaces, spec.NetworkNamespace); path != "/var/run/netns/test" {
		t.Errorf("expected /var/run/netns/test, got %s", path)
	}
	if path := GetNamespacePath(namespaces, spec.PIDNamespace); path != "" {
		t.Errorf("expected empty path, got %s", path)
	}
	if path := GetNamespacePath(namespaces, spec.MountNamespace); path != "" {
		t.Errorf("expected empty path for missing namespace, got %s", path)
	}
}

func TestBuildIDMappings(t *testing.T) {
	mappings := []spec.LinuxIDMapping{
		{ContainerID: 0, HostID: 1000, Size: 1},
		{ContainerID: 1, HostID: 100000, Size: 65536},
	}

	result := buildIDMappings(mappings)

	if len(result) != 2 {
		t.Fatalf("expected 2 mappings, got %d", len(result))
	}
	if result[0].ContainerID != 0 || result[0].HostID != 1000 || result[0].Size != 1 {
		t.Errorf("first mapping incorrect: %+v", result[0])
	}
	if result[1].ContainerID != 1 || result[1].HostID != 100000 || result[1].Size != 65536 {
		t.Errorf("second mapping incorrect: %+v", result[1])
	}
}

func TestBuildIDMappingsEmpty(t *testing.T) {
	if result := buildIDMappings(nil); len(result) != 0 {
		t.Errorf("expected empty result, got %d mappings", len(result))
	}
}

func TestFormatIDMap(t *testing.T) {
	mappings := []spec.LinuxIDMapping{
		{ContainerID: 0, HostID: 1000, Size: 1},
		{ContainerID: 1, HostID: 100000, Size: 65536},
	}

	result := formatIDMap(mappings)
	expected := "0 1000 1\n1 100000 65536\n"

	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestFormatIDMapEmpty(t *testing.T) {
	if result := formatIDMap(nil); result != "" {
		t.Errorf("expected empty string, got %q", result)
	}
}

func TestIntermediateSysProcAttrNoLinux(t *testing.T) {
	s := &spec.Spec{}

	attr := IntermediateSysProcAttr(s)

	if attr.Cloneflags != 0 {
		t.Errorf("expected no clone flags without a Linux section, got 0x%x", attr.Cloneflags)
	}
	if attr.Unshareflags != syscall.CLONE_NEWNS {
		t.Error("should unshare the mount namespace when there's no user namespace")
	}
}

func TestIntermediateSysProcAttrEarlyHopOnly(t *testing.T) {
	s := &spec.Spec{
		Linux: &spec.Linux{
			Namespaces: []spec.LinuxNamespace{
				{Type: spec.PIDNamespace},
				{Type: spec.MountNamespace},
				{Type: spec.UTSNamespace},
			},
		},
	}

	attr := IntermediateSysProcAttr(s)

	if attr.Cloneflags&CLONE_NEWPID != 0 {
		t.Error("PID namespace should not ride along with the early hop")
	}
	if attr.Cloneflags&CLONE_NEWNS == 0 {
		t.Error("should have CLONE_NEWNS")
	}
	if attr.Cloneflags&CLONE_NEWUTS == 0 {
		t.Error("should have CLONE_NEWUTS")
	}
}

func TestIntermediateSysProcAttrWithUserNamespace(t *testing.T) {
	s := &spec.Spec{
		Linux: &spec.Linux{
			Namespaces: []spec.LinuxNamespace{
				{Type: spec.UserNamespace},
			},
			UIDMappings: []spec.LinuxIDMapping{{ContainerID: 0, HostID: 1000, Size: 1}},
			GIDMappings: []spec.LinuxIDMapping{{ContainerID: 0, HostID: 1000, Size: 1}},
		},
	}

	attr := IntermediateSysProcAttr(s)

	if attr.Cloneflags&CLONE_NEWUSER == 0 {
		t.Error("should have CLONE_NEWUSER")
	}
	if len(attr.UidMappings) != 1 || len(attr.GidMappings) != 1 {
		t.Errorf("expected 1 uid and 1 gid mapping, got %d/%d", len(attr.UidMappings), len(attr.GidMappings))
	}
	if attr.GidMappingsEnableSetgroups {
		t.Error("GidMappingsEnableSetgroups should be false")
	}
	if attr.Unshareflags != 0 {
		t.Error("Unshareflags should be 0 with a user namespace, since unsharing mount happens via the clone flag instead")
	}
}

func TestInitSysProcAttr(t *testing.T) {
	s := &spec.Spec{
		Linux: &spec.Linux{
			Namespaces: []spec.LinuxNamespace{
				{Type: spec.PIDNamespace},
				{Type: spec.MountNamespace},
			},
		},
	}

	attr := InitSysProcAttr(s)

	if attr.Cloneflags&CLONE_NEWPID == 0 {
		t.Error("should have CLONE_NEWPID")
	}
	if attr.Cloneflags&CLONE_NEWNS != 0 {
		t.Error("mount namespace belongs to the early hop, not the late one")
	}
}

func TestSetNamespacesEmpty(t *testing.T) {
	if err := SetNamespaces(nil); err != nil {
		t.Errorf("SetNamespaces with nil should succeed: %v", err)
	}
	if err := SetNamespaces([]spec.LinuxNamespace{}); err != nil {
		t.Errorf("SetNamespaces with empty slice should succeed: %v", err)
	}
}

func TestSetNamespacesNoPath(t *testing.T) {
	namespaces := []spec.LinuxNamespace{
		{Type: spec.PIDNamespace},
		{Type: spec.NetworkNamespace},
	}

	if err := SetNamespaces(namespaces); err != nil {
		t.Errorf("SetNamespaces with no paths should succeed: %v", err)
	}
}

func TestSetHostnameEmpty(t *testing.T) {
	if err := SetHostname(""); err != nil {
		t.Errorf("SetHostname with empty string should succeed: %v", err)
	}
}

func TestSetDomainnameEmpty(t *testing.T) {
	if err := SetDomainname(""); err != nil {
		t.Errorf("SetDomainname with empty string should succeed: %v", err)
	}
}
