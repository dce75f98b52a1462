package linux

import (
	"testing"

	"runc-go/spec"
)

func TestActionMapCoversOCIActions(t *testing.T) {
	actions := []spec.LinuxSeccompAction{
		spec.ActKill, spec.ActKillProcess, spec.ActKillThread,
		spec.ActTrap, spec.ActErrno, spec.ActTrace,
		spec.ActAllow, spec.ActLog, spec.ActNotify,
	}

	for _, a := range actions {
		if _, ok := actionMap[a]; !ok {
			t.Errorf("actionMap missing entry for %s", a)
		}
	}
}

func TestArchMapCoversCommonArches(t *testing.T) {
	arches := []spec.Arch{spec.ArchX86, spec.ArchX86_64, spec.ArchARM, spec.ArchAARCH64}

	for _, a := range arches {
		if _, ok := archMap[a]; !ok {
			t.Errorf("archMap missing entry for %s", a)
		}
	}
}

func TestArchMapRejectsUnknown(t *testing.T) {
	if _, ok := archMap[spec.Arch("SCMP_ARCH_UNKNOWN")]; ok {
		t.Error("archMap should not contain an unknown architecture")
	}
}

func TestCompareOpMapCoversOperators(t *testing.T) {
	ops := []spec.LinuxSeccompOperator{
		"SCMP_CMP_NE", "SCMP_CMP_LT", "SCMP_CMP_LE", "SCMP_CMP_EQ",
		"SCMP_CMP_GE", "SCMP_CMP_GT", "SCMP_CMP_MASKED_EQ",
	}

	for _, op := range ops {
		if _, ok := compareOpMap[op]; !ok {
			t.Errorf("compareOpMap missing entry for %s", op)
		}
	}
}

func TestSetupSeccompNilConfig(t *testing.T) {
	if err := SetupSeccomp(nil); err != nil {
		t.Errorf("nil config should not error: %v", err)
	}
}

func TestSetupSeccompUnknownDefaultAction(t *testing.T) {
	config := &spec.LinuxSeccomp{
		DefaultAction: "SCMP_ACT_INVALID",
	}

	if err := SetupSeccomp(config); err == nil {
		t.Error("expected error for unknown default action")
	}
}
