// Package linux provides seccomp filter installation.
//
// Filter compilation itself is treated as an opaque "install this filter"
// operation: rather than hand-rolling a BPF compiler and a syscall
// name/number table that has to be kept in sync with the kernel by hand,
// rule compilation and installation are delegated entirely to
// github.com/seccomp/libseccomp-golang, a binding over the same
// libseccomp the reference ecosystem (runc, Docker, podman) uses.
package linux

import (
	"fmt"

	seccomp "github.com/seccomp/libseccomp-golang"

	"runc-go/spec"
)

var actionMap = map[spec.LinuxSeccompAction]seccomp.ScmpAction{
	spec.ActKill:        seccomp.ActKill,
	spec.ActKillProcess: seccomp.ActKillProcess,
	spec.ActKillThread:  seccomp.ActKillThread,
	spec.ActTrap:        seccomp.ActTrap,
	spec.ActErrno:       seccomp.ActErrno,
	spec.ActTrace:       seccomp.ActTrace,
	spec.ActAllow:       seccomp.ActAllow,
	spec.ActLog:         seccomp.ActLog,
	spec.ActNotify:      seccomp.ActNotify,
}

var archMap = map[spec.Arch]seccomp.ScmpArch{
	spec.ArchX86:     seccomp.ArchX86,
	spec.ArchX86_64:  seccomp.ArchAMD64,
	spec.ArchARM:     seccomp.ArchARM,
	spec.ArchAARCH64: seccomp.ArchARM64,
}

var compareOpMap = map[spec.LinuxSeccompOperator]seccomp.ScmpCompareOp{
	"SCMP_CMP_NE":        seccomp.CompareNotEqual,
	"SCMP_CMP_LT":        seccomp.CompareLess,
	"SCMP_CMP_LE":        seccomp.CompareLessOrEqual,
	"SCMP_CMP_EQ":        seccomp.CompareEqual,
	"SCMP_CMP_GE":        seccomp.CompareGreaterEqual,
	"SCMP_CMP_GT":        seccomp.CompareGreater,
	"SCMP_CMP_MASKED_EQ": seccomp.CompareMaskedEqual,
}

// SetupSeccomp compiles the OCI seccomp configuration into a libseccomp
// filter and loads it into the kernel for the calling thread/process.
func SetupSeccomp(config *spec.LinuxSeccomp) error {
	if config == nil {
		return nil
	}

	defaultAction, ok := actionMap[config.DefaultAction]
	if !ok {
		return fmt.Errorf("seccomp: unknown default action %q", config.DefaultAction)
	}

	filter, err := seccomp.NewFilter(defaultAction)
	if err != nil {
		return fmt.Errorf("seccomp: new filter: %w", err)
	}
	defer func() {
		if err != nil {
			filter.Release()
		}
	}()

	for _, a := range config.Architectures {
		arch, ok := archMap[spec.Arch(a)]
		if !ok {
			continue
		}
		if err = filter.AddArch(arch); err != nil {
			return fmt.Errorf("seccomp: add arch %s: %w", a, err)
		}
	}

	for _, rule := range config.Syscalls {
		action, ok := actionMap[rule.Action]
		if !ok {
			return fmt.Errorf("seccomp: unknown rule action %q", rule.Action)
		}
		if rule.ErrnoRet != nil {
			action = action.SetReturnCode(int16(*rule.ErrnoRet))
		}

		for _, name := range rule.Names {
			syscallID, sErr := seccomp.GetSyscallFromName(name)
			if sErr != nil {
				// Syscall unknown to this kernel/arch; skip it rather than
				// failing the whole filter, matching how runtimes handle
				// syscall lists shared across kernel versions.
				continue
			}

			if len(rule.Args) == 0 {
				if err = filter.AddRule(syscallID, action); err != nil {
					return fmt.Errorf("seccomp: add rule %s: %w", name, err)
				}
				continue
			}

			conds := make([]seccomp.ScmpCondition, 0, len(rule.Args))
			for _, arg := range rule.Args {
				op, ok := compareOpMap[arg.Op]
				if !ok {
					continue
				}
				conds = append(conds, seccomp.ScmpCondition{
					Argument: uint(arg.Index),
					Op:       op,
					Operand1: arg.Value,
					Operand2: arg.ValueTwo,
				})
			}
			if err = filter.AddRuleConditional(syscallID, action, conds); err != nil {
				return fmt.Errorf("seccomp: add conditional rule %s: %w", name, err)
			}
		}
	}

	if err = filter.SetNoNewPrivsBit(false); err != nil {
		// The caller sets PR_SET_NO_NEW_PRIVS itself, ahead of filter install,
		// when process.noNewPrivileges is set; libseccomp refusing to set its
		// own bit here is not fatal.
		err = nil
	}

	if err = filter.Load(); err != nil {
		return fmt.Errorf("seccomp: load filter: %w", err)
	}
	return nil
}
