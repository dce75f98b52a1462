// Package container implements the three-role construction pipeline that
// replaces a single re-exec with two: Caller (the `create` invocation
// itself) clones Intermediate, which re-execs into the early-hop
// namespaces (mount/uts/ipc/net/user/time) and then clones Init, which
// re-execs into the late-hop namespaces (pid/cgroup) and finishes
// privileged setup before blocking on the start FIFO.
//
// All three roles share one ipc.Channel. The Caller creates it and keeps
// one end; the other end is handed to Intermediate via ExtraFiles and
// forwarded untouched to Init on the second re-exec, so Init can report
// back to the Caller directly after Intermediate has already exited.
package container

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"

	"runc-go/cgroups"
	cerrors "runc-go/errors"
	"runc-go/hooks"
	"runc-go/ipc"
	"runc-go/linux"
	"runc-go/logging"
	"runc-go/netsetup"
	"runc-go/spec"
	"runc-go/utils"
)

const (
	roleIntermediate = "init-intermediate"
	roleInit         = "init"

	envBundle   = "_RUNC_GO_BUNDLE"
	envFifo     = "_RUNC_GO_FIFO"
	envID       = "_RUNC_GO_ID"
	envStateDir = "_RUNC_GO_STATE_DIR"

	// channelFd is where the shared ipc.Channel lands in both the
	// Intermediate's and Init's file descriptor tables: ExtraFiles[0] is
	// always fd 3, the first descriptor after stdin/stdout/stderr.
	channelFd = 3
)

// pipelineResult carries what the Caller learns from a completed
// construction pipeline back to Create.
type pipelineResult struct {
	pid         int
	cgroupKind  spec.CgroupBackend
	cgroupPath  string
	intermediate *os.Process
}

// runPipeline is the Caller role: it drives Intermediate and Init through
// the construction milestones and returns once Init has signaled
// KindSetupComplete and is blocked on the exec FIFO.
func (c *Container) runPipeline(ctx context.Context, opts *CreateOptions) (*pipelineResult, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.ErrInternal, "resolve self executable")
	}

	callerEnd, childEnd, err := ipc.NewChannelPair()
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.ErrResource, "create ipc channel")
	}
	defer callerEnd.Close()

	// Mark ourselves subreaper so Init, once Intermediate exits, is
	// reparented to us rather than to host PID 1.
	if err := unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 1, 0, 0, 0); err != nil {
		logging.WarnContext(ctx, "set child subreaper failed", "error", err)
	}

	cmd := exec.Command(self, roleIntermediate)
	cmd.Dir = c.Bundle
	cmd.SysProcAttr = linux.IntermediateSysProcAttr(c.Spec)
	cmd.ExtraFiles = []*os.File{childEnd.File()}
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("%s=%s", envBundle, c.Bundle),
		fmt.Sprintf("%s=%s", envFifo, c.ExecFifoPath()),
		fmt.Sprintf("%s=%s", envID, c.ID),
		fmt.Sprintf("%s=%s", envStateDir, c.StateDir),
	)

	console, consoleSlave, err := attachStdio(cmd, c.Spec, opts)
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		if console != nil {
			console.Close()
		}
		return nil, cerrors.Wrap(err, cerrors.ErrResource, "start intermediate")
	}
	// The Caller's copy of childEnd was only needed to survive until
	// Start(); Intermediate (and later Init) hold the real reference now.
	childEnd.Close()

	if console != nil {
		if err := utils.SendConsoleToSocket(opts.ConsoleSocket, console.Master()); err != nil {
			cmd.Process.Kill()
			console.Close()
			if consoleSlave != nil {
				consoleSlave.Close()
			}
			return nil, cerrors.Wrap(err, cerrors.ErrResource, "send console to socket")
		}
		console.Close()
		if consoleSlave != nil {
			consoleSlave.Close()
		}
	}

	result, err := c.drivePipeline(ctx, callerEnd, cmd, opts)
	if err != nil {
		cmd.Process.Kill()
		return nil, err
	}
	result.intermediate = cmd.Process
	return result, nil
}

// drivePipeline runs the Caller's half of the milestone handshake once
// Intermediate has been started.
func (c *Container) drivePipeline(ctx context.Context, ch *ipc.Channel, cmd *exec.Cmd, opts *CreateOptions) (*pipelineResult, error) {
	if _, err := ch.RecvExpect(ipc.KindChildReady); err != nil {
		return nil, cerrors.Wrap(err, cerrors.ErrInternal, "wait intermediate ready")
	}

	if c.Spec.Linux != nil && linux.HasNamespace(c.Spec.Linux.Namespaces, spec.UserNamespace) {
		// IntermediateSysProcAttr already set the simple one-shot mapping
		// via UidMappings/GidMappings; this second pass covers mappings
		// too complex for the clone3-time form (e.g. multiple ranges).
		if len(c.Spec.Linux.UIDMappings) > 1 || len(c.Spec.Linux.GIDMappings) > 1 {
			if err := linux.WriteIDMappings(cmd.Process.Pid, c.Spec.Linux.UIDMappings, c.Spec.Linux.GIDMappings); err != nil {
				ch.SendError("namespace", err.Error())
				return nil, cerrors.Wrap(err, cerrors.ErrNamespace, "write id mappings")
			}
		}
	}
	if err := ch.Send(ipc.Message{Kind: ipc.KindMappingWritten}); err != nil {
		return nil, cerrors.Wrap(err, cerrors.ErrInternal, "ack mapping written")
	}

	childReady, err := ch.RecvExpect(ipc.KindChildReady)
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.ErrInternal, "wait init ready")
	}
	initPid := childReady.Pid
	if initPid <= 0 {
		return nil, cerrors.WrapWithDetail(nil, cerrors.ErrInternal, "wait init ready", "init reported no pid")
	}

	backend, cgroupPath, err := c.joinCgroup(initPid, opts)
	if err != nil {
		ch.SendError("cgroup", err.Error())
		return nil, err
	}

	state := c.GetState()
	state.Pid = initPid
	if err := hooks.Run(c.Spec.Hooks, hooks.CreateRuntime, state); err != nil {
		ch.SendError("hook", err.Error())
		return nil, cerrors.Wrap(err, cerrors.ErrHook, "createRuntime hooks")
	}

	if err := ch.Send(ipc.Message{Kind: ipc.KindCgroupJoined}); err != nil {
		return nil, cerrors.Wrap(err, cerrors.ErrInternal, "signal cgroup joined")
	}

	if _, err := ch.RecvExpect(ipc.KindSetupComplete); err != nil {
		return nil, cerrors.Wrap(err, cerrors.ErrInternal, "wait setup complete")
	}

	return &pipelineResult{pid: initPid, cgroupKind: backend, cgroupPath: cgroupPath}, nil
}

// joinCgroup resolves the cgroup backend for this container, creates the
// cgroup, places initPid into it, and applies configured resource limits.
func (c *Container) joinCgroup(initPid int, opts *CreateOptions) (spec.CgroupBackend, string, error) {
	cgroupsPath := ""
	if c.Spec.Linux != nil {
		cgroupsPath = c.Spec.Linux.CgroupsPath
	}

	backend := cgroups.Resolve(cgroups.ResolveOptions{
		SystemdCgroup: opts.SystemdCgroup,
		CgroupsPath:   cgroupsPath,
	})

	rootless := c.Spec.Linux != nil && linux.HasNamespace(c.Spec.Linux.Namespaces, spec.UserNamespace)
	manager, err := cgroups.New(backend, c.ID, cgroupsPath, rootless)
	if err != nil {
		return "", "", cerrors.Wrap(err, cerrors.ErrCgroup, "resolve cgroup manager")
	}

	if err := manager.Apply(initPid); err != nil {
		return "", "", cerrors.Wrap(err, cerrors.ErrCgroup, "join cgroup")
	}

	if c.Spec.Linux != nil && c.Spec.Linux.Resources != nil {
		if err := manager.Set(c.Spec.Linux.Resources); err != nil {
			return "", "", cerrors.Wrap(err, cerrors.ErrCgroup, "apply cgroup resources")
		}
	}

	return backend, manager.Path(), nil
}

// attachStdio wires the Intermediate's stdio the same way the container
// process itself will eventually see it: a PTY slave when a console
// socket was requested, the Caller's own terminal when Terminal is set
// without a socket, or plain inherited stdout/stderr otherwise.
func attachStdio(cmd *exec.Cmd, s *spec.Spec, opts *CreateOptions) (*utils.Console, *os.File, error) {
	if s.Process != nil && s.Process.Terminal && opts.ConsoleSocket != "" {
		console, err := utils.NewConsole()
		if err != nil {
			return nil, nil, cerrors.Wrap(err, cerrors.ErrResource, "create console")
		}
		slave, err := console.OpenSlave()
		if err != nil {
			console.Close()
			return nil, nil, cerrors.Wrap(err, cerrors.ErrResource, "open console slave")
		}
		cmd.Stdin = slave
		cmd.Stdout = slave
		cmd.Stderr = slave
		return console, slave, nil
	}
	if s.Process != nil && s.Process.Terminal {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return nil, nil, nil
	}
	cmd.Stdin = nil
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return nil, nil, nil
}

// RunIntermediate is the Intermediate role's entrypoint, invoked as the
// hidden "init-intermediate" subcommand inside the early-hop namespaces.
func RunIntermediate() error {
	ch := ipc.ChannelFromFd(channelFd)

	bundle := os.Getenv(envBundle)
	s, err := spec.LoadSpec(filepath.Join(bundle, "config.json"))
	if err != nil {
		ch.SendError("config", err.Error())
		return fmt.Errorf("load spec: %w", err)
	}

	if s.Hostname != "" {
		if err := linux.SetHostname(s.Hostname); err != nil {
			ch.SendError("namespace", err.Error())
			return fmt.Errorf("set hostname: %w", err)
		}
	}
	if s.Domainname != "" {
		if err := linux.SetDomainname(s.Domainname); err != nil {
			ch.SendError("namespace", err.Error())
			return fmt.Errorf("set domainname: %w", err)
		}
	}

	// A fresh network namespace comes up with "lo" present but down, and
	// nothing outside the namespace can bring it up after this point.
	if err := netsetup.BringUpLoopback(os.Getpid()); err != nil {
		logging.Warn("bring up loopback failed", "error", err)
	}

	if err := ch.Send(ipc.Message{Kind: ipc.KindChildReady}); err != nil {
		return fmt.Errorf("send child ready: %w", err)
	}
	if _, err := ch.RecvExpect(ipc.KindMappingWritten); err != nil {
		return fmt.Errorf("wait mapping written: %w", err)
	}

	self, err := os.Executable()
	if err != nil {
		ch.SendError("internal", err.Error())
		return fmt.Errorf("resolve self executable: %w", err)
	}

	cmd := exec.Command(self, roleInit)
	cmd.Dir = bundle
	cmd.SysProcAttr = linux.InitSysProcAttr(s)
	cmd.ExtraFiles = []*os.File{ch.File()}
	cmd.Env = os.Environ()
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		ch.SendError("exec", err.Error())
		return fmt.Errorf("start init: %w", err)
	}

	if err := ch.Send(ipc.Message{Kind: ipc.KindChildReady, Pid: cmd.Process.Pid}); err != nil {
		return fmt.Errorf("relay init pid: %w", err)
	}

	// Intermediate's job is done. Exiting here lets Init reparent to the
	// Caller, which is the process that marked itself subreaper.
	return nil
}

// RunInit is the Init role's entrypoint, invoked as the hidden "init"
// subcommand inside the late-hop namespaces. It builds the rootfs, applies
// the process's security configuration, and execs the user-specified
// process once `start` writes to the exec FIFO.
func RunInit() error {
	ch := ipc.ChannelFromFd(channelFd)

	bundle := os.Getenv(envBundle)
	fifoPath := os.Getenv(envFifo)
	if bundle == "" || fifoPath == "" {
		return fmt.Errorf("missing init environment")
	}

	s, err := spec.LoadSpec(filepath.Join(bundle, "config.json"))
	if err != nil {
		ch.SendError("config", err.Error())
		return fmt.Errorf("load spec: %w", err)
	}

	if s.Linux != nil {
		if err := linux.SetNamespaces(s.Linux.Namespaces); err != nil {
			ch.SendError("namespace", err.Error())
			return fmt.Errorf("set namespaces: %w", err)
		}
	}

	// Opened before the cgroup gate (and well before pivot_root), since
	// the path is only guaranteed reachable from the host mount
	// namespace's view of the state directory. Opened O_RDWR because a
	// read-only open of a FIFO waits for a writer, which would hold Init
	// here until `start` and keep SetupComplete from ever being sent; on
	// Linux a read-write open returns at once, and the read below still
	// blocks until `start` writes its byte.
	fifo, err := os.OpenFile(fifoPath, os.O_RDWR, 0)
	if err != nil {
		ch.SendError("resource", err.Error())
		return fmt.Errorf("open fifo: %w", err)
	}

	if _, err := ch.RecvExpect(ipc.KindCgroupJoined); err != nil {
		fifo.Close()
		return fmt.Errorf("wait cgroup joined: %w", err)
	}

	if err := linux.SetupRootfs(s, bundle); err != nil {
		ch.SendError("rootfs", err.Error())
		fifo.Close()
		return fmt.Errorf("setup rootfs: %w", err)
	}

	if s.Linux != nil && len(s.Linux.Devices) > 0 {
		if err := linux.CreateDevices(s.Linux.Devices); err != nil {
			fmt.Printf("[init] warning: create devices: %v\n", err)
		}
	}
	linux.SetupDefaultDevices()
	linux.SetupDevSymlinks()
	linux.SetupDevPts()

	state := &spec.State{Version: spec.Version, ID: os.Getenv(envID), Status: spec.StatusCreated, Bundle: bundle}
	if err := hooks.Run(s.Hooks, hooks.CreateContainer, state); err != nil {
		ch.SendError("hook", err.Error())
		fifo.Close()
		return fmt.Errorf("createContainer hooks: %w", err)
	}

	if s.Process != nil && s.Process.Cwd != "" {
		if err := os.Chdir(s.Process.Cwd); err != nil {
			ch.SendError("rootfs", err.Error())
			fifo.Close()
			return fmt.Errorf("chdir %s: %w", s.Process.Cwd, err)
		}
	}

	if err := ch.Send(ipc.Message{Kind: ipc.KindSetupComplete}); err != nil {
		fifo.Close()
		return fmt.Errorf("signal setup complete: %w", err)
	}
	ch.Close()

	// Block until Start() writes to the FIFO. No further IPC is needed:
	// the start signal crosses a process boundary (create and start are
	// separate CLI invocations), so it has to ride a filesystem object
	// rather than the in-memory channel.
	buf := make([]byte, 1)
	_, err = fifo.Read(buf)
	fifo.Close()
	if err != nil {
		return fmt.Errorf("read fifo: %w", err)
	}

	if err := finishAndExec(s, state); err != nil {
		return err
	}
	return nil
}

// finishAndExec applies the process's security configuration and execs
// the user process in place of Init; no signal-forwarding process is kept.
func finishAndExec(s *spec.Spec, state *spec.State) error {
	var stat syscall.Stat_t
	if err := syscall.Fstat(0, &stat); err == nil && stat.Mode&syscall.S_IFCHR != 0 {
		os.Remove("/dev/console")
		if err := syscall.Mknod("/dev/console", syscall.S_IFCHR|0600, int(stat.Rdev)); err != nil {
			fmt.Printf("[init] warning: failed to create /dev/console: %v\n", err)
		}
	}

	if s.Process != nil && s.Process.Capabilities != nil {
		if err := linux.ApplyCapabilities(s.Process.Capabilities); err != nil {
			return fmt.Errorf("apply capabilities: %w", err)
		}
	}
	if s.Process != nil {
		for _, rl := range s.Process.Rlimits {
			if err := applyRlimit(rl); err != nil {
				return fmt.Errorf("apply rlimit %s: %w", rl.Type, err)
			}
		}
	}
	if s.Process != nil && s.Process.NoNewPrivileges {
		if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
			return fmt.Errorf("set no_new_privs: %w", err)
		}
	}
	if s.Linux != nil && s.Linux.Seccomp != nil {
		if err := linux.SetupSeccomp(s.Linux.Seccomp); err != nil {
			return fmt.Errorf("setup seccomp: %w", err)
		}
	}
	if s.Process != nil {
		if err := setUser(s.Process.User); err != nil {
			return fmt.Errorf("set user: %w", err)
		}
		for _, env := range s.Process.Env {
			parts := splitEnv(env)
			if len(parts) == 2 {
				os.Setenv(parts[0], parts[1])
			}
		}
	}

	if s.Process == nil || len(s.Process.Args) == 0 {
		return fmt.Errorf("no process args specified")
	}

	if s.Process.Terminal {
		syscall.Setsid()
		utils.SetControllingTerminal(os.Stdin)
		utils.SetupTerminalSignals(os.Stdin)
	}

	if err := hooks.Run(s.Hooks, hooks.StartContainer, state); err != nil {
		return fmt.Errorf("startContainer hooks: %w", err)
	}

	args := s.Process.Args
	path, err := exec.LookPath(args[0])
	if err != nil {
		return fmt.Errorf("lookup %s: %w", args[0], err)
	}

	// execProcess replaces this process image outright rather than forking
	// a child to wait on: the user process becomes pid 1 of the container's
	// pid namespace directly, matching what the state store already recorded
	// it as. It only returns on failure.
	return execProcess(path, args, os.Environ())
}

// rlimitNameToResource maps the OCI rlimit type strings to their unix
// resource constants.
var rlimitNameToResource = map[string]int{
	"RLIMIT_AS":         unix.RLIMIT_AS,
	"RLIMIT_CORE":       unix.RLIMIT_CORE,
	"RLIMIT_CPU":        unix.RLIMIT_CPU,
	"RLIMIT_DATA":       unix.RLIMIT_DATA,
	"RLIMIT_FSIZE":      unix.RLIMIT_FSIZE,
	"RLIMIT_LOCKS":      unix.RLIMIT_LOCKS,
	"RLIMIT_MEMLOCK":    unix.RLIMIT_MEMLOCK,
	"RLIMIT_MSGQUEUE":   unix.RLIMIT_MSGQUEUE,
	"RLIMIT_NICE":       unix.RLIMIT_NICE,
	"RLIMIT_NOFILE":     unix.RLIMIT_NOFILE,
	"RLIMIT_NPROC":      unix.RLIMIT_NPROC,
	"RLIMIT_RSS":        unix.RLIMIT_RSS,
	"RLIMIT_RTPRIO":     unix.RLIMIT_RTPRIO,
	"RLIMIT_RTTIME":     unix.RLIMIT_RTTIME,
	"RLIMIT_SIGPENDING": unix.RLIMIT_SIGPENDING,
	"RLIMIT_STACK":      unix.RLIMIT_STACK,
}

// applyRlimit sets a single POSIX resource limit on the current process.
func applyRlimit(rl spec.POSIXRlimit) error {
	resource, ok := rlimitNameToResource[rl.Type]
	if !ok {
		return fmt.Errorf("unknown rlimit type %s", rl.Type)
	}
	return unix.Setrlimit(resource, &unix.Rlimit{Cur: rl.Soft, Max: rl.Hard})
}

// splitEnv splits an environment variable string into key and value.
func splitEnv(env string) []string {
	for i := 0; i < len(env); i++ {
		if env[i] == '=' {
			return []string{env[:i], env[i+1:]}
		}
	}
	return []string{env}
}

// setUser sets the user ID and group ID inside the container namespace.
func setUser(user spec.User) error {
	if len(user.AdditionalGids) > 0 {
		gids := make([]int, len(user.AdditionalGids))
		for i, g := range user.AdditionalGids {
			gids[i] = int(g)
		}
		if err := setGroups(gids); err != nil {
			fmt.Printf("[init] warning: setgroups failed (expected in user namespaces): %v\n", err)
		}
	}

	if user.GID != 0 {
		if err := setGid(int(user.GID)); err != nil {
			return fmt.Errorf("setgid: %w", err)
		}
	}
	if user.UID != 0 {
		if err := setUid(int(user.UID)); err != nil {
			return fmt.Errorf("setuid: %w", err)
		}
	}
	if user.Umask != nil {
		setUmask(int(*user.Umask))
	}
	return nil
}
