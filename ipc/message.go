// Package ipc implements the strictly-typed synchronization channel used by
// the container construction pipeline to pass milestones between the
// Caller, Intermediate, and Init roles.
//
// The channel is a single pair of AF_UNIX SOCK_SEQPACKET sockets created
// once by the Caller. SOCK_SEQPACKET preserves message boundaries, so each
// Send corresponds to exactly one Recv: there is no need for length-prefix
// framing the way a SOCK_STREAM pipe would require. The non-Caller end's
// file descriptor is threaded through both re-exec hops via ExtraFiles: the
// Intermediate does not create a second pair when it re-execs into Init, it
// passes its own copy of the same fd through untouched. This is what lets
// Init talk directly to the Caller for milestones raised after the
// Intermediate has already exited.
package ipc

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the type of a message sent over the channel.
type Kind string

// Message kinds exchanged over the channel, matching the pipeline's
// synchronization milestones.
const (
	// KindChildReady is sent by the Intermediate twice: once with no Pid
	// right after its own re-exec, to signal it is alive and ready to have
	// its uid/gid maps written, and once with Pid set to Init's
	// host-namespace-visible PID after the Intermediate has forked Init.
	KindChildReady Kind = "child_ready"
	// KindMappingWritten is sent by the Caller after it has written
	// /proc/<pid>/uid_map and gid_map for the Intermediate.
	KindMappingWritten Kind = "mapping_written"
	// KindCgroupJoined is sent by the Caller once Init's PID has been
	// placed into the resolved cgroup, gating rootfs construction.
	KindCgroupJoined Kind = "cgroup_joined"
	// KindSetupComplete is sent by Init once all privileged setup before
	// exec has finished and it is about to block on the start FIFO.
	KindSetupComplete Kind = "setup_complete"
	// KindError carries a setup failure from either side.
	KindError Kind = "error"
)

// Message is the wire format for every value sent over the channel.
type Message struct {
	Kind Kind `json:"kind"`
	// Pid carries the Intermediate->Caller PID relay on the second
	// KindChildReady message; zero on the first.
	Pid int `json:"pid,omitempty"`
	// ErrKind and Detail carry a setup failure for KindError messages.
	ErrKind string `json:"err_kind,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// SetupError is the error type reconstructed from a received KindError message.
type SetupError struct {
	ErrKind string
	Detail  string
}

func (e *SetupError) Error() string {
	if e.ErrKind != "" {
		return fmt.Sprintf("%s: %s", e.ErrKind, e.Detail)
	}
	return e.Detail
}

func encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

func decode(data []byte) (Message, error) {
	var m Message
	err := json.Unmarshal(data, &m)
	return m, err
}
