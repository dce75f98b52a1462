package ipc

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// maxMessageSize bounds a single SOCK_SEQPACKET datagram; the JSON-encoded
// Message values this channel carries are always a few dozen bytes.
const maxMessageSize = 4096

// Channel is one end of the Caller<->Init synchronization socketpair.
type Channel struct {
	file *os.File
	fd   int
}

// NewChannelPair creates a connected pair of channel endpoints, backed by
// socketpair(AF_UNIX, SOCK_SEQPACKET). The first return value is kept by
// the Caller; the second is handed to the Intermediate via ExtraFiles and
// threaded through to Init on the second re-exec.
func NewChannelPair() (callerEnd, childEnd *Channel, err error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("socketpair: %w", err)
	}
	unix.CloseOnExec(fds[0])
	// fds[1] is intentionally left without CLOEXEC: it must survive the
	// Intermediate's and Init's execve calls via ExtraFiles.
	return newChannel(fds[0]), newChannel(fds[1]), nil
}

func newChannel(fd int) *Channel {
	return &Channel{
		file: os.NewFile(uintptr(fd), "ipc-channel"),
		fd:   fd,
	}
}

// ChannelFromFd wraps an inherited file descriptor (e.g. fd 3, the first
// entry of ExtraFiles) as a Channel. Used by the Intermediate and Init
// entrypoints to recover the channel passed down by the parent.
func ChannelFromFd(fd int) *Channel {
	return newChannel(fd)
}

// Fd returns the raw file descriptor, for building ExtraFiles in the next
// re-exec hop.
func (c *Channel) Fd() uintptr {
	return c.file.Fd()
}

// File returns the *os.File view of the channel, for cmd.ExtraFiles.
func (c *Channel) File() *os.File {
	return c.file
}

// Send writes one message. Each call is exactly one SOCK_SEQPACKET datagram.
func (c *Channel) Send(m Message) error {
	data, err := encode(m)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if _, err := c.file.Write(data); err != nil {
		return fmt.Errorf("send %s: %w", m.Kind, err)
	}
	return nil
}

// SendError sends a KindError message describing a setup failure.
func (c *Channel) SendError(kind, detail string) error {
	return c.Send(Message{Kind: KindError, ErrKind: kind, Detail: detail})
}

// Recv blocks for the next message. If the peer has closed its end, Recv
// returns io.EOF wrapped in the returned error.
func (c *Channel) Recv() (Message, error) {
	buf := make([]byte, maxMessageSize)
	n, err := c.file.Read(buf)
	if err != nil {
		return Message{}, fmt.Errorf("recv: %w", err)
	}
	return decode(buf[:n])
}

// RecvExpect blocks for the next message and requires it to be of the given
// kind; a KindError message is turned into a *SetupError regardless of what
// kind was expected, so callers don't need to special-case it at every
// wait point.
func (c *Channel) RecvExpect(want Kind) (Message, error) {
	m, err := c.Recv()
	if err != nil {
		return m, err
	}
	if m.Kind == KindError {
		return m, &SetupError{ErrKind: m.ErrKind, Detail: m.Detail}
	}
	if m.Kind != want {
		return m, fmt.Errorf("unexpected message: got %s, want %s", m.Kind, want)
	}
	return m, nil
}

// Close closes this end of the channel.
func (c *Channel) Close() error {
	return c.file.Close()
}
