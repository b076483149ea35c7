//go:build linux || freebsd

package udplite

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"
)

// -------------------------------------------------------------------------
// Conn — UDP-Lite datagram socket
// -------------------------------------------------------------------------

// ErrUnexpectedConnType indicates net.FilePacketConn returned an unexpected
// connection type instead of *net.UDPConn.
var ErrUnexpectedConnType = errors.New("unexpected connection type from FilePacketConn")

// Conn is a UDP-Lite datagram socket.
//
// The embedded *net.UDPConn is created from the UDP-Lite descriptor, so
// every generic datagram operation (deadlines, TTL, broadcast, LocalAddr,
// the ReadMsg/WriteMsg family, ...) is promoted unchanged from the
// standard library. Conn itself only adds construction, Connect, the
// checksum coverage options, descriptor lifecycle helpers, and the
// non-blocking I/O mode.
//
// A Conn owns exactly one file descriptor. It is closed by Close (promoted)
// and never duplicated implicitly; TryClone duplicates it explicitly.
type Conn struct {
	*net.UDPConn

	// rc is cached from SyscallConn at construction. Every descriptor-level
	// operation (sockopts, fcntl, single-shot I/O) goes through it so the
	// runtime cannot close the descriptor mid-syscall.
	rc syscall.RawConn

	// nonblock selects the single-shot I/O path; see SetNonblocking.
	nonblock atomic.Bool
}

// newConn wraps an open *net.UDPConn, caching its RawConn.
func newConn(udp *net.UDPConn) (*Conn, error) {
	rc, err := udp.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("raw conn access: %w", err)
	}
	return &Conn{UDPConn: udp, rc: rc}, nil
}

// newConnFromFD transfers ownership of a descriptor into a runtime-managed
// *net.UDPConn. FilePacketConn duplicates the descriptor into the network
// poller (the duplicate has close-on-exec set), so the original is closed
// here and the Conn ends up owning exactly one descriptor.
func newConnFromFD(fd int) (*Conn, error) {
	f := os.NewFile(uintptr(fd), "udplite")
	defer f.Close()

	pc, err := net.FilePacketConn(f)
	if err != nil {
		return nil, fmt.Errorf("register UDP-Lite socket with runtime poller: %w", err)
	}

	udp, ok := pc.(*net.UDPConn)
	if !ok {
		closeErr := pc.Close()
		return nil, errors.Join(
			fmt.Errorf("wrap UDP-Lite socket: %w", ErrUnexpectedConnType),
			closeErr,
		)
	}

	return newConn(udp)
}

// -------------------------------------------------------------------------
// Adoption — interop constructors
// -------------------------------------------------------------------------

// FromUDPConn adopts an existing connection as a UDP-Lite socket.
//
// The caller attests that udp actually refers to a UDP-Lite endpoint, for
// example one obtained from a previous Conn's File(). This is not verified:
// on a plain UDP socket the coverage option calls fail with OS-level errors
// (ENOPROTOOPT on Linux), and their results are otherwise undefined.
func FromUDPConn(udp *net.UDPConn) (*Conn, error) {
	return newConn(udp)
}

// FromRawDescriptor takes ownership of a caller-supplied descriptor.
//
// The descriptor is duplicated into the runtime network poller and the
// passed-in number is closed, so after a successful return the caller must
// not use fd again. As with FromUDPConn, nothing checks that fd refers to
// a UDP-Lite socket; protocol option calls on anything else produce
// unspecified OS errors.
func FromRawDescriptor(fd int) (*Conn, error) {
	return newConnFromFD(fd)
}

// -------------------------------------------------------------------------
// Descriptor export and introspection
// -------------------------------------------------------------------------

// RawDescriptor returns the socket's file descriptor number.
//
// The descriptor remains owned by the Conn; it must not be closed, and the
// number is only guaranteed to stay valid while the Conn is open. For safe
// descriptor-level access use the promoted SyscallConn, and for an
// ownership-transferring export use the promoted File.
func (c *Conn) RawDescriptor() (int, error) {
	fd := -1
	if err := c.rc.Control(func(f uintptr) { fd = int(f) }); err != nil {
		return -1, fmt.Errorf("raw conn control: %w", err)
	}
	return fd, nil
}

// String formats the socket like the generic UDP connection: the bound
// local address when it is queryable, and the raw descriptor number. Only
// the type name distinguishes it from a plain UDP socket's representation.
func (c *Conn) String() string {
	fd := -1
	_ = c.rc.Control(func(f uintptr) { fd = int(f) })

	if laddr := c.LocalAddr(); laddr != nil {
		return fmt.Sprintf("udplite.Conn{laddr: %s, fd: %d}", laddr, fd)
	}
	return fmt.Sprintf("udplite.Conn{fd: %d}", fd)
}

// Connect restricts the socket to one remote address: sends without an
// explicit destination go there, and datagrams from other sources are
// discarded by the kernel. The promoted Read/Write pair then works, and
// asynchronous errors such as ECONNREFUSED are reported on later calls.
func (c *Conn) Connect(remote netip.AddrPort) error {
	var opErr error
	if err := c.rc.Control(func(fd uintptr) {
		opErr = unix.Connect(int(fd), sockaddrFromAddrPort(remote))
	}); err != nil {
		return fmt.Errorf("raw conn control: %w", err)
	}
	if opErr != nil {
		return fmt.Errorf("connect to %s: %w", remote, opErr)
	}
	return nil
}

// -------------------------------------------------------------------------
// Non-blocking mode
// -------------------------------------------------------------------------

// SetNonblocking switches the Conn between waiting for readiness (the
// default) and failing immediately with EAGAIN when an operation would
// block.
//
// Descriptors managed by the Go runtime are always in O_NONBLOCK mode at
// the OS level; blocking behavior is provided by the network poller. This
// mode therefore applies per Conn, not per descriptor: when enabled, the
// byte-moving methods (Read, Write, ReadFrom, WriteTo and their UDP and
// AddrPort variants) perform a single syscall and surface the would-block
// error instead of parking in the poller. Check for it with
// errors.Is(err, unix.EAGAIN).
//
// The ReadMsg/WriteMsg family is promoted unchanged and always waits.
// Bind and the option calls never block either way.
func (c *Conn) SetNonblocking(nonblock bool) {
	c.nonblock.Store(nonblock)
}

// Nonblocking reports whether the Conn is in non-blocking mode.
func (c *Conn) Nonblocking() bool {
	return c.nonblock.Load()
}
