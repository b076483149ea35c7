//go:build linux || freebsd

package udplite

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// -------------------------------------------------------------------------
// Descriptor lifecycle — duplication and close-on-exec
// -------------------------------------------------------------------------

// TryClone duplicates the socket. Both descriptors refer to the same
// kernel socket (shared bound address, peer, options and buffers) but are
// closed independently.
//
// The duplication uses fcntl(F_DUPFD_CLOEXEC), so the clone always has
// close-on-exec set, even when it was explicitly disabled on the original.
// That is a property of the duplication primitive, not a choice made here.
// The clone inherits the original's non-blocking mode.
func (c *Conn) TryClone() (*Conn, error) {
	var (
		dup   int
		opErr error
	)
	err := c.rc.Control(func(fd uintptr) {
		dup, opErr = unix.FcntlInt(fd, unix.F_DUPFD_CLOEXEC, 0)
	})
	if err != nil {
		return nil, fmt.Errorf("raw conn control: %w", err)
	}
	if opErr != nil {
		return nil, fmt.Errorf("duplicate descriptor: %w", opErr)
	}

	clone, err := newConnFromFD(dup)
	if err != nil {
		return nil, err
	}
	clone.nonblock.Store(c.nonblock.Load())
	return clone, nil
}

// SetCloexec enables or disables close-on-exec for the descriptor.
//
// Close-on-exec makes the OS close the descriptor when the process
// replaces itself with another executable. It is set on every socket this
// package creates; disable it only to pass the socket to a child process
// across exec. Setting the current value again is a no-op.
func (c *Conn) SetCloexec(enabled bool) error {
	var opErr error
	err := c.rc.Control(func(fd uintptr) {
		flags, ferr := unix.FcntlInt(fd, unix.F_GETFD, 0)
		if ferr != nil {
			opErr = ferr
			return
		}
		if enabled {
			flags |= unix.FD_CLOEXEC
		} else {
			flags &^= unix.FD_CLOEXEC
		}
		_, opErr = unix.FcntlInt(fd, unix.F_SETFD, flags)
	})
	if err != nil {
		return fmt.Errorf("raw conn control: %w", err)
	}
	if opErr != nil {
		return fmt.Errorf("set close-on-exec: %w", opErr)
	}
	return nil
}

// Cloexec reports whether close-on-exec is set for the descriptor.
//
// On a Conn holding an invalid descriptor (a bad FromRawDescriptor) the
// answer cannot be trusted: the number may since have been reused for an
// unrelated resource. A descriptor that is closed now stays closed across
// exec, so callers wanting a safe default should treat a failure here as
// "assume enabled".
func (c *Conn) Cloexec() (bool, error) {
	var (
		flags int
		opErr error
	)
	err := c.rc.Control(func(fd uintptr) {
		flags, opErr = unix.FcntlInt(fd, unix.F_GETFD, 0)
	})
	if err != nil {
		return false, fmt.Errorf("raw conn control: %w", err)
	}
	if opErr != nil {
		return false, fmt.Errorf("get descriptor flags: %w", opErr)
	}
	return flags&unix.FD_CLOEXEC != 0, nil
}
