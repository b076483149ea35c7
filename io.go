//go:build linux || freebsd

package udplite

import (
	"net"
	"net/netip"
	"os"

	"golang.org/x/sys/unix"
)

// -------------------------------------------------------------------------
// Data path — pass-through with a non-blocking variant
// -------------------------------------------------------------------------
//
// In blocking mode (the default) every method below delegates straight to
// the embedded *net.UDPConn. In non-blocking mode a single syscall runs
// through the RawConn and EAGAIN is surfaced instead of parking in the
// poller; RawConn.Read/Write invoke the callback before waiting, so
// returning true unconditionally makes the call single-shot.

// readNow performs one receive attempt without waiting for readiness.
func (c *Conn) readNow(b []byte) (int, unix.Sockaddr, error) {
	var (
		n     int
		from  unix.Sockaddr
		opErr error
	)
	err := c.rc.Read(func(fd uintptr) bool {
		n, from, opErr = unix.Recvfrom(int(fd), b, 0)
		return true
	})
	if err != nil {
		return 0, nil, err
	}
	if opErr != nil {
		return 0, nil, &net.OpError{
			Op: "read", Net: "udplite", Addr: c.LocalAddr(),
			Err: os.NewSyscallError("recvfrom", opErr),
		}
	}
	return n, from, nil
}

// writeNow performs one send attempt without waiting for readiness. A nil
// destination sends on the connected socket.
func (c *Conn) writeNow(b []byte, to unix.Sockaddr) (int, error) {
	var (
		n     int
		opErr error
	)
	err := c.rc.Write(func(fd uintptr) bool {
		if to == nil {
			n, opErr = unix.Write(int(fd), b)
		} else {
			opErr = unix.Sendto(int(fd), b, 0, to)
			n = len(b)
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	if opErr != nil {
		return 0, &net.OpError{
			Op: "write", Net: "udplite", Addr: c.LocalAddr(),
			Err: os.NewSyscallError("sendto", opErr),
		}
	}
	return n, nil
}

// Read reads from the connected socket. See SetNonblocking.
func (c *Conn) Read(b []byte) (int, error) {
	if !c.nonblock.Load() {
		return c.UDPConn.Read(b)
	}
	n, _, err := c.readNow(b)
	return n, err
}

// ReadFrom implements net.PacketConn. See SetNonblocking.
func (c *Conn) ReadFrom(b []byte) (int, net.Addr, error) {
	if !c.nonblock.Load() {
		return c.UDPConn.ReadFrom(b)
	}
	n, from, err := c.readNow(b)
	if err != nil {
		return n, nil, err
	}
	return n, udpAddrFromSockaddr(from), nil
}

// ReadFromUDP is ReadFrom with a concrete address type.
func (c *Conn) ReadFromUDP(b []byte) (int, *net.UDPAddr, error) {
	if !c.nonblock.Load() {
		return c.UDPConn.ReadFromUDP(b)
	}
	n, from, err := c.readNow(b)
	if err != nil {
		return n, nil, err
	}
	return n, udpAddrFromSockaddr(from), nil
}

// ReadFromUDPAddrPort is ReadFrom without allocating the address.
func (c *Conn) ReadFromUDPAddrPort(b []byte) (int, netip.AddrPort, error) {
	if !c.nonblock.Load() {
		return c.UDPConn.ReadFromUDPAddrPort(b)
	}
	n, from, err := c.readNow(b)
	if err != nil {
		return n, netip.AddrPort{}, err
	}
	return n, addrPortFromSockaddr(from), nil
}

// Write sends on the connected socket. See SetNonblocking.
func (c *Conn) Write(b []byte) (int, error) {
	if !c.nonblock.Load() {
		return c.UDPConn.Write(b)
	}
	return c.writeNow(b, nil)
}

// WriteTo implements net.PacketConn. See SetNonblocking.
func (c *Conn) WriteTo(b []byte, addr net.Addr) (int, error) {
	if !c.nonblock.Load() {
		return c.UDPConn.WriteTo(b, addr)
	}
	ua, ok := addr.(*net.UDPAddr)
	if !ok {
		return 0, &net.OpError{
			Op: "write", Net: "udplite", Addr: addr,
			Err: net.InvalidAddrError("not a *net.UDPAddr"),
		}
	}
	return c.writeNow(b, sockaddrFromAddrPort(ua.AddrPort()))
}

// WriteToUDP is WriteTo with a concrete address type.
func (c *Conn) WriteToUDP(b []byte, addr *net.UDPAddr) (int, error) {
	if !c.nonblock.Load() {
		return c.UDPConn.WriteToUDP(b, addr)
	}
	return c.writeNow(b, sockaddrFromAddrPort(addr.AddrPort()))
}

// WriteToUDPAddrPort is WriteTo without the address allocation.
func (c *Conn) WriteToUDPAddrPort(b []byte, ap netip.AddrPort) (int, error) {
	if !c.nonblock.Load() {
		return c.UDPConn.WriteToUDPAddrPort(b, ap)
	}
	return c.writeNow(b, sockaddrFromAddrPort(ap))
}
