//go:build linux || freebsd

package udplite

import (
	"net"
	"net/netip"
	"strconv"

	"golang.org/x/sys/unix"
)

// -------------------------------------------------------------------------
// Socket address encoding
// -------------------------------------------------------------------------

// sockaddrFromAddrPort converts an address into the family-tagged binary
// sockaddr structure used by bind(2) and sendto(2). x/sys/unix lays out the
// raw struct (family tag, port in network byte order, address bytes, and
// for IPv6 the scope id); this function only selects the family and fills
// the fields. Encoding a valid AddrPort cannot fail.
//
// netip carries no IPv6 flow label, so sin6_flowinfo is always zero. The
// kernel ignores it when binding.
func sockaddrFromAddrPort(ap netip.AddrPort) unix.Sockaddr {
	addr := ap.Addr()
	if addr.Is4() || addr.Is4In6() {
		return &unix.SockaddrInet4{
			Port: int(ap.Port()),
			Addr: addr.Unmap().As4(),
		}
	}
	return &unix.SockaddrInet6{
		Port:   int(ap.Port()),
		ZoneId: zoneID(addr.Zone()),
		Addr:   addr.As16(),
	}
}

// zoneID resolves an IPv6 zone to a scope id: interface names are looked
// up, numeric zones are used as-is, and anything unresolvable maps to the
// unscoped zero like the net package does.
func zoneID(zone string) uint32 {
	if zone == "" {
		return 0
	}
	if ifi, err := net.InterfaceByName(zone); err == nil {
		//nolint:gosec // G115: interface indexes are small positive integers.
		return uint32(ifi.Index)
	}
	if n, err := strconv.Atoi(zone); err == nil && n >= 0 {
		return uint32(n)
	}
	return 0
}

// zoneName is the inverse of zoneID for addresses received from the kernel:
// prefer the interface name, fall back to the numeric form.
func zoneName(zoneID uint32) string {
	if zoneID == 0 {
		return ""
	}
	if ifi, err := net.InterfaceByIndex(int(zoneID)); err == nil {
		return ifi.Name
	}
	return strconv.FormatUint(uint64(zoneID), 10)
}

// addrPortFromSockaddr converts a kernel-returned source address. A nil or
// unknown sockaddr (possible on a connected socket) yields the zero
// AddrPort.
func addrPortFromSockaddr(sa unix.Sockaddr) netip.AddrPort {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		//nolint:gosec // G115: sockaddr ports are 16-bit by construction.
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port))
	case *unix.SockaddrInet6:
		addr := netip.AddrFrom16(sa.Addr).Unmap()
		if zone := zoneName(sa.ZoneId); zone != "" {
			addr = addr.WithZone(zone)
		}
		//nolint:gosec // G115: sockaddr ports are 16-bit by construction.
		return netip.AddrPortFrom(addr, uint16(sa.Port))
	default:
		return netip.AddrPort{}
	}
}

// udpAddrFromSockaddr is addrPortFromSockaddr for the *net.UDPAddr surface.
func udpAddrFromSockaddr(sa unix.Sockaddr) *net.UDPAddr {
	ap := addrPortFromSockaddr(sa)
	if !ap.IsValid() {
		return nil
	}
	return net.UDPAddrFromAddrPort(ap)
}
