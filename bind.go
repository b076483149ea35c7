//go:build linux || freebsd

package udplite

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/sys/unix"
)

// -------------------------------------------------------------------------
// Construction — resolve, create, bind
// -------------------------------------------------------------------------

// ErrNoAddresses indicates the address resolved to an empty candidate list,
// leaving nothing to bind to.
var ErrNoAddresses = errors.New("no addresses to bind to")

// Bind creates a UDP-Lite socket bound to address ("host:port").
//
// The host may be a literal IP, a name resolved through the platform
// resolver (net.DefaultResolver), or empty for the unspecified address;
// the port may be numeric or a service name. When resolution yields
// several candidates they are tried in order and the first successful
// bind wins; if every candidate fails the last error is returned.
//
// The descriptor is created with close-on-exec atomically (SOCK_CLOEXEC),
// and the bind call is retried on EINTR.
func Bind(ctx context.Context, address string) (*Conn, error) {
	return bindResolved(ctx, address, false)
}

// BindNonblocking is Bind with the returned Conn in non-blocking mode, so
// a caller can tell "no datagram pending" apart from other failures.
// Binding a connectionless socket does not block, so this cannot make Bind
// itself fail with a would-block error. See SetNonblocking for what the
// mode affects.
func BindNonblocking(ctx context.Context, address string) (*Conn, error) {
	return bindResolved(ctx, address, true)
}

// BindAddrPort creates a UDP-Lite socket bound to a single already-resolved
// address.
func BindAddrPort(ap netip.AddrPort) (*Conn, error) {
	return bindCandidates([]netip.AddrPort{ap}, false)
}

// bindResolved resolves address and hands the candidates to bindCandidates.
// Resolution errors propagate as-is.
func bindResolved(ctx context.Context, address string, nonblock bool) (*Conn, error) {
	addrs, err := resolveBindAddrs(ctx, address)
	if err != nil {
		return nil, err
	}
	return bindCandidates(addrs, nonblock)
}

// resolveBindAddrs expands a "host:port" specification into bind candidates
// using the platform resolver. Literal IPs and the empty host bypass it.
func resolveBindAddrs(ctx context.Context, address string) ([]netip.AddrPort, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}

	port, err := net.DefaultResolver.LookupPort(ctx, "udp", portStr)
	if err != nil {
		return nil, err
	}
	//nolint:gosec // G115: LookupPort returns values in [0, 65535].
	p := uint16(port)

	// An empty host means the unspecified address; offer both families and
	// let the bind loop pick the first the system supports.
	if host == "" {
		return []netip.AddrPort{
			netip.AddrPortFrom(netip.IPv6Unspecified(), p),
			netip.AddrPortFrom(netip.IPv4Unspecified(), p),
		}, nil
	}

	if ip, parseErr := netip.ParseAddr(host); parseErr == nil {
		return []netip.AddrPort{netip.AddrPortFrom(ip, p)}, nil
	}

	ips, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, err
	}

	addrs := make([]netip.AddrPort, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, netip.AddrPortFrom(ip.Unmap(), p))
	}
	return addrs, nil
}

// bindCandidates attempts each candidate in order, returning the first
// socket that binds. The last failure is remembered and returned when no
// candidate succeeds; an empty candidate list is an input error.
func bindCandidates(addrs []netip.AddrPort, nonblock bool) (*Conn, error) {
	if len(addrs) == 0 {
		return nil, ErrNoAddresses
	}

	var lastErr error
	for _, ap := range addrs {
		conn, err := bindAddrPort(ap, nonblock)
		if err != nil {
			lastErr = err
			continue
		}
		return conn, nil
	}
	return nil, lastErr
}

// bindAddrPort creates a UDP-Lite descriptor of the candidate's address
// family and binds it.
//
// SOCK_CLOEXEC is requested atomically at creation: setting the flag in a
// second call would leave a window in which a concurrent fork+exec inherits
// the descriptor. Only EINTR causes the bind to be retried; any other
// error closes the descriptor and is terminal for this candidate.
func bindAddrPort(ap netip.AddrPort, nonblock bool) (*Conn, error) {
	family := unix.AF_INET
	if ap.Addr().Is6() && !ap.Addr().Is4In6() {
		family = unix.AF_INET6
	}

	typ := unix.SOCK_DGRAM | unix.SOCK_CLOEXEC
	if nonblock {
		typ |= unix.SOCK_NONBLOCK
	}

	fd, err := unix.Socket(family, typ, unix.IPPROTO_UDPLITE)
	if err != nil {
		return nil, fmt.Errorf("create UDP-Lite socket: %w", err)
	}

	sa := sockaddrFromAddrPort(ap)
	for {
		err = unix.Bind(fd, sa)
		if err == nil {
			break
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		closeErr := unix.Close(fd)
		return nil, errors.Join(fmt.Errorf("bind %s: %w", ap, err), closeErr)
	}

	conn, err := newConnFromFD(fd)
	if err != nil {
		return nil, err
	}
	conn.nonblock.Store(nonblock)
	return conn, nil
}
