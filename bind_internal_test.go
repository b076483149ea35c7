//go:build linux || freebsd

package udplite

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"golang.org/x/sys/unix"
)

// TestBindCandidatesEmpty verifies that an empty candidate list is a
// distinct input error, not a resolution or bind failure.
func TestBindCandidatesEmpty(t *testing.T) {
	t.Parallel()

	_, err := bindCandidates(nil, false)
	if !errors.Is(err, ErrNoAddresses) {
		t.Fatalf("bindCandidates(nil) error = %v, want ErrNoAddresses", err)
	}
}

// TestResolveBindAddrsLiteral verifies that literal IPs bypass the
// resolver and yield exactly one candidate.
func TestResolveBindAddrsLiteral(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address string
		want    netip.AddrPort
	}{
		{"127.0.0.1:80", netip.MustParseAddrPort("127.0.0.1:80")},
		{"[::1]:8080", netip.MustParseAddrPort("[::1]:8080")},
		{"0.0.0.0:0", netip.MustParseAddrPort("0.0.0.0:0")},
	}

	for _, tt := range tests {
		addrs, err := resolveBindAddrs(context.Background(), tt.address)
		if err != nil {
			t.Fatalf("resolveBindAddrs(%q): %v", tt.address, err)
		}
		if len(addrs) != 1 || addrs[0] != tt.want {
			t.Errorf("resolveBindAddrs(%q) = %v, want [%v]", tt.address, addrs, tt.want)
		}
	}
}

// TestResolveBindAddrsEmptyHost verifies that an empty host expands to the
// unspecified addresses of both families, IPv6 first.
func TestResolveBindAddrsEmptyHost(t *testing.T) {
	t.Parallel()

	addrs, err := resolveBindAddrs(context.Background(), ":4000")
	if err != nil {
		t.Fatalf("resolveBindAddrs(\":4000\"): %v", err)
	}
	want := []netip.AddrPort{
		netip.AddrPortFrom(netip.IPv6Unspecified(), 4000),
		netip.AddrPortFrom(netip.IPv4Unspecified(), 4000),
	}
	if len(addrs) != len(want) {
		t.Fatalf("resolveBindAddrs(\":4000\") = %v, want %v", addrs, want)
	}
	for i := range want {
		if addrs[i] != want[i] {
			t.Errorf("candidate %d = %v, want %v", i, addrs[i], want[i])
		}
	}
}

// TestResolveBindAddrsInvalid verifies that malformed specifications fail
// at resolution, before any socket is created.
func TestResolveBindAddrsInvalid(t *testing.T) {
	t.Parallel()

	for _, address := range []string{"", "no-port", "127.0.0.1:notaport"} {
		if _, err := resolveBindAddrs(context.Background(), address); err == nil {
			t.Errorf("resolveBindAddrs(%q) succeeded, want error", address)
		}
	}
}

// TestSockaddrFromAddrPort verifies family selection and field layout of
// the encoded bind address for both families, including a mapped IPv4
// address, which must encode as INET rather than INET6.
func TestSockaddrFromAddrPort(t *testing.T) {
	t.Parallel()

	v4, ok := sockaddrFromAddrPort(netip.MustParseAddrPort("127.0.0.1:3784")).(*unix.SockaddrInet4)
	if !ok {
		t.Fatal("IPv4 address did not encode to *unix.SockaddrInet4")
	}
	if v4.Port != 3784 || v4.Addr != [4]byte{127, 0, 0, 1} {
		t.Errorf("IPv4 encoding = port %d addr %v", v4.Port, v4.Addr)
	}

	mapped, ok := sockaddrFromAddrPort(netip.MustParseAddrPort("[::ffff:10.0.0.1]:53")).(*unix.SockaddrInet4)
	if !ok {
		t.Fatal("mapped IPv4 address did not encode to *unix.SockaddrInet4")
	}
	if mapped.Addr != [4]byte{10, 0, 0, 1} {
		t.Errorf("mapped IPv4 encoding = addr %v", mapped.Addr)
	}

	v6, ok := sockaddrFromAddrPort(netip.MustParseAddrPort("[::1]:443")).(*unix.SockaddrInet6)
	if !ok {
		t.Fatal("IPv6 address did not encode to *unix.SockaddrInet6")
	}
	wantV6 := [16]byte{15: 1}
	if v6.Port != 443 || v6.Addr != wantV6 {
		t.Errorf("IPv6 encoding = port %d addr %v", v6.Port, v6.Addr)
	}
	if v6.ZoneId != 0 {
		t.Errorf("unscoped IPv6 encoding has zone id %d", v6.ZoneId)
	}
}

// TestAddrPortFromSockaddr verifies the decode direction used for source
// addresses of received datagrams, including the nil case a connected
// socket can produce.
func TestAddrPortFromSockaddr(t *testing.T) {
	t.Parallel()

	ap := addrPortFromSockaddr(&unix.SockaddrInet4{Port: 9, Addr: [4]byte{192, 0, 2, 1}})
	if ap != netip.MustParseAddrPort("192.0.2.1:9") {
		t.Errorf("IPv4 decode = %v", ap)
	}

	ap = addrPortFromSockaddr(&unix.SockaddrInet6{Port: 10, Addr: [16]byte{15: 1}})
	if ap != netip.MustParseAddrPort("[::1]:10") {
		t.Errorf("IPv6 decode = %v", ap)
	}

	if ap = addrPortFromSockaddr(nil); ap.IsValid() {
		t.Errorf("nil sockaddr decoded to %v, want invalid", ap)
	}
}
