//go:build linux || freebsd

package udplite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/tormol/udplite"
)

// exchangeTimeout bounds loopback send/receive tests so a lost datagram
// fails the test instead of hanging it.
const exchangeTimeout = 5 * time.Second

// skippable reports whether a bind failure means the environment cannot
// run UDP-Lite socket tests at all: a kernel built without the protocol,
// or a host without the requested address family.
func skippable(err error) bool {
	return errors.Is(err, unix.EPROTONOSUPPORT) ||
		errors.Is(err, unix.EAFNOSUPPORT) ||
		errors.Is(err, unix.EADDRNOTAVAIL)
}

// bindUDPLite binds a UDP-Lite socket for a test, skipping the test on
// systems where that cannot work, and closing the socket on cleanup.
func bindUDPLite(t *testing.T, address string) *udplite.Conn {
	t.Helper()

	conn, err := udplite.Bind(context.Background(), address)
	if err != nil {
		if skippable(err) {
			t.Skipf("cannot bind UDP-Lite socket to %s: %v", address, err)
		}
		t.Fatalf("bind UDP-Lite socket to %s: %v", address, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// receiveWithin receives one datagram on conn within exchangeTimeout and
// returns its length, failing the test on error.
func receiveWithin(t *testing.T, conn *udplite.Conn, buf []byte) int {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(exchangeTimeout)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	n, _, err := conn.ReadFrom(buf)
	if err != nil {
		t.Fatalf("receive on %s: %v", conn, err)
	}
	return n
}

// bindUDPLiteNonblocking is bindUDPLite for the non-blocking constructor.
func bindUDPLiteNonblocking(t *testing.T, address string) *udplite.Conn {
	t.Helper()

	conn, err := udplite.BindNonblocking(context.Background(), address)
	if err != nil {
		if skippable(err) {
			t.Skipf("cannot bind UDP-Lite socket to %s: %v", address, err)
		}
		t.Fatalf("bind non-blocking UDP-Lite socket to %s: %v", address, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
