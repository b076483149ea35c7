//go:build linux || freebsd

package echo_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sys/unix"

	"github.com/tormol/udplite"
	"github.com/tormol/udplite/internal/echo"
	echometrics "github.com/tormol/udplite/internal/metrics"
)

// bindUDPLite binds a UDP-Lite socket for a test, skipping the test on
// systems where the protocol or address family is unavailable.
func bindUDPLite(t *testing.T, address string) *udplite.Conn {
	t.Helper()

	conn, err := udplite.Bind(context.Background(), address)
	if err != nil {
		if errors.Is(err, unix.EPROTONOSUPPORT) ||
			errors.Is(err, unix.EAFNOSUPPORT) ||
			errors.Is(err, unix.EADDRNOTAVAIL) {
			t.Skipf("cannot bind UDP-Lite socket to %s: %v", address, err)
		}
		t.Fatalf("bind UDP-Lite socket to %s: %v", address, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestRunWithoutSocket(t *testing.T) {
	t.Parallel()

	srv := echo.NewServer(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	if err := srv.Run(context.Background()); !errors.Is(err, echo.ErrNoSocket) {
		t.Fatalf("Run() error = %v, want ErrNoSocket", err)
	}
}

func TestEchoRoundTrip(t *testing.T) {
	t.Parallel()

	server := bindUDPLite(t, "127.0.0.1:0")
	client := bindUDPLite(t, "127.0.0.1:0")

	reg := prometheus.NewRegistry()
	collector := echometrics.NewCollector(reg)
	srv := echo.NewServer(server, slog.New(slog.NewTextHandler(io.Discard, nil)), collector)

	if err := srv.Configure(udplite.PayloadCoverage(2), udplite.PayloadCoverage(0)); err != nil {
		t.Fatalf("Configure(): %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	serverAddr := server.LocalAddr().(*net.UDPAddr).AddrPort()
	msg := []byte("Hello")
	if _, err := client.WriteToUDPAddrPort(msg, serverAddr); err != nil {
		t.Fatalf("send to echo server: %v", err)
	}

	if err := client.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	buf := make([]byte, 20)
	n, from, err := client.ReadFromUDPAddrPort(buf)
	if err != nil {
		t.Fatalf("receive echo: %v", err)
	}
	if string(buf[:n]) != string(msg) {
		t.Errorf("echoed %q, want %q", buf[:n], msg)
	}
	if from.Port() != serverAddr.Port() {
		t.Errorf("echo came from port %d, want %d", from.Port(), serverAddr.Port())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() after cancel: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("echo server did not stop after cancellation")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	server := bindUDPLite(t, "127.0.0.1:0")
	srv := echo.NewServer(server, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	// Cancel while the server is idle, waiting in a receive.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() after cancel: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("echo server did not stop after cancellation")
	}
}
