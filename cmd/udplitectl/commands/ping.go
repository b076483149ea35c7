//go:build linux || freebsd

package commands

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/spf13/cobra"

	"github.com/tormol/udplite"
	"github.com/tormol/udplite/internal/config"
)

var (
	// pingCount is the number of probe datagrams to send.
	pingCount int

	// pingPayload is the payload sent in each probe.
	pingPayload string
)

func pingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping <host:port>",
		Short: "Send UDP-Lite probes and await echoed replies",
		Long: "ping sends datagrams to a UDP-Lite echo endpoint with the configured " +
			"checksum coverage and reports the round-trip time of each reply.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPing(cmd.Context(), args[0])
		},
	}
	cmd.Flags().IntVar(&pingCount, "count", 3, "number of probes to send")
	cmd.Flags().StringVar(&pingPayload, "payload", "Hello", "payload of each probe")
	return cmd
}

// runPing resolves the target, binds a local UDP-Lite socket with the
// configured coverage, and runs count send/receive probes.
func runPing(ctx context.Context, target string) error {
	send, err := config.ParseCoverage(sendCoverage)
	if err != nil {
		return fmt.Errorf("--coverage: %w", err)
	}
	filter, err := config.ParseCoverage(recvFilter)
	if err != nil {
		return fmt.Errorf("--recv-filter: %w", err)
	}

	remote, err := resolveTarget(ctx, target)
	if err != nil {
		return err
	}

	local := "0.0.0.0:0"
	if remote.Addr().Is6() {
		local = "[::]:0"
	}
	conn, err := udplite.Bind(ctx, local)
	if err != nil {
		return fmt.Errorf("bind local socket: %w", err)
	}
	defer conn.Close()

	if err := conn.SetSendChecksumCoverage(send); err != nil {
		return fmt.Errorf("set send coverage: %w", err)
	}
	if err := conn.SetRecvChecksumCoverageFilter(filter); err != nil {
		return fmt.Errorf("set recv coverage filter: %w", err)
	}
	if err := conn.Connect(remote); err != nil {
		return err
	}

	fmt.Printf("probing %s from %s, coverage %s\n", remote, conn.LocalAddr(), send)

	payload := []byte(pingPayload)
	buf := make([]byte, udplite.MaxPayloadCoverage+1)
	received := 0
	for i := 0; i < pingCount; i++ {
		rtt, n, err := probeOnce(conn, payload, buf)
		if err != nil {
			fmt.Printf("probe %d: %v\n", i+1, err)
			continue
		}
		received++
		fmt.Printf("probe %d: %d bytes in %v\n", i+1, n, rtt.Round(time.Microsecond))
	}

	fmt.Printf("%d of %d probes answered\n", received, pingCount)
	if received == 0 {
		return fmt.Errorf("no replies from %s", remote)
	}
	return nil
}

// probeOnce sends one probe on the connected socket and waits for a reply
// within the configured timeout.
func probeOnce(conn *udplite.Conn, payload, buf []byte) (time.Duration, int, error) {
	start := time.Now()
	if _, err := conn.Write(payload); err != nil {
		return 0, 0, fmt.Errorf("send: %w", err)
	}

	if err := conn.SetReadDeadline(start.Add(timeout)); err != nil {
		return 0, 0, fmt.Errorf("set read deadline: %w", err)
	}
	n, err := conn.Read(buf)
	if err != nil {
		return 0, 0, fmt.Errorf("receive: %w", err)
	}
	return time.Since(start), n, nil
}

// resolveTarget resolves a host:port string to a single address, preferring
// the first answer the resolver returns.
func resolveTarget(ctx context.Context, target string) (netip.AddrPort, error) {
	if ap, err := netip.ParseAddrPort(target); err == nil {
		return ap, nil
	}

	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("parse target %q: %w", target, err)
	}
	port, err := net.DefaultResolver.LookupPort(ctx, "udp", portStr)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("resolve port %q: %w", portStr, err)
	}
	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("resolve host %q: %w", host, err)
	}
	if len(addrs) == 0 {
		return netip.AddrPort{}, fmt.Errorf("resolve host %q: no addresses", host)
	}
	//nolint:gosec // G115: LookupPort returns a value in uint16 range.
	return netip.AddrPortFrom(addrs[0].Unmap(), uint16(port)), nil
}
