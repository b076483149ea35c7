//go:build linux || freebsd

// Package echo implements the udplited UDP-Lite echo service.
//
// The server receives datagrams on one UDP-Lite socket and sends each
// payload back to its source, with the checksum coverage of both
// directions taken from the daemon configuration.
package echo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/tormol/udplite"
	echometrics "github.com/tormol/udplite/internal/metrics"
)

// ErrNoSocket indicates that a Server was started without a socket.
var ErrNoSocket = errors.New("echo run: no socket provided")

// maxDatagram is the receive buffer size. UDP-Lite length is a 16-bit
// field, so no datagram payload can exceed this.
const maxDatagram = 0xFFFF

// pollInterval bounds how long a blocked receive can delay shutdown.
const pollInterval = 500 * time.Millisecond

// Server reads datagrams from a UDP-Lite socket and echoes each one back
// to its source.
//
// The Server handles:
//   - Checksum coverage setup from configured values
//   - Traffic accounting via echometrics.Collector
//   - Context-aware graceful shutdown
type Server struct {
	conn    *udplite.Conn
	logger  *slog.Logger
	metrics *echometrics.Collector
}

// NewServer creates a Server echoing on conn. The metrics collector may be
// nil to disable accounting.
func NewServer(conn *udplite.Conn, logger *slog.Logger, metrics *echometrics.Collector) *Server {
	return &Server{
		conn:    conn,
		logger:  logger.With(slog.String("component", "echo.server")),
		metrics: metrics,
	}
}

// Configure applies the checksum coverage to the socket: send coverage for
// the echoed replies and the receive filter for incoming datagrams.
func (s *Server) Configure(send, recvFilter udplite.Coverage) error {
	if err := s.conn.SetSendChecksumCoverage(send); err != nil {
		return fmt.Errorf("set send coverage: %w", err)
	}
	if err := s.conn.SetRecvChecksumCoverageFilter(recvFilter); err != nil {
		return fmt.Errorf("set recv coverage filter: %w", err)
	}

	s.logger.Info("checksum coverage configured",
		slog.String("send", send.String()),
		slog.String("recv_filter", recvFilter.String()),
	)
	return nil
}

// Run echoes datagrams until ctx is cancelled. It blocks until the loop
// has observed the cancellation and returns nil on a clean shutdown.
//
// Errors from individual datagrams are logged but do not stop the server.
// Only context cancellation terminates the loop.
func (s *Server) Run(ctx context.Context) error {
	if s.conn == nil {
		return fmt.Errorf("echo: %w", ErrNoSocket)
	}

	listenAddr := s.conn.LocalAddr().String()
	s.logger.Info("echo server listening", slog.String("addr", listenAddr))

	buf := make([]byte, maxDatagram)
	for {
		if ctx.Err() != nil {
			s.logger.Info("echo server stopping", slog.String("addr", listenAddr))
			return nil
		}

		if err := s.echoOne(buf, listenAddr); err != nil {
			// Deadline expiry is the shutdown poll, not a failure.
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				s.logger.Info("echo server stopping", slog.String("addr", listenAddr))
				return nil
			}
			if s.metrics != nil {
				s.metrics.IncReceiveErrors(listenAddr)
			}
			s.logger.Warn("echo error", slog.String("error", err.Error()))
		}
	}
}

// echoOne performs a single receive-reply cycle. The read deadline keeps
// the loop responsive to cancellation without a dedicated wakeup channel.
func (s *Server) echoOne(buf []byte, listenAddr string) error {
	if err := s.conn.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
		return fmt.Errorf("set read deadline: %w", err)
	}

	n, from, err := s.conn.ReadFromUDPAddrPort(buf)
	if err != nil {
		return fmt.Errorf("recv: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordReceived(listenAddr, n)
	}

	if _, err := s.conn.WriteToUDPAddrPort(buf[:n], from); err != nil {
		return fmt.Errorf("echo to %s: %w", from, err)
	}
	if s.metrics != nil {
		s.metrics.RecordEchoed(listenAddr, n)
	}

	s.logger.Debug("echoed datagram",
		slog.String("src", from.String()),
		slog.Int("bytes", n),
	)
	return nil
}
