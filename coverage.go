//go:build linux || freebsd

package udplite

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// -------------------------------------------------------------------------
// Checksum coverage — RFC 3828 Section 3.1
// -------------------------------------------------------------------------

// headerLen is the fixed size of the UDP-Lite header in bytes. The wire
// Checksum Coverage field counts header plus payload, while this package's
// API counts payload only, so the header length is the bias between them.
const headerLen = 8

// MaxPayloadCoverage is the largest payload byte count a partial coverage
// can express: the 16-bit wire field minus the header length.
const MaxPayloadCoverage = 0xFFFF - headerLen

// Decoding errors for values returned by getsockopt. Neither is an OS
// error: the option call succeeded but produced a value the protocol does
// not allow, which signals a platform assumption violation.
var (
	// ErrCoveragePartialHeader indicates a returned coverage in (0, 8).
	// RFC 3828 Section 3.1: coverage values 1 through 7 are invalid, as
	// the header itself is always covered. Correct kernels never return
	// them.
	ErrCoveragePartialHeader = errors.New("returned checksum coverage only partially covers the UDP-Lite header")

	// ErrCoverageOutOfRange indicates a returned coverage that is negative
	// or exceeds the 16-bit wire field.
	ErrCoverageOutOfRange = errors.New("returned checksum coverage is outside the valid range")
)

// Coverage is the checksum coverage of UDP-Lite datagrams: either the full
// datagram (the zero value, and the default for new sockets) or the first
// N payload bytes. Immutable value type; two independent instances exist
// per socket, one for sending and one for the receive filter.
type Coverage struct {
	payload uint16
	partial bool
}

// FullCoverage covers the entire datagram, like plain UDP.
func FullCoverage() Coverage {
	return Coverage{}
}

// PayloadCoverage covers exactly payloadBytes bytes of the payload (plus
// the header, which is always covered). Zero is valid and covers the
// header only. Values above MaxPayloadCoverage cannot be represented on
// the wire; the kernel decides what to do with them.
func PayloadCoverage(payloadBytes uint16) Coverage {
	return Coverage{payload: payloadBytes, partial: true}
}

// IsFull reports whether the whole datagram is covered.
func (c Coverage) IsFull() bool {
	return !c.partial
}

// PayloadBytes returns the covered payload byte count. The boolean is
// false for full coverage, in which case the count is meaningless.
func (c Coverage) PayloadBytes() (uint16, bool) {
	return c.payload, c.partial
}

func (c Coverage) String() string {
	if !c.partial {
		return "full"
	}
	return fmt.Sprintf("%d payload bytes", c.payload)
}

// wireValue encodes the coverage for setsockopt: 0 for full coverage,
// payload+headerLen otherwise, as the option is specified in terms of
// total covered bytes including the header.
func (c Coverage) wireValue() int {
	if !c.partial {
		return 0
	}
	return int(c.payload) + headerLen
}

// coverageFromWire decodes a getsockopt result. 0 means full coverage and
// [headerLen, 0xFFFF] means partial; everything else is a consistency
// failure, distinguished from OS errors by the sentinel errors above.
func coverageFromWire(value int) (Coverage, error) {
	switch {
	case value == 0:
		return FullCoverage(), nil
	case value >= headerLen && value <= 0xFFFF:
		//nolint:gosec // G115: value-headerLen is in [0, 0xFFF7] here.
		return PayloadCoverage(uint16(value - headerLen)), nil
	case value > 0 && value < headerLen:
		return Coverage{}, fmt.Errorf("decode coverage %d: %w", value, ErrCoveragePartialHeader)
	default:
		return Coverage{}, fmt.Errorf("decode coverage %d: %w", value, ErrCoverageOutOfRange)
	}
}

// -------------------------------------------------------------------------
// Socket options — UDPLITE_SEND_CSCOV / UDPLITE_RECV_CSCOV
// -------------------------------------------------------------------------

// SetSendChecksumCoverage changes how much of the payload of sent
// datagrams is covered by the checksum. New sockets default to full
// coverage.
//
// This fails with an OS error if the descriptor is not actually a UDP-Lite
// socket, which only happens after an incorrect FromRawDescriptor or
// FromUDPConn.
func (c *Conn) SetSendChecksumCoverage(cov Coverage) error {
	return c.setCoverageOpt(optSendCoverage, "UDPLITE_SEND_CSCOV", cov)
}

// SendChecksumCoverage returns the coverage applied to sent datagrams.
func (c *Conn) SendChecksumCoverage() (Coverage, error) {
	return c.coverageOpt(optSendCoverage, "UDPLITE_SEND_CSCOV")
}

// SetRecvChecksumCoverageFilter sets the minimum checksum coverage
// required of received datagrams; the OS discards datagrams covering less.
//
// FreeBSD additionally discards datagrams whose coverage exceeds the
// filter, requiring an exact match, while Linux only enforces the lower
// bound. The asymmetry is the platforms', not this package's. What full
// coverage means for the filter is not clearly specified either; do not
// read more into it than "no explicit minimum".
func (c *Conn) SetRecvChecksumCoverageFilter(cov Coverage) error {
	return c.setCoverageOpt(optRecvCoverage, "UDPLITE_RECV_CSCOV", cov)
}

// RecvChecksumCoverageFilter returns the receive coverage filter. See
// SetRecvChecksumCoverageFilter for the platform differences in how the
// filter is applied.
func (c *Conn) RecvChecksumCoverageFilter() (Coverage, error) {
	return c.coverageOpt(optRecvCoverage, "UDPLITE_RECV_CSCOV")
}

// setCoverageOpt writes a coverage option through the raw descriptor.
func (c *Conn) setCoverageOpt(opt int, name string, cov Coverage) error {
	var opErr error
	err := c.rc.Control(func(fd uintptr) {
		opErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_UDPLITE, opt, cov.wireValue())
	})
	if err != nil {
		return fmt.Errorf("raw conn control: %w", err)
	}
	if opErr != nil {
		return fmt.Errorf("set %s: %w", name, opErr)
	}
	return nil
}

// coverageOpt reads and decodes a coverage option. OS errors from the
// getsockopt call itself propagate unwrapped into decode errors.
func (c *Conn) coverageOpt(opt int, name string) (Coverage, error) {
	var (
		value int
		opErr error
	)
	err := c.rc.Control(func(fd uintptr) {
		value, opErr = unix.GetsockoptInt(int(fd), unix.IPPROTO_UDPLITE, opt)
	})
	if err != nil {
		return Coverage{}, fmt.Errorf("raw conn control: %w", err)
	}
	if opErr != nil {
		return Coverage{}, fmt.Errorf("get %s: %w", name, opErr)
	}
	return coverageFromWire(value)
}
