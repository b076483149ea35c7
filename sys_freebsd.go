//go:build freebsd

package udplite

// UDP-Lite socket option identifiers from netinet/udplite.h.
// The numeric scheme differs from Linux; the option level is
// IPPROTO_UDPLITE on both.
const (
	optSendCoverage = 2 // UDPLITE_SEND_CSCOV
	optRecvCoverage = 4 // UDPLITE_RECV_CSCOV
)
