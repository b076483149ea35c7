//go:build linux

package udplite

// UDP-Lite socket option identifiers from include/uapi/linux/udp.h.
// Neither is exposed by golang.org/x/sys/unix. The option level is
// IPPROTO_UDPLITE (SOL_UDPLITE) itself.
const (
	optSendCoverage = 10 // UDPLITE_SEND_CSCOV
	optRecvCoverage = 11 // UDPLITE_RECV_CSCOV
)
