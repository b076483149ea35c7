// Package udplite exposes UDP-Lite (RFC 3828) datagram sockets with an API
// close to net.UDPConn.
//
// UDP-Lite is a variant of UDP that allows the checksum to cover only part
// of the datagram, so packets whose payload was corrupted outside the
// covered region are delivered instead of dropped. This is useful for
// codecs and protocols that prefer damaged data over lost data, but only
// when the link layer can be told to not discard corrupt frames, so it is
// of little use across the open internet. Many middleboxes and NATs do not
// recognize protocol number 136 and drop it outright.
//
// The protocol is implemented on Linux (including Android) and FreeBSD;
// this package is restricted to those platforms by build constraints.
//
// A Conn embeds a *net.UDPConn created from a UDP-Lite descriptor, so the
// whole generic datagram surface (deadlines, TTL, broadcast, LocalAddr,
// ...) is the standard library's own implementation. What this package
// adds on top is construction (Bind, BindAddrPort), Connect, the UDP-Lite
// checksum coverage options, and descriptor lifecycle helpers (TryClone,
// SetCloexec).
//
// Like UDP, UDP-Lite is unreliable: datagrams can still disappear entirely.
package udplite
