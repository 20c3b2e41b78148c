// Package logattr builds slog.Attr values for IPv4 and hardware addresses
// without allocating a formatted string, so a Debug-level log call on the
// frame-dispatch hot path costs no more than a couple of shifts and an Inc.
package logattr

import (
	"encoding/binary"
	"log/slog"
)

// IP4 returns a slog.Attr for a 4-byte IPv4 address packed into a uint64.
func IP4(key string, addr [4]byte) slog.Attr {
	return slog.Uint64(key, uint64(binary.BigEndian.Uint32(addr[:])))
}

// MAC returns a slog.Attr for a 6-byte hardware address packed into a uint64.
func MAC(key string, addr [6]byte) slog.Attr {
	var buf [8]byte
	copy(buf[2:], addr[:])
	return slog.Uint64(key, binary.BigEndian.Uint64(buf[:]))
}
