// Package wire holds the byte-level primitives shared by every protocol
// package in this module: network-endian load/store, the RFC 1071
// internet checksum (including the fused copy-and-checksum variant used
// on the UDP send path), and a small error accumulator used by each
// frame type's ValidateSize method.
package wire

import "encoding/binary"

// ReadU16BE reads a big-endian (network order) 16 bit value from p[0:2].
func ReadU16BE(p []byte) uint16 {
	return binary.BigEndian.Uint16(p)
}

// WriteU16BE writes v to p[0:2] in big-endian (network order).
func WriteU16BE(p []byte, v uint16) {
	binary.BigEndian.PutUint16(p, v)
}

// MemEqual reports whether a and b hold identical bytes. Both slices must
// be at least n bytes long.
func MemEqual(a, b []byte, n int) bool {
	a, b = a[:n], b[:n]
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
