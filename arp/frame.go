package arp

import (
	"errors"

	"github.com/nanostack/udpstack/wire"
)

// sizeHeader is the size of an ARP-for-IPv4-over-Ethernet packet: the
// 6-byte hardware type, protocol type and address lengths prefix, the
// request/reply op code, plus sender/target hardware and protocol addresses.
// The prefix is fixed (Ethernet, IPv4, 6, 4) rather than general fields,
// since this module speaks ARPv4 over Ethernet exclusively.
const sizeHeader = 28

// FrameSize is the fixed size of an ARPv4-over-Ethernet packet (28 bytes),
// exported so callers composing full Ethernet+ARP frames know how many
// bytes follow the 14-byte Ethernet header.
const FrameSize = sizeHeader

// canonicalHeader is the fixed first 6 bytes of every frame this package
// produces or accepts: hardware type Ethernet(1), protocol type IPv4(0x0800),
// hardware length 6, protocol length 4.
var canonicalHeader = [6]byte{0x00, 0x01, 0x08, 0x00, 0x06, 0x04}

// NewFrame returns a Frame over buf, which must start at the ARP header (the
// byte right after the 14-byte Ethernet header) and be at least 28 bytes.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{buf: nil}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of an ARP-for-IPv4-over-Ethernet packet.
// See [RFC826].
//
// [RFC826]: https://tools.ietf.org/html/rfc826
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (afrm Frame) RawData() []byte { return afrm.buf }

// HasCanonicalHeader reports whether bytes 0:6 equal the fixed
// Ethernet/IPv4 ARP header this module produces and expects.
func (afrm Frame) HasCanonicalHeader() bool {
	return wire.MemEqual(afrm.buf[0:6], canonicalHeader[:], 6)
}

// SetCanonicalHeader writes the fixed Ethernet/IPv4 ARP header to bytes 0:6.
func (afrm Frame) SetCanonicalHeader() {
	copy(afrm.buf[0:6], canonicalHeader[:])
}

// Operation returns the ARP opcode (1 request, 2 reply).
func (afrm Frame) Operation() Operation {
	return Operation(wire.ReadU16BE(afrm.buf[6:8]))
}

// SetOperation sets the ARP opcode.
func (afrm Frame) SetOperation(op Operation) {
	wire.WriteU16BE(afrm.buf[6:8], uint16(op))
}

// SenderMAC returns the sender hardware address field.
func (afrm Frame) SenderMAC() *[6]byte { return (*[6]byte)(afrm.buf[8:14]) }

// SenderIP returns the sender protocol address field.
func (afrm Frame) SenderIP() *[4]byte { return (*[4]byte)(afrm.buf[14:18]) }

// TargetMAC returns the target hardware address field.
func (afrm Frame) TargetMAC() *[6]byte { return (*[6]byte)(afrm.buf[18:24]) }

// TargetIP returns the target protocol address field.
func (afrm Frame) TargetIP() *[4]byte { return (*[4]byte)(afrm.buf[24:28]) }

//
// Validation API.
//

var (
	errShort    = errors.New("arp: short buffer")
	errBadProto = errors.New("arp: not a canonical ARPv4-over-Ethernet header")
)

// ValidateSize checks the buffer is at least 28 bytes and carries the
// canonical header this package expects. A frame failing this check must
// be dropped silently per the protocol's error model.
func (afrm Frame) ValidateSize(v *wire.Validator) {
	if len(afrm.buf) < sizeHeader {
		v.AddError(errShort)
		return
	}
	if !afrm.HasCanonicalHeader() {
		v.AddError(errBadProto)
	}
}
