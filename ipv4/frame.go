package ipv4

import (
	"errors"

	"github.com/nanostack/udpstack/wire"
)

// HeaderSize is the fixed size of an IPv4 header in this module: 20 bytes,
// no options.
const HeaderSize = sizeHeader

// IPProto represents the IP protocol number.
type IPProto uint8

// IP protocol numbers this module cares about. The full IANA registry is
// out of scope: this stack only ever sees UDP traffic addressed to itself.
const (
	IPProtoICMP IPProto = 1
	IPProtoUDP  IPProto = 17
)

// NewFrame returns a Frame with data set to buf.
// An error is returned if the buffer is smaller than 20 bytes (the fixed,
// option-less header size this module always uses).
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{buf: nil}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of an IPv4 packet and provides methods
// for manipulating, validating and retrieving its fields. This module
// never emits or accepts IP options, so HeaderLength is always 20. See
// [RFC791].
//
// [RFC791]: https://tools.ietf.org/html/rfc791
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (ifrm Frame) RawData() []byte { return ifrm.buf }

// HeaderLength is always 20: this module does not emit or parse options.
func (ifrm Frame) HeaderLength() int { return sizeHeader }

func (ifrm Frame) ihl() uint8     { return ifrm.buf[0] & 0xf }
func (ifrm Frame) version() uint8 { return ifrm.buf[0] >> 4 }

// SetVersionAndIHL sets the version and IHL fields. This module always
// writes version 4, IHL 5.
func (ifrm Frame) SetVersionAndIHL(version, ihl uint8) { ifrm.buf[0] = version<<4 | ihl&0xf }

// ToS returns the Type of Service byte (DSCP + ECN).
func (ifrm Frame) ToS() ToS { return ToS(ifrm.buf[1]) }

// SetToS sets the Type of Service byte. See [Frame.ToS].
func (ifrm Frame) SetToS(tos ToS) { ifrm.buf[1] = byte(tos) }

// TotalLength is the entire packet size in bytes, header plus payload.
func (ifrm Frame) TotalLength() uint16 { return wire.ReadU16BE(ifrm.buf[2:4]) }

// SetTotalLength sets TotalLength. See [Frame.TotalLength].
func (ifrm Frame) SetTotalLength(tl uint16) { wire.WriteU16BE(ifrm.buf[2:4], tl) }

// ID is the identification field used to group IP fragments; this module
// neither fragments nor reassembles, so it only needs to be unique-enough
// per outgoing datagram.
func (ifrm Frame) ID() uint16 { return wire.ReadU16BE(ifrm.buf[4:6]) }

// SetID sets the ID field. See [Frame.ID].
func (ifrm Frame) SetID(id uint16) { wire.WriteU16BE(ifrm.buf[4:6], id) }

// FlagsAndFragOffset returns the combined flags+fragment-offset field.
func (ifrm Frame) FlagsAndFragOffset() Flags { return Flags(wire.ReadU16BE(ifrm.buf[6:8])) }

// SetFlagsAndFragOffset sets the combined flags+fragment-offset field.
func (ifrm Frame) SetFlagsAndFragOffset(f Flags) { wire.WriteU16BE(ifrm.buf[6:8], uint16(f)) }

// TTL is the time-to-live / hop count.
func (ifrm Frame) TTL() uint8 { return ifrm.buf[8] }

// SetTTL sets TTL. See [Frame.TTL].
func (ifrm Frame) SetTTL(ttl uint8) { ifrm.buf[8] = ttl }

// Protocol is the encapsulated protocol (17 for UDP).
func (ifrm Frame) Protocol() IPProto { return IPProto(ifrm.buf[9]) }

// SetProtocol sets Protocol. See [Frame.Protocol].
func (ifrm Frame) SetProtocol(proto IPProto) { ifrm.buf[9] = uint8(proto) }

// CRC returns the header checksum field.
func (ifrm Frame) CRC() uint16 { return wire.ReadU16BE(ifrm.buf[10:12]) }

// SetCRC sets the header checksum field. See [Frame.CRC].
func (ifrm Frame) SetCRC(crc uint16) { wire.WriteU16BE(ifrm.buf[10:12], crc) }

// SourceAddr returns a pointer to the source IPv4 address.
func (ifrm Frame) SourceAddr() *[4]byte { return (*[4]byte)(ifrm.buf[12:16]) }

// DestinationAddr returns a pointer to the destination IPv4 address.
func (ifrm Frame) DestinationAddr() *[4]byte { return (*[4]byte)(ifrm.buf[16:20]) }

// Payload returns the packet's payload (everything past the 20-byte header,
// up to TotalLength). Call ValidateSize first to avoid panics.
func (ifrm Frame) Payload() []byte {
	return ifrm.buf[sizeHeader:ifrm.TotalLength()]
}

// ClearHeader zeros out the 20-byte header.
func (ifrm Frame) ClearHeader() {
	for i := range ifrm.buf[:sizeHeader] {
		ifrm.buf[i] = 0
	}
}

// CalculateHeaderChecksum computes the IPv4 header checksum over the 20
// header bytes, with the CRC field itself treated as zero as required by
// RFC 791 (call this before writing the result back with SetCRC).
func (ifrm Frame) CalculateHeaderChecksum() uint16 {
	var sum uint32
	sum = wire.AddChecksum(sum, ifrm.buf[0:10], 10)
	sum = wire.AddChecksum(sum, ifrm.buf[12:20], 8)
	return wire.FoldChecksum(sum)
}

//
// Validation API.
//

var (
	errShort     = errors.New("ipv4: short buffer")
	errBadTL     = errors.New("ipv4: bad total length")
	errShortBody = errors.New("ipv4: buffer shorter than total length")
	errBadIHL    = errors.New("ipv4: IHL != 5 (options unsupported)")
)

// ValidateSize checks the frame's size fields against the buffer.
func (ifrm Frame) ValidateSize(v *wire.Validator) {
	tl := ifrm.TotalLength()
	if tl < sizeHeader {
		v.AddError(errBadTL)
	}
	if int(tl) > len(ifrm.buf) {
		v.AddError(errShortBody)
	}
	if ifrm.ihl() != 5 {
		v.AddError(errBadIHL)
	}
}
