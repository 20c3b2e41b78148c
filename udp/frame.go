package udp

import (
	"errors"

	"github.com/nanostack/udpstack/wire"
)

const sizeHeader = 8

// HeaderSize is the fixed size of a UDP header: 8 bytes.
const HeaderSize = sizeHeader

// NewFrame returns a new Frame with data set to buf. An error is returned
// if the buffer is smaller than the 8-byte UDP header. Callers should still
// call [Frame.ValidateSize] before reading Payload to avoid panics.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{buf: nil}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of a UDP datagram and provides methods
// for manipulating, validating and retrieving its header fields and
// payload. See [RFC768].
//
// [RFC768]: https://tools.ietf.org/html/rfc768
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (ufrm Frame) RawData() []byte { return ufrm.buf }

// SourcePort identifies the sending port for the UDP packet.
func (ufrm Frame) SourcePort() uint16 { return wire.ReadU16BE(ufrm.buf[0:2]) }

// SetSourcePort sets the UDP source port. See [Frame.SourcePort].
func (ufrm Frame) SetSourcePort(port uint16) { wire.WriteU16BE(ufrm.buf[0:2], port) }

// DestinationPort identifies the receiving port for the UDP packet.
func (ufrm Frame) DestinationPort() uint16 { return wire.ReadU16BE(ufrm.buf[2:4]) }

// SetDestinationPort sets the UDP destination port. See [Frame.DestinationPort].
func (ufrm Frame) SetDestinationPort(port uint16) { wire.WriteU16BE(ufrm.buf[2:4], port) }

// Length is the length in bytes of the UDP header plus payload (8+n).
func (ufrm Frame) Length() uint16 { return wire.ReadU16BE(ufrm.buf[4:6]) }

// SetLength sets the Length field. See [Frame.Length].
func (ufrm Frame) SetLength(length uint16) { wire.WriteU16BE(ufrm.buf[4:6], length) }

// CRC returns the checksum field in the UDP header.
func (ufrm Frame) CRC() uint16 { return wire.ReadU16BE(ufrm.buf[6:8]) }

// SetCRC sets the UDP header's checksum field. See [Frame.CRC].
func (ufrm Frame) SetCRC(checksum uint16) { wire.WriteU16BE(ufrm.buf[6:8], checksum) }

// Payload returns the payload section of the UDP datagram, bytes 8 through
// Length. Call [Frame.ValidateSize] first to avoid panics.
func (ufrm Frame) Payload() []byte {
	return ufrm.buf[sizeHeader:ufrm.Length()]
}

// ClearHeader zeros out the 8-byte header.
func (ufrm Frame) ClearHeader() {
	for i := range ufrm.buf[:sizeHeader] {
		ufrm.buf[i] = 0
	}
}

//
// Validation API.
//

var (
	errBadLen = errors.New("udp: bad UDP length")
	errShort  = errors.New("udp: short buffer")
)

// ValidateSize checks the frame's Length field against the actual buffer
// size, returning a non-nil error through v if they are inconsistent.
func (ufrm Frame) ValidateSize(v *wire.Validator) {
	ul := ufrm.Length()
	if ul < sizeHeader {
		v.AddError(errBadLen)
	}
	if int(ul) > len(ufrm.buf) {
		v.AddError(errShort)
	}
}
