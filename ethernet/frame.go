package ethernet

import (
	"errors"

	"github.com/nanostack/udpstack/wire"
)

// NewFrame returns a Frame with data set to buf.
// An error is returned if the buffer size is smaller than 14.
// Users should still call [Frame.ValidateSize] before working
// with the payload of a frame to avoid panics.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{buf: nil}, errShort
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of an Ethernet II frame, without preamble
// or trailing CRC (the MAC driver is assumed to strip both): the first byte
// is the start of the destination address. VLAN tagging is out of scope for
// this module, so HeaderLength is always 14.
//
// See [IEEE 802.3].
//
// [IEEE 802.3]: https://standards.ieee.org/ieee/802.3/7071/
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (efrm Frame) RawData() []byte { return efrm.buf }

// HeaderLength returns the length of the Ethernet header: always 14.
func (efrm Frame) HeaderLength() int { return sizeHeader }

// Payload returns the data portion of the ethernet frame.
func (efrm Frame) Payload() []byte { return efrm.buf[sizeHeader:] }

// DestinationHardwareAddr returns the target's MAC address for the frame.
func (efrm Frame) DestinationHardwareAddr() (dst *[6]byte) {
	return (*[6]byte)(efrm.buf[0:6])
}

// SetDestinationHardwareAddr sets the target's MAC address for the frame.
func (efrm Frame) SetDestinationHardwareAddr(dst [6]byte) {
	copy(efrm.buf[0:6], dst[:])
}

// IsBroadcast returns true if the destination is the broadcast address ff:ff:ff:ff:ff:ff.
func (efrm Frame) IsBroadcast() bool {
	bcast := BroadcastAddr()
	return wire.MemEqual(efrm.buf[0:6], bcast[:], 6)
}

// SourceHardwareAddr returns the sender's MAC address of the frame.
func (efrm Frame) SourceHardwareAddr() (src *[6]byte) {
	return (*[6]byte)(efrm.buf[6:12])
}

// SetSourceHardwareAddr sets the sender's MAC address of the frame.
func (efrm Frame) SetSourceHardwareAddr(src [6]byte) {
	copy(efrm.buf[6:12], src[:])
}

// EtherType returns the EtherType field of the frame.
func (efrm Frame) EtherType() Type {
	return Type(wire.ReadU16BE(efrm.buf[12:14]))
}

// SetEtherType sets the EtherType field of the frame. See [Frame.EtherType].
func (efrm Frame) SetEtherType(v Type) {
	wire.WriteU16BE(efrm.buf[12:14], uint16(v))
}

// ClearHeader zeros out the 14-byte header.
func (efrm Frame) ClearHeader() {
	for i := range efrm.buf[:sizeHeader] {
		efrm.buf[i] = 0
	}
}

//
// Validation API.
//

var errShort = errors.New("ethernet: too short")

// ValidateSize checks the frame is at least as long as a bare 14-byte header.
func (efrm Frame) ValidateSize(v *wire.Validator) {
	if len(efrm.buf) < sizeHeader {
		v.AddError(errShort)
	}
}
