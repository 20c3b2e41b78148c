package ipv4

import "github.com/nanostack/udpstack/wire"

// WriteUDPHeader completes the 20-byte IPv4 header for an outgoing UDP
// datagram in buf (version 4, IHL 5, no options, no fragmentation). ticks
// is the low 16 bits of the current tick counter, used as a unique-enough
// IP identification field for a stack that never fragments or reassembles.
// udpLength is the UDP header+payload length (8+n). Callers supply it
// already so this function never needs to know where the UDP header lives.
func WriteUDPHeader(buf []byte, hostIP, destIP [4]byte, udpLength uint16, ticks uint16) {
	ifrm, _ := NewFrame(buf)
	ifrm.SetVersionAndIHL(4, 5)
	ifrm.SetToS(0)
	ifrm.SetTotalLength(udpLength + sizeHeader)
	ifrm.SetID(ticks)
	ifrm.SetFlagsAndFragOffset(0)
	ifrm.SetTTL(64)
	ifrm.SetProtocol(IPProtoUDP)
	ifrm.SetCRC(0)
	*ifrm.SourceAddr() = hostIP
	*ifrm.DestinationAddr() = destIP
	ifrm.SetCRC(ifrm.CalculateHeaderChecksum())
}

// OnSameSubnet reports whether destIP is reachable directly, i.e. whether
// destIP and hostIP fall in the same subnet under mask. The comparison is
// done byte by byte rather than as a single 32-bit word so the result does
// not depend on host endianness.
func OnSameSubnet(destIP, hostIP, mask [4]byte) bool {
	for i := 0; i < 4; i++ {
		if destIP[i]&mask[i] != hostIP[i]&mask[i] {
			return false
		}
	}
	return true
}

// Check validates an inbound IPv4 datagram in buf (starting at the IP
// header, i.e. the Ethernet payload) addressed to hostIP. It returns the
// encapsulated protocol number and ok=true if the datagram passes every
// check, or ok=false if any check fails and the datagram must be dropped
// silently:
//
//  1. the 20-byte header checksum must be zero.
//  2. version and IHL must both indicate a 20-byte, option-less IPv4
//     header (byte 0 == 0x45).
//  3. the datagram must not be a fragment: both the 13-bit fragment
//     offset and the more-fragments flag must be zero.
//  4. the destination address must equal hostIP.
func Check(buf []byte, hostIP [4]byte) (proto IPProto, ok bool) {
	ifrm, err := NewFrame(buf)
	if err != nil {
		return 0, false
	}
	var v wire.Validator
	ifrm.ValidateSize(&v)
	if v.HasError() {
		return 0, false
	}
	if wire.Checksum(ifrm.buf[:sizeHeader], sizeHeader) != 0 {
		return 0, false
	}
	if ifrm.buf[0] != 0x45 {
		return 0, false
	}
	flagsFrag := ifrm.FlagsAndFragOffset()
	if flagsFrag.FragmentOffset() != 0 || flagsFrag.MoreFragments() {
		return 0, false
	}
	if *ifrm.DestinationAddr() != hostIP {
		return 0, false
	}
	return ifrm.Protocol(), true
}
