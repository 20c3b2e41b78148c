package udp

import "github.com/nanostack/udpstack/wire"

const protoUDP = 17

// Send writes the UDP header and copies payload into buf starting at the
// UDP header offset, then computes the checksum over the pseudo-header,
// the header and the payload. buf must be at least 8+len(payload) bytes;
// its first 8 bytes become the UDP header and the payload is copied into
// the bytes that follow.
//
// The checksum is stored in network byte order, same as every other
// multi-byte field this stack writes to the wire.
func Send(buf []byte, hostIP, destIP [4]byte, srcPort, dstPort uint16, payload []byte) {
	n := len(payload)
	ufrm, _ := NewFrame(buf)
	ufrm.SetSourcePort(srcPort)
	ufrm.SetDestinationPort(dstPort)
	length := uint16(sizeHeader + n)
	ufrm.SetLength(length)
	ufrm.SetCRC(0)

	sum := pseudoHeaderSum(hostIP, destIP, length)
	sum = wire.AddChecksum(sum, buf[0:sizeHeader], sizeHeader)
	sum = wire.AddChecksumAndMove(sum, payload, buf[sizeHeader:sizeHeader+n], n)
	ufrm.SetCRC(wire.FoldChecksum(sum))
}

// Receive validates an inbound UDP datagram in buf (starting at the UDP
// header) against its checksum and against localPort. If the checksum is
// invalid, or the destination port does not match localPort, ok is false
// and the datagram must be dropped silently. Otherwise ok is true and
// payload holds the delivered bytes.
func Receive(buf []byte, srcIP, dstIP [4]byte, localPort uint16) (payload []byte, ok bool) {
	ufrm, err := NewFrame(buf)
	if err != nil {
		return nil, false
	}
	var v wire.Validator
	ufrm.ValidateSize(&v)
	if v.HasError() {
		return nil, false
	}
	length := ufrm.Length()

	sum := pseudoHeaderSum(srcIP, dstIP, length)
	sum = wire.AddChecksum(sum, buf[:length], int(length))
	if wire.FoldChecksum(sum) != 0 {
		return nil, false
	}

	if ufrm.DestinationPort() != localPort {
		return nil, false
	}
	return ufrm.Payload(), true
}

// pseudoHeaderSum accumulates the 12-byte UDP pseudo-header
// {src_ip(4), dst_ip(4), 0x00, proto=17, udp_length(2)} into a fresh
// checksum accumulator.
func pseudoHeaderSum(srcIP, dstIP [4]byte, udpLength uint16) uint32 {
	var pseudo [12]byte
	copy(pseudo[0:4], srcIP[:])
	copy(pseudo[4:8], dstIP[:])
	pseudo[8] = 0
	pseudo[9] = protoUDP
	wire.WriteU16BE(pseudo[10:12], udpLength)
	return wire.AddChecksum(0, pseudo[:], len(pseudo))
}
