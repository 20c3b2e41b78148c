package ethernet

import "github.com/nanostack/udpstack/wire"

// Check inspects the destination address of an Ethernet frame and returns
// the frame's EtherType iff the frame is addressed to us (ourMAC) or to the
// broadcast address; otherwise it returns 0, signaling "not for us, drop".
func Check(frame []byte, ourMAC [6]byte) Type {
	efrm, err := NewFrame(frame)
	if err != nil {
		return 0
	}
	dst := efrm.DestinationHardwareAddr()
	if !wire.MemEqual(dst[:], ourMAC[:], 6) && !efrm.IsBroadcast() {
		return 0
	}
	return efrm.EtherType()
}

// DispatchARP fills the 14-byte Ethernet header of frame addressed to
// targetMAC from ourMAC with EtherType ARP. frame must be at least 14 bytes;
// the caller is responsible for sending exactly the ARP payload length that
// follows (42 bytes total for an ARPv4-over-Ethernet frame).
func DispatchARP(frame []byte, targetMAC, ourMAC [6]byte) {
	efrm, _ := NewFrame(frame)
	efrm.SetDestinationHardwareAddr(targetMAC)
	efrm.SetSourceHardwareAddr(ourMAC)
	efrm.SetEtherType(TypeARP)
}

// DispatchIP fills the 14-byte Ethernet header of an outgoing IPv4 frame and
// returns the total number of bytes to hand to the MAC driver: the 14-byte
// Ethernet header plus the IPv4 total-length field read from bytes 16:18 of
// frame (offset 2 into the IPv4 header that starts right after the Ethernet
// header).
func DispatchIP(frame []byte, targetMAC, ourMAC [6]byte) int {
	efrm, _ := NewFrame(frame)
	efrm.SetDestinationHardwareAddr(targetMAC)
	efrm.SetSourceHardwareAddr(ourMAC)
	efrm.SetEtherType(TypeIPv4)
	totalLength := wire.ReadU16BE(frame[16:18])
	return sizeHeader + int(totalLength)
}
