package arp

import "github.com/nanostack/udpstack/wire"

// BuildRequest writes a "who-has targetIP" ARP request into arpBuf, which
// must be at least 28 bytes starting at the ARP header (right after the
// Ethernet header). The caller still owns the Ethernet header: set its
// destination to the broadcast address and EtherType to ARP, then push
// 14+28=42 bytes to the MAC driver.
func BuildRequest(arpBuf []byte, ourMAC [6]byte, ourIP, targetIP [4]byte) {
	afrm, _ := NewFrame(arpBuf)
	afrm.SetCanonicalHeader()
	afrm.SetOperation(OpRequest)
	*afrm.SenderMAC() = ourMAC
	*afrm.SenderIP() = ourIP
	*afrm.TargetMAC() = [6]byte{}
	*afrm.TargetIP() = targetIP
}

// BuildGratuitous writes a gratuitous ARP request announcing ourIP, used to
// pre-populate peers' caches and to detect IP conflicts (a reply naming
// ourIP as sender for a request we made about our own address).
func BuildGratuitous(arpBuf []byte, ourMAC [6]byte, ourIP [4]byte) {
	BuildRequest(arpBuf, ourMAC, ourIP, ourIP)
}

// BuildReply writes an ARP reply into arpBuf responding to the request held
// in reqBuf (which may alias a different buffer, e.g. the RX staging area).
// The target fields are copied verbatim from the request's sender fields,
// per RFC 826. It returns the requester's MAC address, which the caller
// uses as the outgoing Ethernet destination.
func BuildReply(arpBuf []byte, reqBuf []byte, ourMAC [6]byte, ourIP [4]byte) (requesterMAC [6]byte) {
	reqfrm, _ := NewFrame(reqBuf)
	requesterMAC = *reqfrm.SenderMAC()
	requesterIP := *reqfrm.SenderIP()

	afrm, _ := NewFrame(arpBuf)
	afrm.SetCanonicalHeader()
	afrm.SetOperation(OpReply)
	*afrm.SenderMAC() = ourMAC
	*afrm.SenderIP() = ourIP
	*afrm.TargetMAC() = requesterMAC
	*afrm.TargetIP() = requesterIP
	return requesterMAC
}

// HandleIn processes a validated inbound ARP frame (reqBuf starting at the
// ARP header) against the cache. It returns needsReply true if the caller
// should now call BuildReply and push the result, and conflict true if an
// incoming reply claimed ourIP as its sender address (an IP conflict
// diagnostic, logged but never written to the cache). Malformed headers and
// unsupported opcodes are dropped silently: both return values are false.
// evicted reports whether the cache update displaced a different existing
// mapping, for callers that want to count LRU evictions.
//
// The caller must hold whatever lock also guards cache and the outgoing ARP
// frame buffer for the duration of this call.
func HandleIn(reqBuf []byte, cache *Cache, ourIP [4]byte, now uint32) (needsReply, conflict, evicted bool) {
	afrm, err := NewFrame(reqBuf)
	if err != nil {
		return false, false, false
	}
	var v wire.Validator
	afrm.ValidateSize(&v)
	if v.HasError() {
		return false, false, false
	}

	switch afrm.Operation() {
	case OpRequest:
		if *afrm.TargetIP() != ourIP {
			return false, false, false // Not asking about us.
		}
		evicted = cache.UpdateFromFrame(*afrm.SenderIP(), *afrm.SenderMAC(), now)
		return true, false, evicted

	case OpReply:
		senderIP := *afrm.SenderIP()
		if senderIP == ourIP {
			return false, true, false // IP conflict: do not update cache.
		}
		evicted = cache.UpdateFromFrame(senderIP, *afrm.SenderMAC(), now)
		return false, false, evicted

	default:
		return false, false, false
	}
}

// Resolve looks targetIP up in cache. If the entry is complete it returns
// the cached MAC and ok=true. Otherwise it returns ok=false and
// needsRequest=true: the caller should build and send an ARP request (the
// cache itself does not send packets, mirroring arp_get_mac in the spec).
// state is the raw lookup state, for callers that want to report it as a
// metric.
func Resolve(cache *Cache, targetIP [4]byte, now uint32) (mac [6]byte, ok bool, needsRequest bool, state State) {
	e, state := cache.Lookup(targetIP, now)
	if state == StateComplete {
		return e.MAC, true, false, state
	}
	return [6]byte{}, false, true, state
}
