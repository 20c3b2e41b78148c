package arp

import "testing"

func TestRequestReplyRoundTrip(t *testing.T) {
	hostMAC := mac(0x02)
	hostIP := ip(192, 168, 1, 102)
	peerMAC := [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	peerIP := ip(192, 168, 1, 101)

	// Peer builds a request asking "who has hostIP".
	var reqBuf [sizeHeader]byte
	BuildRequest(reqBuf[:], peerMAC, peerIP, hostIP)

	// Host processes it.
	var cache Cache
	cache.Init(0)
	needsReply, conflict, _ := HandleIn(reqBuf[:], &cache, hostIP, 10)
	if conflict {
		t.Fatal("unexpected conflict")
	}
	if !needsReply {
		t.Fatal("expected host to reply")
	}

	e, state := cache.Lookup(peerIP, 10)
	if state != StateComplete || e.MAC != peerMAC {
		t.Fatalf("expected cache to learn peer: state=%v mac=%v", state, e.MAC)
	}

	var replyBuf [sizeHeader]byte
	dst := BuildReply(replyBuf[:], reqBuf[:], hostMAC, hostIP)
	if dst != peerMAC {
		t.Fatalf("reply destination MAC = %v want %v", dst, peerMAC)
	}

	rfrm, err := NewFrame(replyBuf[:])
	if err != nil {
		t.Fatal(err)
	}
	if rfrm.Operation() != OpReply {
		t.Fatal("expected reply opcode")
	}
	if *rfrm.SenderMAC() != hostMAC || *rfrm.SenderIP() != hostIP {
		t.Fatalf("bad sender fields: mac=%v ip=%v", *rfrm.SenderMAC(), *rfrm.SenderIP())
	}
	if *rfrm.TargetMAC() != peerMAC || *rfrm.TargetIP() != peerIP {
		t.Fatalf("bad target fields: mac=%v ip=%v", *rfrm.TargetMAC(), *rfrm.TargetIP())
	}
}

func TestHandleInDetectsIPConflict(t *testing.T) {
	hostIP := ip(192, 168, 1, 102)
	var cache Cache
	cache.Init(0)

	var replyBuf [sizeHeader]byte
	afrm, _ := NewFrame(replyBuf[:])
	afrm.SetCanonicalHeader()
	afrm.SetOperation(OpReply)
	*afrm.SenderMAC() = mac(0xEE)
	*afrm.SenderIP() = hostIP // Claims to be us.
	*afrm.TargetMAC() = mac(0x02)
	*afrm.TargetIP() = hostIP

	needsReply, conflict, _ := HandleIn(replyBuf[:], &cache, hostIP, 5)
	if needsReply {
		t.Fatal("a reply must never trigger a reply")
	}
	if !conflict {
		t.Fatal("expected IP conflict detection")
	}
	if _, state := cache.Lookup(hostIP, 5); state != StateMiss {
		t.Fatal("conflicting entry must not be written to the cache")
	}
}

func TestHandleInDropsMalformedHeader(t *testing.T) {
	var cache Cache
	cache.Init(0)
	var buf [sizeHeader]byte // all zero: not the canonical header.
	needsReply, conflict, _ := HandleIn(buf[:], &cache, ip(1, 1, 1, 1), 0)
	if needsReply || conflict {
		t.Fatal("malformed ARP header must be dropped silently")
	}
}

func TestHandleInDropsUnsupportedOpcode(t *testing.T) {
	var cache Cache
	cache.Init(0)
	var buf [sizeHeader]byte
	afrm, _ := NewFrame(buf[:])
	afrm.SetCanonicalHeader()
	afrm.SetOperation(99)
	needsReply, conflict, _ := HandleIn(buf[:], &cache, ip(1, 1, 1, 1), 0)
	if needsReply || conflict {
		t.Fatal("unsupported opcode must be dropped silently")
	}
}

func TestResolve(t *testing.T) {
	var cache Cache
	cache.Init(0)
	target := ip(10, 0, 0, 5)

	_, ok, needsRequest, state := Resolve(&cache, target, 0)
	if ok || !needsRequest {
		t.Fatal("miss should require a request")
	}
	if state != StateMiss {
		t.Fatalf("state = %v want StateMiss", state)
	}

	cache.UpdateFromFrame(target, mac(3), 0)
	gotMAC, ok, needsRequest, state := Resolve(&cache, target, 0)
	if !ok || needsRequest {
		t.Fatal("complete entry should resolve without another request")
	}
	if gotMAC != mac(3) {
		t.Fatalf("mac=%v want %v", gotMAC, mac(3))
	}
	if state != StateComplete {
		t.Fatalf("state = %v want StateComplete", state)
	}
}

func TestBuildGratuitous(t *testing.T) {
	hostMAC := mac(0x9)
	hostIP := ip(192, 168, 1, 1)
	var buf [sizeHeader]byte
	BuildGratuitous(buf[:], hostMAC, hostIP)
	afrm, _ := NewFrame(buf[:])
	if *afrm.SenderIP() != hostIP || *afrm.TargetIP() != hostIP {
		t.Fatal("gratuitous ARP must target our own IP")
	}
	if afrm.Operation() != OpRequest {
		t.Fatal("gratuitous ARP is a request")
	}
}
