package stack

import (
	"errors"
	"testing"
	"time"

	"github.com/nanostack/udpstack/arp"
	"github.com/nanostack/udpstack/ethernet"
	"github.com/nanostack/udpstack/hostcfg"
	"github.com/nanostack/udpstack/ipv4"
	"github.com/nanostack/udpstack/udp"
)

// fakeMAC records every frame PutFrame is handed and serves a canned queue
// of frames from GetFrame, one per call.
type fakeMAC struct {
	rx   [][]byte
	rxAt int
	tx   [][]byte
}

func (f *fakeMAC) GetFrame(buf []byte) (int, error) {
	if f.rxAt >= len(f.rx) {
		return 0, errors.New("fakeMAC: no more frames")
	}
	n := copy(buf, f.rx[f.rxAt])
	f.rxAt++
	return n, nil
}

func (f *fakeMAC) PutFrame(buf []byte, n int) error {
	cp := make([]byte, n)
	copy(cp, buf[:n])
	f.tx = append(f.tx, cp)
	return nil
}

// fakeClock returns a fixed tick count, advanced manually between calls.
type fakeClock struct{ ticks uint32 }

func (c *fakeClock) Ticks() uint32 { return c.ticks }

func testConfig() *hostcfg.Config {
	cfg := &hostcfg.Config{}
	cfg.SetMAC(0x02, 0, 0, 0, 0, 0x01)
	cfg.SetIP(192, 168, 1, 10)
	cfg.SetSubnet(255, 255, 255, 0)
	cfg.SetRouter(192, 168, 1, 1)
	cfg.UDPSrcPort = 9000
	cfg.UDPDstPort = 9001
	cfg.SetUDPDestIP(192, 168, 1, 20)
	return cfg
}

func buildARPRequest(targetIP [4]byte, peerMAC [6]byte, peerIP [4]byte) []byte {
	frame := make([]byte, ethernet.HeaderSize+arp.FrameSize)
	arp.BuildRequest(frame[ethernet.HeaderSize:], peerMAC, peerIP, targetIP)
	ethernet.DispatchARP(frame[:ethernet.HeaderSize], ethernet.BroadcastAddr(), peerMAC)
	return frame
}

func buildUDPDatagram(hostIP, srcIP [4]byte, srcMAC, dstMAC [6]byte, srcPort, dstPort uint16, payload []byte) []byte {
	frame := make([]byte, ethernet.HeaderSize+ipv4.HeaderSize+udp.HeaderSize+len(payload))
	ipStart := ethernet.HeaderSize
	udpStart := ipStart + ipv4.HeaderSize
	udp.Send(frame[udpStart:], srcIP, hostIP, srcPort, dstPort, payload)
	udpLength := uint16(udp.HeaderSize + len(payload))
	ipv4.WriteUDPHeader(frame[ipStart:], srcIP, hostIP, udpLength, 1)
	ethernet.DispatchIP(frame, dstMAC, srcMAC)
	return frame
}

func TestDispatchRepliesToARPRequest(t *testing.T) {
	cfg := testConfig()
	peerMAC := [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	peerIP := [4]byte{192, 168, 1, 20}
	frame := buildARPRequest(cfg.HostIP, peerMAC, peerIP)

	mac := &fakeMAC{rx: [][]byte{frame}}
	clk := &fakeClock{ticks: 100}
	e := New(mac, clk, cfg, nil)

	e.dispatch(mac.rx[0])

	if len(mac.tx) != 1 {
		t.Fatalf("expected one ARP reply sent, got %d", len(mac.tx))
	}
	reply := mac.tx[0]
	if len(reply) != ethernet.HeaderSize+arp.FrameSize {
		t.Fatalf("reply length = %d want %d", len(reply), ethernet.HeaderSize+arp.FrameSize)
	}
	efrm, err := ethernet.NewFrame(reply)
	if err != nil {
		t.Fatal(err)
	}
	if *efrm.DestinationHardwareAddr() != peerMAC {
		t.Fatalf("reply destination = %v want %v", *efrm.DestinationHardwareAddr(), peerMAC)
	}
	afrm, err := arp.NewFrame(reply[ethernet.HeaderSize:])
	if err != nil {
		t.Fatal(err)
	}
	if afrm.Operation() != arp.OpReply {
		t.Fatal("expected ARP reply opcode")
	}
	if *afrm.SenderIP() != cfg.HostIP {
		t.Fatalf("reply sender IP = %v want %v", *afrm.SenderIP(), cfg.HostIP)
	}
}

func TestDispatchDeliversUDPPayload(t *testing.T) {
	cfg := testConfig()
	peerMAC := [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	peerIP := [4]byte{192, 168, 1, 20}
	payload := []byte("hello stack")
	frame := buildUDPDatagram(cfg.HostIP, peerIP, peerMAC, cfg.HostMAC, cfg.UDPDstPort, cfg.UDPSrcPort, payload)

	var got []byte
	mac := &fakeMAC{rx: [][]byte{frame}}
	clk := &fakeClock{ticks: 1}
	e := New(mac, clk, cfg, func(p []byte) {
		got = append([]byte(nil), p...)
	})

	e.dispatch(mac.rx[0])

	if string(got) != string(payload) {
		t.Fatalf("delivered payload = %q want %q", got, payload)
	}
	if len(mac.tx) != 0 {
		t.Fatalf("UDP delivery must not transmit anything, got %d frames", len(mac.tx))
	}
}

func TestDispatchDropsFrameNotAddressedToUs(t *testing.T) {
	cfg := testConfig()
	otherMAC := [6]byte{0x02, 0, 0, 0, 0, 0x99}
	frame := buildARPRequest(cfg.HostIP, [6]byte{0xAA}, [4]byte{10, 0, 0, 1})
	copy(frame[0:6], otherMAC[:]) // destination is neither us nor broadcast.

	mac := &fakeMAC{rx: [][]byte{frame}}
	clk := &fakeClock{ticks: 1}
	e := New(mac, clk, cfg, nil)
	e.dispatch(mac.rx[0])

	if len(mac.tx) != 0 {
		t.Fatalf("expected frame to be dropped silently, got %d replies", len(mac.tx))
	}
}

func TestSendUDPDirectDelivery(t *testing.T) {
	cfg := testConfig() // UDPDestIP 192.168.1.20 shares the /24 with HostIP.
	peerMAC := [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}

	mac := &fakeMAC{}
	clk := &fakeClock{ticks: 1}
	e := New(mac, clk, cfg, nil)
	e.arpCache.UpdateFromFrame(cfg.UDPDestIP, peerMAC, clk.Ticks())

	if err := e.SendUDP([]byte("ping")); err != nil {
		t.Fatal(err)
	}
	if len(mac.tx) != 1 {
		t.Fatalf("expected one frame sent, got %d", len(mac.tx))
	}
	efrm, err := ethernet.NewFrame(mac.tx[0])
	if err != nil {
		t.Fatal(err)
	}
	if *efrm.DestinationHardwareAddr() != peerMAC {
		t.Fatalf("destination MAC = %v want %v (direct delivery)", *efrm.DestinationHardwareAddr(), peerMAC)
	}
}

func TestSendUDPRoutesOffSubnetViaRouter(t *testing.T) {
	cfg := testConfig()
	cfg.SetUDPDestIP(10, 0, 0, 50) // off-subnet.
	routerMAC := [6]byte{0x02, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE}

	mac := &fakeMAC{}
	clk := &fakeClock{ticks: 1}
	e := New(mac, clk, cfg, nil)
	e.arpCache.UpdateFromFrame(cfg.RouterIP, routerMAC, clk.Ticks())

	if err := e.SendUDP([]byte("ping")); err != nil {
		t.Fatal(err)
	}
	efrm, err := ethernet.NewFrame(mac.tx[0])
	if err != nil {
		t.Fatal(err)
	}
	if *efrm.DestinationHardwareAddr() != routerMAC {
		t.Fatalf("destination MAC = %v want router MAC %v", *efrm.DestinationHardwareAddr(), routerMAC)
	}
}

func TestSendUDPTimesOutWhenARPNeverResolves(t *testing.T) {
	cfg := testConfig()
	backoff = [2]time.Duration{time.Millisecond, time.Millisecond}
	defer func() { backoff = [2]time.Duration{500 * time.Millisecond, 1500 * time.Millisecond} }()

	mac := &fakeMAC{}
	clk := &fakeClock{ticks: 1}
	e := New(mac, clk, cfg, nil)

	err := e.SendUDP([]byte("ping"))
	if !errors.Is(err, ErrARPTimeout) {
		t.Fatalf("err = %v want ErrARPTimeout", err)
	}
	if len(mac.tx) != 2 {
		t.Fatalf("expected 2 ARP request attempts, got %d frames sent", len(mac.tx))
	}
}
