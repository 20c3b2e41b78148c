// Package stack is the composition root: it owns the three fixed 1518-byte
// frame buffers, the ARP cache, the mutex guarding both, and the receive
// task loop. The wire-format packages (ethernet, arp, ipv4, udp) never
// touch a MAC driver or a mutex themselves; Engine is where their pure
// functions meet the concurrency and I/O model described for this stack.
package stack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nanostack/udpstack/arp"
	"github.com/nanostack/udpstack/ethernet"
	"github.com/nanostack/udpstack/hostcfg"
	"github.com/nanostack/udpstack/internal/logattr"
	"github.com/nanostack/udpstack/internal/metrics"
	"github.com/nanostack/udpstack/ipv4"
	"github.com/nanostack/udpstack/udp"
)

const maxFrame = 1518

// MACDriver is the contract this engine requires of the Ethernet MAC,
// whether that is real hardware or a TAP device standing in for it.
type MACDriver interface {
	// GetFrame blocks until one complete Ethernet frame (no CRC) is
	// available and copies it into buf, returning the number of bytes
	// written.
	GetFrame(buf []byte) (int, error)
	// PutFrame hands off buf[:n] for transmission. The driver is
	// responsible for appending the Ethernet CRC.
	PutFrame(buf []byte, n int) error
}

// Clock is the tick source used for ARP cache aging and datagram IDs.
type Clock interface {
	Ticks() uint32
}

// Engine runs the receive task and serves SendUDP calls from application
// goroutines. Construct with [New]; start the receive loop with [Engine.Run].
type Engine struct {
	mac     MACDriver
	clk     Clock
	cfg     *hostcfg.Config
	onUDP   func(payload []byte)
	log     *slog.Logger
	metrics *metrics.Collector

	mu       sync.Mutex // guards arpCache and arpFrame, per the spec's arp_mutex.
	arpCache arp.Cache
	arpFrame [maxFrame]byte

	udpMu    sync.Mutex // serializes concurrent SendUDP callers over udpFrame.
	udpFrame [maxFrame]byte

	inFrame [maxFrame]byte // owned exclusively by the receive task.
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

// WithMetrics attaches a metrics collector. Without this option, metrics
// calls are skipped entirely.
func WithMetrics(m *metrics.Collector) Option { return func(e *Engine) { e.metrics = m } }

// New constructs an Engine. onUDP is called with the payload of every
// inbound UDP datagram whose destination port matches cfg.UDPSrcPort; it
// must not retain the slice past the call, since it aliases inFrame.
func New(mac MACDriver, clk Clock, cfg *hostcfg.Config, onUDP func(payload []byte), opts ...Option) *Engine {
	e := &Engine{
		mac:   mac,
		clk:   clk,
		cfg:   cfg,
		onUDP: onUDP,
		log:   slog.Default(),
	}
	e.arpCache.Init(clk.Ticks())
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the receive task: it blocks fetching one frame at a time
// from mac and dispatches it to the ARP or IP layer, fully processing each
// frame before fetching the next. Run returns when ctx is canceled or the
// driver returns an error.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := e.mac.GetFrame(e.inFrame[:])
		if err != nil {
			return fmt.Errorf("stack: receive: %w", err)
		}
		e.dispatch(e.inFrame[:n])
	}
}

func (e *Engine) dispatch(frame []byte) {
	switch ethernet.Check(frame, e.cfg.HostMAC) {
	case ethernet.TypeARP:
		e.mu.Lock()
		e.handleARPIn(frame[ethernet.HeaderSize:])
		e.mu.Unlock()
	case ethernet.TypeIPv4:
		e.handleIPIn(frame[ethernet.HeaderSize:])
	default:
		e.countDrop("eth_not_for_us")
	}
}

// handleARPIn runs with e.mu held.
func (e *Engine) handleARPIn(reqBuf []byte) {
	needsReply, conflict, evicted := arp.HandleIn(reqBuf, &e.arpCache, e.cfg.HostIP, e.clk.Ticks())
	if evicted && e.metrics != nil {
		e.metrics.ARPCacheEvictions.Inc()
	}
	if conflict {
		e.log.Warn("arp: IP conflict detected", logattr.IP4("peer_claims_our_ip", e.cfg.HostIP))
		return
	}
	if !needsReply {
		return
	}
	requesterMAC := arp.BuildReply(e.arpFrame[ethernet.HeaderSize:], reqBuf, e.cfg.HostMAC, e.cfg.HostIP)
	ethernet.DispatchARP(e.arpFrame[:ethernet.HeaderSize], requesterMAC, e.cfg.HostMAC)
	if err := e.mac.PutFrame(e.arpFrame[:ethernet.HeaderSize+arp.FrameSize], ethernet.HeaderSize+arp.FrameSize); err != nil {
		e.log.Error("arp: send reply failed", slog.String("error", err.Error()), logattr.MAC("to", requesterMAC))
	}
}

func (e *Engine) handleIPIn(ipBuf []byte) {
	proto, ok := ipv4.Check(ipBuf, e.cfg.HostIP)
	if !ok {
		e.countDrop("ip_check")
		return
	}
	if proto != ipv4.IPProtoUDP {
		e.countDrop("ip_unknown_protocol")
		return
	}
	srcIP := *ipv4FrameSource(ipBuf)
	dstIP := *ipv4FrameDest(ipBuf)
	payload, ok := udp.Receive(ipBuf[ipv4.HeaderSize:], srcIP, dstIP, e.cfg.UDPSrcPort)
	if !ok {
		e.countDrop("udp_check")
		return
	}
	if e.metrics != nil {
		e.metrics.UDPDatagramsReceived.Inc()
	}
	if e.onUDP != nil {
		e.onUDP(payload)
	}
}

func ipv4FrameSource(buf []byte) *[4]byte {
	ifrm, _ := ipv4.NewFrame(buf)
	return ifrm.SourceAddr()
}

func ipv4FrameDest(buf []byte) *[4]byte {
	ifrm, _ := ipv4.NewFrame(buf)
	return ifrm.DestinationAddr()
}

func (e *Engine) countDrop(reason string) {
	e.log.Debug("frame dropped", slog.String("reason", reason))
	if e.metrics != nil {
		e.metrics.FramesDropped.WithLabelValues(reason).Inc()
	}
}

func (e *Engine) countLookup(state arp.State) {
	if e.metrics != nil {
		e.metrics.ARPCacheLookups.WithLabelValues(state.String()).Inc()
	}
}

// ErrARPTimeout is returned by SendUDP when the destination (or the
// default router, for off-subnet datagrams) does not resolve within the
// ~2 second ARP resolution budget.
var ErrARPTimeout = errors.New("stack: ARP resolution timed out")

// SendUDP sends payload as a UDP datagram to cfg.UDPDestIP:cfg.UDPDstPort
// from cfg.UDPSrcPort. Concurrent callers are serialized; this stack
// assumes the caller does not need true parallelism for independent
// datagrams, matching the "at most one outstanding udp_send" assumption.
func (e *Engine) SendUDP(payload []byte) error {
	e.udpMu.Lock()
	defer e.udpMu.Unlock()

	destIP := e.cfg.UDPDestIP
	udp.Send(e.udpFrame[ethernet.HeaderSize+ipv4.HeaderSize:], e.cfg.HostIP, destIP, e.cfg.UDPSrcPort, e.cfg.UDPDstPort, payload)
	udpLength := uint16(udp.HeaderSize + len(payload))
	ipv4.WriteUDPHeader(e.udpFrame[ethernet.HeaderSize:], e.cfg.HostIP, destIP, udpLength, uint16(e.clk.Ticks()))

	return e.forward(destIP)
}

// forward implements ip_forward: direct delivery if destIP shares our
// subnet, otherwise indirect delivery via the default router.
func (e *Engine) forward(destIP [4]byte) error {
	target := destIP
	if !ipv4.OnSameSubnet(destIP, e.cfg.HostIP, e.cfg.SubnetMask) {
		target = e.cfg.RouterIP
	}

	mac, ok := e.resolveMAC(target)
	if !ok {
		if e.metrics != nil {
			e.metrics.ARPResolutionTimeouts.Inc()
		}
		return ErrARPTimeout
	}

	n := ethernet.DispatchIP(e.udpFrame[:], mac, e.cfg.HostMAC)
	if err := e.mac.PutFrame(e.udpFrame[:n], n); err != nil {
		return fmt.Errorf("stack: send: %w", err)
	}
	if e.metrics != nil {
		e.metrics.UDPDatagramsSent.Inc()
	}
	return nil
}

// backoff holds the two wait windows ip_enquire_arp sleeps for between ARP
// request attempts, totaling at most ~2000ms across both attempts.
var backoff = [2]time.Duration{500 * time.Millisecond, 1500 * time.Millisecond}

// resolveMAC implements ip_enquire_arp: it resolves target's MAC address
// from the ARP cache, sending an ARP request and retrying with backoff if
// the entry is not yet complete. The mutex is always released before
// sleeping, never held across it.
func (e *Engine) resolveMAC(target [4]byte) (mac [6]byte, ok bool) {
	e.mu.Lock()
	mac, ok, needsRequest, state := arp.Resolve(&e.arpCache, target, e.clk.Ticks())
	e.mu.Unlock()
	e.countLookup(state)
	if ok {
		return mac, true
	}

	for _, wait := range backoff {
		if needsRequest {
			e.sendARPRequest(target)
		}
		time.Sleep(wait)

		e.mu.Lock()
		mac, ok, needsRequest, state = arp.Resolve(&e.arpCache, target, e.clk.Ticks())
		e.mu.Unlock()
		e.countLookup(state)
		if ok {
			return mac, true
		}
	}
	return [6]byte{}, false
}

func (e *Engine) sendARPRequest(target [4]byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	arp.BuildRequest(e.arpFrame[ethernet.HeaderSize:], e.cfg.HostMAC, e.cfg.HostIP, target)
	ethernet.DispatchARP(e.arpFrame[:ethernet.HeaderSize], ethernet.BroadcastAddr(), e.cfg.HostMAC)

	if err := e.mac.PutFrame(e.arpFrame[:ethernet.HeaderSize+arp.FrameSize], ethernet.HeaderSize+arp.FrameSize); err != nil {
		e.log.Error("arp: send request failed", slog.String("error", err.Error()), logattr.IP4("target", target))
	}
}
