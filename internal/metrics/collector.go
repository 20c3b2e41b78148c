// Package metrics exposes optional Prometheus counters for the stack
// engine. None of these counters affect protocol behavior; they exist
// purely for operational visibility into an otherwise silent, fire-and-
// forget UDP/IP stack.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "udpstack"

// Collector holds every Prometheus metric this stack exposes.
type Collector struct {
	// FramesDropped counts frames discarded at any layer, labeled by the
	// reason ("eth_not_for_us", "ip_check", "ip_unknown_protocol",
	// "udp_check").
	FramesDropped *prometheus.CounterVec

	// ARPCacheLookups counts cache lookups, labeled by the resulting state
	// ("miss", "partial", "complete").
	ARPCacheLookups *prometheus.CounterVec

	// ARPCacheEvictions counts LRU evictions from the 8-slot ARP cache.
	ARPCacheEvictions prometheus.Counter

	// UDPDatagramsSent counts datagrams successfully handed to the MAC
	// driver by the engine's SendUDP via ip_forward.
	UDPDatagramsSent prometheus.Counter

	// UDPDatagramsReceived counts datagrams delivered to the application
	// hook after passing udp.Receive.
	UDPDatagramsReceived prometheus.Counter

	// ARPResolutionTimeouts counts ip_enquire_arp calls that exhausted
	// both backoff attempts without resolving a MAC address.
	ARPResolutionTimeouts prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics against reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Frames silently dropped, labeled by reason.",
		}, []string{"reason"}),
		ARPCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arp_cache_lookups_total",
			Help:      "ARP cache lookups, labeled by resulting state.",
		}, []string{"state"}),
		ARPCacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arp_cache_evictions_total",
			Help:      "LRU evictions from the 8-slot ARP cache.",
		}),
		UDPDatagramsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "udp_datagrams_sent_total",
			Help:      "UDP datagrams handed to the MAC driver.",
		}),
		UDPDatagramsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "udp_datagrams_received_total",
			Help:      "UDP datagrams delivered to the application hook.",
		}),
		ARPResolutionTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arp_resolution_timeouts_total",
			Help:      "ip_enquire_arp calls that exhausted both backoff attempts.",
		}),
	}
	reg.MustRegister(
		c.FramesDropped,
		c.ARPCacheLookups,
		c.ARPCacheEvictions,
		c.UDPDatagramsSent,
		c.UDPDatagramsReceived,
		c.ARPResolutionTimeouts,
	)
	return c
}
