package arp

// CacheSize is the number of resolvable (IP, MAC) pairs the cache holds
// at once. A miss when the cache is full evicts the least-recently-used
// entry, never grows the table: the stack performs no heap allocation on
// this path.
const CacheSize = 8

// StaleAfterMS is the age, in millisecond ticks, past which a complete
// cache entry is treated as partial again and must be re-resolved. 20
// minutes, matching RFC 1122's recommendation for ARP cache timeout.
const StaleAfterMS = 20 * 60 * 1000

// State classifies the result of a Cache.Lookup.
type State uint8

const (
	// StateMiss means the IP address has no entry in the cache; the
	// returned slot is the least-recently-used one, ready to be reused.
	StateMiss State = iota
	// StatePartial means a request was sent for this IP but no reply has
	// arrived yet, or the previous reply is older than StaleAfterMS.
	StatePartial
	// StateComplete means the slot holds an unexpired (IP, MAC) mapping.
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateMiss:
		return "miss"
	case StatePartial:
		return "partial"
	case StateComplete:
		return "complete"
	default:
		return "invalid"
	}
}

// Entry is a single ARP cache record: an IPv4 address, its resolved MAC
// (all-zero while resolution is pending), and the tick at which it was
// last inserted or refreshed.
type Entry struct {
	IP        [4]byte
	MAC       [6]byte
	Timestamp uint32
}

func (e *Entry) isZeroMAC() bool {
	return e.MAC == [6]byte{}
}

// Cache is a fixed 8-slot ARP table with LRU replacement and age-based
// expiry. The zero value is not ready to use; call Init first.
//
// Every method requires the caller to hold whatever mutex also guards the
// outgoing ARP frame buffer (see the engine that embeds Cache) — Cache
// itself performs no locking, same as [internal/lrucache] in the wider
// package family this was grounded on.
type Cache struct {
	entries [CacheSize]Entry
}

// Init zeros the cache and stamps every slot's timestamp to now, so that
// none of the zeroed (and therefore "partial") slots look artificially
// stale relative to a RX task that just started.
func (c *Cache) Init(now uint32) {
	*c = Cache{}
	for i := range c.entries {
		c.entries[i].Timestamp = now
	}
}

// Lookup scans the cache for ip. If found, it returns a pointer to that
// slot and StatePartial or StateComplete depending on the MAC and age.
// If not found, it returns the least-recently-used slot (by unsigned
// now-timestamp difference, maximized) and StateMiss — ready for the
// caller to overwrite via UpdateFromFrame.
func (c *Cache) Lookup(ip [4]byte, now uint32) (*Entry, State) {
	for i := range c.entries {
		e := &c.entries[i]
		if e.IP == ip {
			if e.isZeroMAC() || now-e.Timestamp > StaleAfterMS {
				return e, StatePartial
			}
			return e, StateComplete
		}
	}
	lru := &c.entries[0]
	lruAge := now - lru.Timestamp
	for i := 1; i < len(c.entries); i++ {
		e := &c.entries[i]
		age := now - e.Timestamp
		if age > lruAge {
			lru, lruAge = e, age
		}
	}
	return lru, StateMiss
}

// UpdateFromFrame records an authoritative (senderIP, senderMAC) pair
// learned from a parsed inbound ARP frame. It looks senderIP up first: on
// a miss the LRU slot's IP is (re)written; on a hit the existing slot is
// reused. Either way, the MAC and timestamp are always refreshed, which is
// what keeps an actively-used entry from ever looking like the LRU slot.
// It reports evicted true when the LRU slot it reused held a different,
// non-zero IP address (whether or not its MAC was resolved), i.e. an
// existing entry was displaced rather than an empty slot being filled.
func (c *Cache) UpdateFromFrame(senderIP [4]byte, senderMAC [6]byte, now uint32) (evicted bool) {
	e, state := c.Lookup(senderIP, now)
	if state == StateMiss {
		evicted = e.IP != [4]byte{} && e.IP != senderIP
		e.IP = senderIP
	}
	e.MAC = senderMAC
	e.Timestamp = now
	return evicted
}

// Entries returns the backing array for read-only inspection (debug
// printers, tests). Callers must still hold the engine's mutex.
func (c *Cache) Entries() *[CacheSize]Entry { return &c.entries }
