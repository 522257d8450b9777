package gateway

import "sync"

// ringEntry holds a single broadcast envelope.
type ringEntry struct {
	Seq  int64
	Data []byte // pre-built envelope JSON
}

// EventRing is a fixed-size circular buffer of recent envelopes, keyed by
// the hub's global sequence number. Reconnecting clients backfill from it.
type EventRing struct {
	mu   sync.RWMutex
	buf  []ringEntry
	cap  int
	pos  int // next write position
	full bool
}

// NewEventRing creates a ring with the given capacity.
func NewEventRing(capacity int) *EventRing {
	if capacity <= 0 {
		capacity = 512
	}
	return &EventRing{
		buf: make([]ringEntry, capacity),
		cap: capacity,
	}
}

// Push appends an envelope, overwriting the oldest entry when full.
func (r *EventRing) Push(seq int64, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)

	r.buf[r.pos] = ringEntry{Seq: seq, Data: cp}
	r.pos = (r.pos + 1) % r.cap
	if r.pos == 0 {
		r.full = true
	}
}

// Range returns entries with seq in [from, to], oldest first.
func (r *EventRing) Range(from, to int64) []ringEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ringEntry
	n := r.len()
	for i := 0; i < n; i++ {
		e := r.buf[r.index(i)]
		if e.Seq >= from && e.Seq <= to {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries held.
func (r *EventRing) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.len()
}

func (r *EventRing) len() int {
	if r.full {
		return r.cap
	}
	return r.pos
}

// index converts a logical index (0 = oldest) to a buffer index.
func (r *EventRing) index(logical int) int {
	if r.full {
		return (r.pos + logical) % r.cap
	}
	return logical
}
