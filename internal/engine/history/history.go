// Package history implements a publisher's replay ring: the last N sent
// slot indices, used to backfill a newly connected subscriber's delivery
// queue (spec.md §3 "History buffer", §4.2 "New-subscriber join").
//
// Unlike the pool and delivery queue, history is read only by the
// publisher that owns it, so it lives in process memory rather than a
// shared segment.
package history

import "github.com/shmbus/shmbus/internal/engine/queue"

// Ring is a fixed-capacity FIFO of the most recently sent elements.
type Ring struct {
	entries  []queue.Element
	capacity int
	next     int
	size     int
}

// New returns a Ring retaining up to capacity entries. capacity 0 means
// history is disabled; Record and Replay are then no-ops.
func New(capacity int) *Ring {
	if capacity <= 0 {
		return &Ring{}
	}
	return &Ring{entries: make([]queue.Element, capacity), capacity: capacity}
}

// Record appends el, evicting the oldest entry once the ring is full. It
// returns the evicted element's slot index, if one was evicted, so the
// caller can release that slot's history-held reference.
func (r *Ring) Record(el queue.Element) (evictedSlot uint32, evicted bool) {
	if r.capacity == 0 {
		return 0, false
	}
	if r.size == r.capacity {
		old := r.entries[r.next]
		evictedSlot, evicted = old.SlotIndex, true
	} else {
		r.size++
	}
	r.entries[r.next] = el
	r.next = (r.next + 1) % r.capacity
	return evictedSlot, evicted
}

// Replay returns, oldest first, every entry currently retained, for a
// newly connected subscriber's backfill.
func (r *Ring) Replay() []queue.Element {
	if r.size == 0 {
		return nil
	}
	out := make([]queue.Element, 0, r.size)
	start := (r.next - r.size + r.capacity) % r.capacity
	for i := 0; i < r.size; i++ {
		out = append(out, r.entries[(start+i)%r.capacity])
	}
	return out
}

// Len returns the number of entries currently retained.
func (r *Ring) Len() int { return r.size }

// Enabled reports whether this ring retains entries at all.
func (r *Ring) Enabled() bool { return r.capacity > 0 }
