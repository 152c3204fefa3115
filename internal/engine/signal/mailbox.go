// Package signal implements the event channel's delivery mechanism
// (spec.md §4.4): a bounded, oldest-overwrite mailbox of pending event
// IDs per listener, plus the OS signalling primitive a listener blocks
// on between polls of that mailbox.
package signal

import (
	"sync/atomic"
	"unsafe"

	"github.com/shmbus/shmbus/internal/engine/shm"
)

// layout: [head uint64][tail uint64][ids...]
const mailboxHeader = 16

// Mailbox is a fixed-capacity, oldest-overwrite ring of event IDs for one
// listener.
type Mailbox struct {
	region   []byte
	capacity uint64
	mask     uint64
}

// Size returns the byte size of a mailbox with the given capacity
// (rounded to a power of two).
func Size(capacity uint64) int {
	return mailboxHeader + int(nextPow2(capacity))*8
}

func nextPow2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// Create reserves and zero-initializes a new mailbox.
func Create(segment *shm.Segment, capacity uint64) (*Mailbox, error) {
	cap2 := nextPow2(capacity)
	region, err := segment.Reserve(mailboxHeader + int(cap2)*8)
	if err != nil {
		return nil, err
	}
	for i := range region {
		region[i] = 0
	}
	return &Mailbox{region: region, capacity: cap2, mask: cap2 - 1}, nil
}

// Open reserves the same region out of an already-populated segment.
func Open(segment *shm.Segment, capacity uint64) (*Mailbox, error) {
	cap2 := nextPow2(capacity)
	region, err := segment.Reserve(mailboxHeader + int(cap2)*8)
	if err != nil {
		return nil, err
	}
	return &Mailbox{region: region, capacity: cap2, mask: cap2 - 1}, nil
}

func (m *Mailbox) headPtr() *uint64 { return (*uint64)(unsafe.Pointer(&m.region[0])) }
func (m *Mailbox) tailPtr() *uint64 { return (*uint64)(unsafe.Pointer(&m.region[8])) }

func (m *Mailbox) slotPtr(i uint64) *uint64 {
	off := mailboxHeader + int(i&m.mask)*8
	return (*uint64)(unsafe.Pointer(&m.region[off]))
}

// Post appends an event id, overwriting the oldest entry if the mailbox
// is full — matching spec.md's "bounded ring, oldest-overwrite".
func (m *Mailbox) Post(eventID uint64) {
	head := atomic.LoadUint64(m.headPtr())
	tail := atomic.LoadUint64(m.tailPtr())
	if head-tail >= m.capacity {
		atomic.AddUint64(m.tailPtr(), 1)
	}
	atomic.StoreUint64(m.slotPtr(head), eventID)
	atomic.StoreUint64(m.headPtr(), head+1)
}

// Drain pops every currently pending event id, oldest first.
func (m *Mailbox) Drain() []uint64 {
	var out []uint64
	for {
		tail := atomic.LoadUint64(m.tailPtr())
		head := atomic.LoadUint64(m.headPtr())
		if tail >= head {
			break
		}
		out = append(out, atomic.LoadUint64(m.slotPtr(tail)))
		atomic.StoreUint64(m.tailPtr(), tail+1)
	}
	return out
}

// TryPop pops a single pending event id, if any.
func (m *Mailbox) TryPop() (uint64, bool) {
	tail := atomic.LoadUint64(m.tailPtr())
	head := atomic.LoadUint64(m.headPtr())
	if tail >= head {
		return 0, false
	}
	id := atomic.LoadUint64(m.slotPtr(tail))
	atomic.StoreUint64(m.tailPtr(), tail+1)
	return id, true
}

// Empty reports whether the mailbox currently has no pending events.
func (m *Mailbox) Empty() bool {
	return atomic.LoadUint64(m.headPtr()) == atomic.LoadUint64(m.tailPtr())
}
