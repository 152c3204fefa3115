// Package pool implements the per-publisher sample-slot pool (spec.md §3
// "Sample slot", §4.2): a fixed array of slots in the publisher's data
// segment, each with an atomic reference count, walking the
// Free → Loaned → InFlight → Free state machine as the slot is loaned,
// sent, and released by its last reader.
package pool

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/shmbus/shmbus/internal/engine/id"
	"github.com/shmbus/shmbus/internal/engine/shm"
)

// State is a slot's position in the Free → Loaned → InFlight → Free
// lifecycle.
type State uint32

const (
	StateFree State = iota
	StateLoaned
	StateInFlight
)

// header is the fixed portion of every slot: state, ref_count, and the
// origin publisher id, followed by the payload region and (if
// configured) the user-header region.
const headerSize = 4 + 4 + 16

// Pool is a fixed-capacity array of sample slots carved out of a
// publisher's data segment.
type Pool struct {
	region         []byte
	slotCount      int
	slotSize       int
	payloadSize    int
	userHeaderSize int
	publisherID    id.Unique
}

// layoutSize returns the total bytes one slot occupies.
func layoutSize(payloadSize, userHeaderSize int) int {
	return headerSize + payloadSize + userHeaderSize
}

// Size returns the byte size of a pool with the given shape, for callers
// sizing the backing segment before Create/Open.
func Size(slotCount, payloadSize, userHeaderSize int) int {
	return slotCount * layoutSize(payloadSize, userHeaderSize)
}

// Create reserves and zero-initializes a new pool (every slot Free),
// owned by publisherID. Called when a publisher port is created.
func Create(segment *shm.Segment, slotCount, payloadSize, userHeaderSize int, publisherID id.Unique) (*Pool, error) {
	slotSize := layoutSize(payloadSize, userHeaderSize)
	region, err := segment.Reserve(slotCount * slotSize)
	if err != nil {
		return nil, fmt.Errorf("pool: reserve %d slots: %w", slotCount, err)
	}
	for i := range region {
		region[i] = 0
	}
	return &Pool{region: region, slotCount: slotCount, slotSize: slotSize, payloadSize: payloadSize, userHeaderSize: userHeaderSize, publisherID: publisherID}, nil
}

// Open reserves the same region out of an already-populated segment, for
// a subscriber mapping a publisher's data segment read-only to borrow
// samples from it.
func Open(segment *shm.Segment, slotCount, payloadSize, userHeaderSize int) (*Pool, error) {
	slotSize := layoutSize(payloadSize, userHeaderSize)
	region, err := segment.Reserve(slotCount * slotSize)
	if err != nil {
		return nil, fmt.Errorf("pool: reserve %d slots: %w", slotCount, err)
	}
	return &Pool{region: region, slotCount: slotCount, slotSize: slotSize, payloadSize: payloadSize, userHeaderSize: userHeaderSize}, nil
}

func (p *Pool) stateWord(i int) *uint32 {
	return (*uint32)(unsafe.Pointer(&p.region[i*p.slotSize]))
}

func (p *Pool) refWord(i int) *uint32 {
	return (*uint32)(unsafe.Pointer(&p.region[i*p.slotSize+4]))
}

// Loan finds a free slot, marks it Loaned with an initial reference of 1
// (the publisher's own write reference), and returns its index. Returns
// ErrOutOfMemory if every slot is currently loaned or in flight.
func (p *Pool) Loan() (int, error) {
	for i := 0; i < p.slotCount; i++ {
		if atomic.CompareAndSwapUint32(p.stateWord(i), uint32(StateFree), uint32(StateLoaned)) {
			atomic.StoreUint32(p.refWord(i), 1)
			base := i * p.slotSize
			copy(p.region[base+8:base+24], p.publisherID[:])
			return i, nil
		}
	}
	return -1, ErrOutOfMemory
}

// Payload returns the writable payload region of slot i.
func (p *Pool) Payload(i int) []byte {
	base := i*p.slotSize + headerSize
	return p.region[base : base+p.payloadSize]
}

// UserHeader returns the writable user-header region of slot i, or nil if
// the service has no user-header type configured.
func (p *Pool) UserHeader(i int) []byte {
	if p.userHeaderSize == 0 {
		return nil
	}
	base := i*p.slotSize + headerSize + p.payloadSize
	return p.region[base : base+p.userHeaderSize]
}

// OriginPublisherID returns the publisher id stamped into slot i at Loan time.
func (p *Pool) OriginPublisherID(i int) id.Unique {
	base := i * p.slotSize
	var out id.Unique
	copy(out[:], p.region[base+8:base+24])
	return out
}

// Retain increments a slot's reference count, used once per subscriber a
// send successfully enqueues to (spec.md §4.2 send algorithm step 2), and
// once per history replay entry.
func (p *Pool) Retain(i int) {
	atomic.AddUint32(p.refWord(i), 1)
	atomic.CompareAndSwapUint32(p.stateWord(i), uint32(StateLoaned), uint32(StateInFlight))
}

// Release decrements a slot's reference count. When it reaches zero the
// slot returns to Free and may be loaned again (spec.md §4.2 send
// algorithm step 5, and subscriber release on sample drop).
func (p *Pool) Release(i int) {
	if atomic.AddUint32(p.refWord(i), ^uint32(0)) == 0 {
		atomic.StoreUint32(p.stateWord(i), uint32(StateFree))
	}
}

// RefCount returns a slot's current reference count, for invariant checks
// and tests.
func (p *Pool) RefCount(i int) uint32 {
	return atomic.LoadUint32(p.refWord(i))
}

// State returns a slot's current lifecycle state.
func (p *Pool) State(i int) State {
	return State(atomic.LoadUint32(p.stateWord(i)))
}

// SlotCount returns the pool's fixed capacity.
func (p *Pool) SlotCount() int { return p.slotCount }
