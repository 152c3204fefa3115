// Package dynconfig implements the dynamic participant table: a
// fixed-capacity array of slots living in a shared-memory segment, one
// row per live publisher, subscriber, notifier, listener, or node
// (spec.md §3 "Dynamic state"). Slots are claimed with a CAS on a state
// word so unrelated processes can allocate rows without a lock.
package dynconfig

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/shmbus/shmbus/internal/engine/id"
	"github.com/shmbus/shmbus/internal/engine/shm"
)

// Kind tags what a dynamic-table row represents.
type Kind uint32

const (
	KindFree Kind = iota
	KindNode
	KindPublisher
	KindSubscriber
	KindNotifier
	KindListener
)

const (
	stateFree    uint32 = 0
	stateClaimed uint32 = 1
)

// rowSize is the byte layout of one slot: state(4) + kind(4) + portID(16) + nodeID(16).
const rowSize = 4 + 4 + 16 + 16

// Table is a fixed-capacity dynamic participant table mapped over a
// shared-memory region.
type Table struct {
	region   []byte
	capacity int
}

// Create reserves a dynamic table of the given capacity out of segment,
// zero-initialized (every slot free). Called by the winner of the
// service creation lock (spec.md §4.1 create step 3).
func Create(segment *shm.Segment, capacity int) (*Table, error) {
	region, err := segment.Reserve(capacity * rowSize)
	if err != nil {
		return nil, fmt.Errorf("dynconfig: reserve %d rows: %w", capacity, err)
	}
	for i := range region {
		region[i] = 0
	}
	return &Table{region: region, capacity: capacity}, nil
}

// Open reserves the same region out of an already-populated segment, for
// an opener joining an existing service. Capacity must match what the
// creator reserved; callers get it from the persisted static config.
func Open(segment *shm.Segment, capacity int) (*Table, error) {
	region, err := segment.Reserve(capacity * rowSize)
	if err != nil {
		return nil, fmt.Errorf("dynconfig: reserve %d rows: %w", capacity, err)
	}
	return &Table{region: region, capacity: capacity}, nil
}

func (t *Table) stateWord(i int) *uint32 {
	return (*uint32)(unsafe.Pointer(&t.region[i*rowSize]))
}

// Claim finds a free slot and atomically marks it claimed for (kind, portID,
// nodeID), returning its index. Returns ErrFull if every slot is occupied.
func (t *Table) Claim(kind Kind, portID, nodeID id.Unique) (int, error) {
	for i := 0; i < t.capacity; i++ {
		word := t.stateWord(i)
		if atomic.CompareAndSwapUint32(word, stateFree, stateClaimed) {
			base := i * rowSize
			putUint32(t.region[base+4:base+8], uint32(kind))
			copy(t.region[base+8:base+24], portID[:])
			copy(t.region[base+24:base+40], nodeID[:])
			return i, nil
		}
	}
	return -1, ErrFull
}

// Release marks a slot free again. Called on graceful port/node drop and
// by the liveness monitor after reclaiming a dead participant.
func (t *Table) Release(index int) {
	base := index * rowSize
	for i := base; i < base+rowSize; i++ {
		t.region[i] = 0
	}
	atomic.StoreUint32(t.stateWord(index), stateFree)
}

// Row is a snapshot of one dynamic-table slot.
type Row struct {
	Index  int
	Kind   Kind
	PortID id.Unique
	NodeID id.Unique
}

// Rows returns a snapshot of every currently claimed slot, used by the
// liveness monitor's scan, by registry.Open's node count, and by the
// ports when they connect to each other.
func (t *Table) Rows() []Row {
	var rows []Row
	for i := 0; i < t.capacity; i++ {
		if atomic.LoadUint32(t.stateWord(i)) != stateClaimed {
			continue
		}
		base := i * rowSize
		kind := Kind(getUint32(t.region[base+4 : base+8]))
		var portID, nodeID id.Unique
		copy(portID[:], t.region[base+8:base+24])
		copy(nodeID[:], t.region[base+24:base+40])
		rows = append(rows, Row{Index: i, Kind: kind, PortID: portID, NodeID: nodeID})
	}
	return rows
}

// Capacity returns the table's fixed row count.
func (t *Table) Capacity() int { return t.capacity }

// Size returns the byte size of a table with the given capacity, for
// callers sizing the backing segment before Create/Open.
func Size(capacity int) int { return capacity * rowSize }

func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
