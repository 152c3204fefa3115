package history

import (
	"testing"

	"github.com/shmbus/shmbus/internal/engine/queue"
)

func TestZeroCapacityDisablesHistory(t *testing.T) {
	r := New(0)
	if _, evicted := r.Record(queue.Element{SlotIndex: 1}); evicted {
		t.Fatalf("expected Record to never evict with history disabled")
	}
	if r.Replay() != nil {
		t.Fatalf("expected Replay to return nil with history disabled")
	}
	if r.Len() != 0 {
		t.Fatalf("expected Len 0 with history disabled")
	}
}

func TestReplayReturnsOldestFirst(t *testing.T) {
	r := New(3)
	for i := uint32(0); i < 3; i++ {
		r.Record(queue.Element{SlotIndex: i})
	}

	got := r.Replay()
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, el := range got {
		if el.SlotIndex != uint32(i) {
			t.Errorf("entry %d: expected slot %d, got %d", i, i, el.SlotIndex)
		}
	}
}

func TestRecordEvictsOldestOnceFull(t *testing.T) {
	r := New(2)
	r.Record(queue.Element{SlotIndex: 0})
	r.Record(queue.Element{SlotIndex: 1})

	evictedSlot, evicted := r.Record(queue.Element{SlotIndex: 2})
	if !evicted || evictedSlot != 0 {
		t.Fatalf("expected slot 0 to be evicted, got slot=%d evicted=%v", evictedSlot, evicted)
	}

	got := r.Replay()
	want := []uint32{1, 2}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].SlotIndex != want[i] {
			t.Errorf("entry %d: expected slot %d, got %d", i, want[i], got[i].SlotIndex)
		}
	}
}

func TestLenTracksRetainedEntries(t *testing.T) {
	r := New(4)
	if r.Len() != 0 {
		t.Fatalf("expected empty ring to have Len 0")
	}
	r.Record(queue.Element{SlotIndex: 1})
	r.Record(queue.Element{SlotIndex: 2})
	if r.Len() != 2 {
		t.Fatalf("expected Len 2, got %d", r.Len())
	}
}
