package queue

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/shmbus/shmbus/internal/engine/shm"
)

func newTestQueue(t *testing.T, capacity uint64, policy Policy) *Queue {
	t.Helper()
	path := filepath.Join(t.TempDir(), fmt.Sprintf("queue-%d-%d", time.Now().UnixNano(), rand.Int()))
	segment, err := shm.Create(path, Size(capacity))
	if err != nil {
		t.Fatalf("failed to create segment: %v", err)
	}
	t.Cleanup(func() { segment.Close() })

	q, err := Create(segment, capacity, policy)
	if err != nil {
		t.Fatalf("failed to create queue: %v", err)
	}
	return q
}

func TestQueuePushPopFIFO(t *testing.T) {
	q := newTestQueue(t, 4, PolicyDiscard)

	for i := uint32(0); i < 3; i++ {
		if _, err := q.Push(Element{SlotIndex: i, Sequence: i}); err != nil {
			t.Fatalf("push %d failed: %v", i, err)
		}
	}
	if q.Len() != 3 {
		t.Fatalf("expected length 3, got %d", q.Len())
	}

	for i := uint32(0); i < 3; i++ {
		el, ok := q.Pop()
		if !ok {
			t.Fatalf("expected element %d to be present", i)
		}
		if el.SlotIndex != i || el.Sequence != i {
			t.Errorf("expected element {%d %d}, got %+v", i, i, el)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected queue to be empty")
	}
}

func TestQueuePolicyDiscardRejectsWhenFull(t *testing.T) {
	q := newTestQueue(t, 2, PolicyDiscard)

	for i := uint32(0); i < 2; i++ {
		if _, err := q.Push(Element{SlotIndex: i}); err != nil {
			t.Fatalf("push %d failed: %v", i, err)
		}
	}
	if _, err := q.Push(Element{SlotIndex: 99}); !errors.Is(err, ErrFull) {
		t.Fatalf("expected ErrFull on a full discard-policy queue, got %v", err)
	}
}

func TestQueuePolicyBlockRejectsWhenFull(t *testing.T) {
	q := newTestQueue(t, 2, PolicyBlock)

	for i := uint32(0); i < 2; i++ {
		if _, err := q.Push(Element{SlotIndex: i}); err != nil {
			t.Fatalf("push %d failed: %v", i, err)
		}
	}
	if _, err := q.Push(Element{SlotIndex: 99}); !errors.Is(err, ErrFull) {
		t.Fatalf("expected ErrFull on a full block-policy queue, got %v", err)
	}
}

func TestQueuePolicySafeOverflowEvictsOldest(t *testing.T) {
	q := newTestQueue(t, 2, PolicySafeOverflow)

	if _, err := q.Push(Element{SlotIndex: 0, Sequence: 0}); err != nil {
		t.Fatalf("push 0 failed: %v", err)
	}
	if _, err := q.Push(Element{SlotIndex: 1, Sequence: 1}); err != nil {
		t.Fatalf("push 1 failed: %v", err)
	}

	evicted, err := q.Push(Element{SlotIndex: 2, Sequence: 2})
	if err != nil {
		t.Fatalf("expected safe-overflow push to succeed, got %v", err)
	}
	if evicted == nil || evicted.SlotIndex != 0 {
		t.Fatalf("expected the oldest element (slot 0) to be evicted, got %+v", evicted)
	}

	el, ok := q.Pop()
	if !ok || el.SlotIndex != 1 {
		t.Fatalf("expected slot 1 to survive, got %+v ok=%v", el, ok)
	}
}

func TestQueueCapacityRoundsToPowerOfTwo(t *testing.T) {
	q := newTestQueue(t, 5, PolicyDiscard)
	if q.Capacity() != 8 {
		t.Fatalf("expected capacity to round up to 8, got %d", q.Capacity())
	}
}
