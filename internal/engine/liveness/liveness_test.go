package liveness

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/shmbus/shmbus/internal/engine/dynconfig"
	"github.com/shmbus/shmbus/internal/engine/id"
	"github.com/shmbus/shmbus/internal/engine/layout"
	"github.com/shmbus/shmbus/internal/engine/lockfile"
	"github.com/shmbus/shmbus/internal/engine/shm"
)

type recordingHandler struct {
	deadPublishers []dynconfig.Row
	deadNodes      []dynconfig.Row
}

func (h *recordingHandler) OnDeadPublisher(row dynconfig.Row)  { h.deadPublishers = append(h.deadPublishers, row) }
func (h *recordingHandler) OnDeadSubscriber(row dynconfig.Row) {}
func (h *recordingHandler) OnDeadNotifier(row dynconfig.Row)   {}
func (h *recordingHandler) OnDeadListener(row dynconfig.Row)   {}
func (h *recordingHandler) OnDeadNode(row dynconfig.Row)       { h.deadNodes = append(h.deadNodes, row) }

func newTestRoot(t *testing.T) layout.Root {
	t.Helper()
	root, err := layout.New(t.TempDir(), fmt.Sprintf("liveness-test-%d-%d", time.Now().UnixNano(), rand.Int()))
	if err != nil {
		t.Fatalf("failed to build root: %v", err)
	}
	return root
}

func newTestTable(t *testing.T, capacity int) *dynconfig.Table {
	t.Helper()
	path := filepath.Join(t.TempDir(), fmt.Sprintf("table-%d-%d", time.Now().UnixNano(), rand.Int()))
	segment, err := shm.Create(path, dynconfig.Size(capacity))
	if err != nil {
		t.Fatalf("failed to create segment: %v", err)
	}
	t.Cleanup(func() { segment.Close() })

	table, err := dynconfig.Create(segment, capacity)
	if err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	return table
}

func TestScanReclaimsRowWhoseNodeNeverHeldALock(t *testing.T) {
	root := newTestRoot(t)
	table := newTestTable(t, 4)
	handler := &recordingHandler{}

	nodeID := id.New()
	if _, err := table.Claim(dynconfig.KindPublisher, id.New(), nodeID); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	reclaimed, err := Scan(root, table, handler)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("expected 1 reclaimed row, got %d", reclaimed)
	}
	if len(handler.deadPublishers) != 1 {
		t.Fatalf("expected OnDeadPublisher to be called once, got %d", len(handler.deadPublishers))
	}
	if !Empty(table) {
		t.Fatalf("expected table to be empty after reclaiming its only row")
	}
}

func TestScanLeavesRowAloneWhileNodeIsAlive(t *testing.T) {
	root := newTestRoot(t)
	table := newTestTable(t, 4)
	handler := &recordingHandler{}

	nodeID := id.New()
	held, err := lockfile.CreateExclusive(root.ParticipantLock(nodeID.FileToken()))
	if err != nil {
		t.Fatalf("failed to acquire node liveness lock: %v", err)
	}
	defer held.Release()

	if _, err := table.Claim(dynconfig.KindSubscriber, id.New(), nodeID); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	reclaimed, err := Scan(root, table, handler)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if reclaimed != 0 {
		t.Fatalf("expected no rows reclaimed while the node is alive, got %d", reclaimed)
	}
	if Empty(table) {
		t.Fatalf("expected the live row to remain claimed")
	}
}

func TestScanReclaimsRowAfterNodeReleasesLock(t *testing.T) {
	root := newTestRoot(t)
	table := newTestTable(t, 4)
	handler := &recordingHandler{}

	nodeID := id.New()
	held, err := lockfile.CreateExclusive(root.ParticipantLock(nodeID.FileToken()))
	if err != nil {
		t.Fatalf("failed to acquire node liveness lock: %v", err)
	}
	if _, err := table.Claim(dynconfig.KindNode, id.New(), nodeID); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	held.Release()

	reclaimed, err := Scan(root, table, handler)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("expected the row to be reclaimed once its node's lock is released, got %d", reclaimed)
	}
	if len(handler.deadNodes) != 1 {
		t.Fatalf("expected OnDeadNode to be called once, got %d", len(handler.deadNodes))
	}
}
