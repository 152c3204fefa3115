package dynconfig

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/shmbus/shmbus/internal/engine/id"
	"github.com/shmbus/shmbus/internal/engine/shm"
)

func newTestTable(t *testing.T, capacity int) *Table {
	t.Helper()
	path := filepath.Join(t.TempDir(), fmt.Sprintf("dynconfig-%d-%d", time.Now().UnixNano(), rand.Int()))
	segment, err := shm.Create(path, Size(capacity))
	if err != nil {
		t.Fatalf("failed to create segment: %v", err)
	}
	t.Cleanup(func() { segment.Close() })

	table, err := Create(segment, capacity)
	if err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	return table
}

func TestClaimStampsRowFields(t *testing.T) {
	table := newTestTable(t, 4)
	portID, nodeID := id.New(), id.New()

	index, err := table.Claim(KindPublisher, portID, nodeID)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	rows := table.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected exactly one claimed row, got %d", len(rows))
	}
	row := rows[0]
	if row.Index != index {
		t.Errorf("expected row index %d, got %d", index, row.Index)
	}
	if row.Kind != KindPublisher {
		t.Errorf("expected kind Publisher, got %v", row.Kind)
	}
	if !row.PortID.Equals(portID) || !row.NodeID.Equals(nodeID) {
		t.Errorf("expected stamped port/node ids to round-trip")
	}
}

func TestClaimFailsWhenTableFull(t *testing.T) {
	table := newTestTable(t, 2)
	for i := 0; i < 2; i++ {
		if _, err := table.Claim(KindNode, id.New(), id.New()); err != nil {
			t.Fatalf("claim %d failed: %v", i, err)
		}
	}
	if _, err := table.Claim(KindNode, id.New(), id.New()); !errors.Is(err, ErrFull) {
		t.Fatalf("expected ErrFull once every row is claimed, got %v", err)
	}
}

func TestReleaseFreesRowForReuse(t *testing.T) {
	table := newTestTable(t, 1)

	index, err := table.Claim(KindListener, id.New(), id.New())
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	table.Release(index)

	if rows := table.Rows(); len(rows) != 0 {
		t.Fatalf("expected no claimed rows after release, got %d", len(rows))
	}
	if _, err := table.Claim(KindListener, id.New(), id.New()); err != nil {
		t.Fatalf("expected the freed row to be reclaimable, got %v", err)
	}
}
