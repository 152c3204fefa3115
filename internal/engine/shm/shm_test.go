package shm

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestCreateThenOpenShareBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment")

	creator, err := Create(path, 64)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer creator.Close()

	region, err := creator.Reserve(8)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	copy(region, []byte("shmbus!!"))

	opener, err := Open(path, 64)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer opener.Close()

	if !bytes.Equal(opener.Bytes()[:8], []byte("shmbus!!")) {
		t.Fatalf("expected opener to observe bytes written by creator, got %q", opener.Bytes()[:8])
	}
}

func TestReserveExhaustsSegment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment")
	seg, err := Create(path, 16)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer seg.Close()

	if _, err := seg.Reserve(10); err != nil {
		t.Fatalf("first reserve failed: %v", err)
	}
	if _, err := seg.Reserve(10); err == nil {
		t.Fatalf("expected second reserve to fail, segment only has 6 bytes left")
	}
}

func TestOpenRejectsUndersizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment")
	seg, err := Create(path, 8)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	seg.Close()

	if _, err := Open(path, 64); err == nil {
		t.Fatalf("expected Open to reject a file smaller than the requested size")
	}
}

func TestRemoveDeletesBackingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment")
	seg, err := Create(path, 16)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := seg.Remove(); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := Open(path, 16); err == nil {
		t.Fatalf("expected Open to fail after Remove deleted the backing file")
	}
}

func TestWritesAreVisibleAcrossTwoMappingsOfSameSegment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment")
	a, err := Create(path, 32)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer a.Close()

	b, err := Open(path, 32)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer b.Close()

	aRegion, _ := a.Reserve(4)
	bRegion, _ := b.Reserve(4)

	copy(aRegion, []byte{1, 2, 3, 4})
	if !bytes.Equal(bRegion, []byte{1, 2, 3, 4}) {
		t.Fatalf("expected second mapping to observe write made through the first, got %v", bRegion)
	}
}
