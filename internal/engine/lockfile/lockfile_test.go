package lockfile

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestCreateExclusiveThenTryExclusiveFailsWhileHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")

	held, err := CreateExclusive(path)
	if err != nil {
		t.Fatalf("failed to create lock: %v", err)
	}
	defer held.Release()

	if _, err := TryExclusive(path); !errors.Is(err, ErrHeld) {
		t.Fatalf("expected ErrHeld while the creator still holds the lock, got %v", err)
	}
}

func TestReleaseLetsAnotherProcessAcquire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")

	held, err := CreateExclusive(path)
	if err != nil {
		t.Fatalf("failed to create lock: %v", err)
	}
	if err := held.Release(); err != nil {
		t.Fatalf("failed to release lock: %v", err)
	}

	probe, err := TryExclusive(path)
	if err != nil {
		t.Fatalf("expected TryExclusive to succeed after release, got %v", err)
	}
	probe.Release()
}

func TestTryExclusiveOnMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.lock")
	if _, err := TryExclusive(path); !errors.Is(err, ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestHoldSharedBlocksExclusiveProbe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")

	shared, err := HoldShared(path)
	if err != nil {
		t.Fatalf("failed to acquire shared lock: %v", err)
	}
	defer shared.Release()

	if _, err := TryExclusive(path); !errors.Is(err, ErrHeld) {
		t.Fatalf("expected ErrHeld while a shared lock is outstanding, got %v", err)
	}
}

func TestRemoveDeletesBackingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")

	held, err := CreateExclusive(path)
	if err != nil {
		t.Fatalf("failed to create lock: %v", err)
	}
	if err := held.Remove(); err != nil {
		t.Fatalf("failed to remove lock: %v", err)
	}

	if _, err := TryExclusive(path); !errors.Is(err, ErrNotExist) {
		t.Fatalf("expected the lock file to be gone after Remove, got %v", err)
	}
}
