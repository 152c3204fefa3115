// Package lockfile provides flock-based advisory locks used for the
// service creation lock, per-node liveness lock, and per-port liveness
// tokens. A held exclusive lock is the engine's only notion of "alive":
// a process that dies (including via SIGKILL) has its locks released by
// the kernel, so a successful TryExclusive acquisition from another
// process means the lock's owner is gone.
package lockfile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Lock wraps an open file descriptor holding an advisory flock.
type Lock struct {
	f        *os.File
	path     string
	exclusive bool
}

// CreateExclusive creates (or opens) the file at path and immediately takes
// a non-blocking exclusive lock on it. It returns ErrHeld if another
// process already holds the lock, which callers use to detect an
// in-progress creation by another instance (spec §4.1 "IsBeingCreatedByAnotherInstance").
func CreateExclusive(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("lockfile: open %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrHeld
		}
		return nil, fmt.Errorf("lockfile: flock %s: %w", path, err)
	}
	return &Lock{f: f, path: path, exclusive: true}, nil
}

// TryExclusive attempts to acquire an exclusive lock on an existing file
// without creating it. It is the liveness probe: success means the file's
// previous owner released the lock (or never held one), failure with
// ErrHeld means a live process still owns it.
func TryExclusive(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("lockfile: open %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrHeld
		}
		return nil, fmt.Errorf("lockfile: flock %s: %w", path, err)
	}
	return &Lock{f: f, path: path, exclusive: true}, nil
}

// HoldShared opens (creating if necessary) and takes a non-blocking shared
// lock, used by ports and nodes to hold a liveness token for as long as
// the process is alive. Many readers may hold a shared lock concurrently;
// an exclusive TryExclusive against the same file fails while any are held.
func HoldShared(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("lockfile: open %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_SH|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("lockfile: flock %s: %w", path, err)
	}
	return &Lock{f: f, path: path, exclusive: false}, nil
}

// Path returns the filesystem path backing this lock.
func (l *Lock) Path() string { return l.path }

// Release unlocks and closes the underlying file descriptor. It does not
// remove the file: reclaiming a stale lock file is the liveness monitor's
// job, not the lock holder's.
func (l *Lock) Release() error {
	if l.f == nil {
		return nil
	}
	unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	err := l.f.Close()
	l.f = nil
	return err
}

// Remove releases the lock and removes the backing file. Used by the
// liveness monitor once it has confirmed a lock's owner is dead.
func (l *Lock) Remove() error {
	if err := l.Release(); err != nil {
		return err
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
