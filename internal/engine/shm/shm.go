// Package shm implements the shared-segment allocator: named,
// file-backed memory regions mapped with mmap so that unrelated
// processes can read and write the same bytes without copying.
//
// A Segment is a fixed-size region created once by whichever participant
// gets there first and opened read-write by everyone after. Callers carve
// it up with a simple bump allocator (Reserve); the dynamic participant
// table, sample-slot pools, and delivery queues each reserve one region
// out of a segment at construction time and never grow afterward, which
// is what lets every subsequent opener compute the same offsets.
package shm

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Segment is an mmap'd region backed by a regular file under the engine's
// root path. It is not itself safe for concurrent Reserve calls; callers
// reserve all regions during construction from a single goroutine.
type Segment struct {
	path   string
	data   []byte
	offset int
}

// Create creates a new segment file of the given size (truncating any
// stale leftover) and maps it read-write. Used by the side of a
// create/open handshake that won the creation lock.
func Create(path string, size int) (*Segment, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("shm: create %s: %w", path, err)
	}
	defer f.Close()

	if err := f.Truncate(int64(size)); err != nil {
		return nil, fmt.Errorf("shm: truncate %s: %w", path, err)
	}

	return mapFile(f, path, size)
}

// Open maps an existing segment file read-write. Used by the side of a
// create/open handshake that finds the segment already present.
func Open(path string, size int) (*Segment, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("shm: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("shm: stat %s: %w", path, err)
	}
	if int(info.Size()) < size {
		return nil, fmt.Errorf("shm: %s is %d bytes, want at least %d", path, info.Size(), size)
	}

	return mapFile(f, path, size)
}

// CreateOrOpen creates path if no one has yet, or opens it if someone has.
// Used where either side of a connection may discover the other first
// (e.g. a publisher and subscriber racing to establish their delivery
// queue), so the loser opens what the winner created rather than failing.
func CreateOrOpen(path string, size int) (seg *Segment, created bool, err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if !os.IsExist(err) {
			return nil, false, fmt.Errorf("shm: create-or-open %s: %w", path, err)
		}
		seg, err = Open(path, size)
		return seg, false, err
	}
	defer f.Close()

	if err := f.Truncate(int64(size)); err != nil {
		return nil, false, fmt.Errorf("shm: truncate %s: %w", path, err)
	}
	seg, err = mapFile(f, path, size)
	return seg, true, err
}

func mapFile(f *os.File, path string, size int) (*Segment, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("shm: mmap %s: %w", path, err)
	}
	return &Segment{path: path, data: data}, nil
}

// Path returns the filesystem path backing this segment.
func (s *Segment) Path() string { return s.path }

// Len returns the total mapped size in bytes.
func (s *Segment) Len() int { return len(s.data) }

// Reserve carves out the next n bytes of the segment and returns a slice
// aliasing the mapped memory. Regions must be reserved in the same order
// by every participant so offsets agree across processes.
func (s *Segment) Reserve(n int) ([]byte, error) {
	if s.offset+n > len(s.data) {
		return nil, fmt.Errorf("shm: %s exhausted: requested %d bytes at offset %d of %d", s.path, n, s.offset, len(s.data))
	}
	region := s.data[s.offset : s.offset+n : s.offset+n]
	s.offset += n
	return region, nil
}

// Bytes returns the full mapped region, for callers (e.g. wire) that
// manage their own layout instead of using Reserve.
func (s *Segment) Bytes() []byte { return s.data }

// Close unmaps the segment. It does not remove the backing file;
// ownership-driven removal is handled by the registry and liveness
// monitor once every participant has detached.
func (s *Segment) Close() error {
	if s.data == nil {
		return nil
	}
	err := unix.Munmap(s.data)
	s.data = nil
	return err
}

// Remove unmaps and deletes the backing file.
func (s *Segment) Remove() error {
	if err := s.Close(); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
