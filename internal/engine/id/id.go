// Package id generates and orders the 128-bit identifiers the engine
// assigns to nodes, publishers, subscribers, notifiers, and listeners.
package id

import (
	"bytes"
	"encoding/hex"

	"github.com/google/uuid"
)

// Unique is a 128-bit system-wide unique identifier backed by a UUID.
// It supports value extraction, equality, and a total order so callers
// (e.g. the waitset) can attach and compare participants deterministically.
type Unique [16]byte

// New generates a fresh random Unique.
func New() Unique {
	return Unique(uuid.New())
}

// String renders the identifier in canonical UUID form.
func (u Unique) String() string {
	return uuid.UUID(u).String()
}

// FileToken renders the identifier as a compact hex token suitable for use
// in file names (data/<token>.data, queue/<token>-<token>.data, ...).
func (u Unique) FileToken() string {
	return hex.EncodeToString(u[:])
}

// Value returns the low 64 bits of the identifier, matching the
// fixed-width accessor the public API exposes for each unique id type.
func (u Unique) Value() uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(u[8+i])
	}
	return v
}

// Equals reports whether two identifiers are the same.
func (u Unique) Equals(other Unique) bool {
	return u == other
}

// Less defines a total order over identifiers, used to keep waitset
// attachment iteration and dynamic-table scans deterministic.
func (u Unique) Less(other Unique) bool {
	return bytes.Compare(u[:], other[:]) < 0
}

// IsZero reports whether the identifier was never assigned.
func (u Unique) IsZero() bool {
	return u == Unique{}
}

// Parse decodes a FileToken back into a Unique.
func Parse(token string) (Unique, error) {
	b, err := hex.DecodeString(token)
	if err != nil {
		return Unique{}, err
	}
	var u Unique
	copy(u[:], b)
	return u, nil
}
