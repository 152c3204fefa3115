package shmbus

import (
	"testing"

	"github.com/shmbus/shmbus/internal/engine/id"
)

func TestUniquePublisherIdEqualsAndLess(t *testing.T) {
	a := UniquePublisherId{inner: id.New()}
	b := UniquePublisherId{inner: id.New()}

	if a.Equals(b) {
		t.Fatalf("expected two freshly generated ids to differ")
	}
	if !a.Equals(a) {
		t.Fatalf("expected an id to equal itself")
	}
	if a.Less(b) == b.Less(a) {
		t.Fatalf("expected Less to be a strict total order between distinct ids")
	}
}

func TestNodeIdStringIsNonEmpty(t *testing.T) {
	n := NodeId{inner: id.New()}
	if n.String() == "" {
		t.Fatalf("expected a non-empty string representation")
	}
}
