package id

import "testing"

func TestNewProducesDistinctIds(t *testing.T) {
	a := New()
	b := New()
	if a.Equals(b) {
		t.Fatalf("expected two freshly generated ids to differ")
	}
}

func TestFileTokenRoundTrips(t *testing.T) {
	original := New()
	token := original.FileToken()

	parsed, err := Parse(token)
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if !original.Equals(parsed) {
		t.Fatalf("expected parsed id to equal the original, got %s vs %s", parsed, original)
	}
}

func TestLessIsATotalOrder(t *testing.T) {
	a, b := New(), New()
	if a.Equals(b) {
		t.Skip("collision generating two distinct ids, skipping")
	}
	if a.Less(b) == b.Less(a) {
		t.Fatalf("expected exactly one of a.Less(b) / b.Less(a) to hold")
	}
	if a.Less(a) {
		t.Fatalf("expected an id to never be Less than itself")
	}
}

func TestIsZero(t *testing.T) {
	var zero Unique
	if !zero.IsZero() {
		t.Fatalf("expected the zero value to report IsZero")
	}
	if New().IsZero() {
		t.Fatalf("expected a freshly generated id to not be zero")
	}
}
