package shmbus

import "testing"

func TestAttributeSpecifierDefineAccumulatesInOrder(t *testing.T) {
	spec := NewAttributeSpecifier().Define("owner", "team-a").Define("owner", "team-b")
	attrs := spec.toRegistry()
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Value != "team-a" || attrs[1].Value != "team-b" {
		t.Fatalf("expected definition order to be preserved, got %+v", attrs)
	}
}

func TestAttributeSetGetReturnsAllValuesForKey(t *testing.T) {
	set := newAttributeSet(NewAttributeSpecifier().Define("tag", "a").Define("tag", "b").Define("other", "c").toRegistry())

	if got := set.Get("tag"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected [a b], got %v", got)
	}
	if got := set.Get("missing"); got != nil {
		t.Fatalf("expected nil for a missing key, got %v", got)
	}
	if set.Len() != 3 {
		t.Fatalf("expected Len 3, got %d", set.Len())
	}
}

func TestAttributeVerifierNilIsAlwaysSatisfied(t *testing.T) {
	var v *AttributeVerifier
	reg := v.toRegistry()
	if !reg.Satisfies(nil) {
		t.Fatalf("expected a nil verifier to be satisfied by anything")
	}
}

func TestAttributeVerifierRequireChecksKeyAndValue(t *testing.T) {
	v := NewAttributeVerifier().Require("env", "prod")
	reg := v.toRegistry()

	attrs := NewAttributeSpecifier().Define("env", "prod").toRegistry()
	if !reg.Satisfies(attrs) {
		t.Fatalf("expected matching key/value to satisfy the verifier")
	}

	attrs = NewAttributeSpecifier().Define("env", "staging").toRegistry()
	if reg.Satisfies(attrs) {
		t.Fatalf("expected mismatched value to fail the verifier")
	}
}
