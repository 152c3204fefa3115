package shmbus

import "testing"

func TestNewServiceNameAcceptsOrdinaryName(t *testing.T) {
	name, err := NewServiceName("sensors/temperature")
	if err != nil {
		t.Fatalf("expected a valid name to be accepted, got %v", err)
	}
	if name.String() != "sensors/temperature" {
		t.Fatalf("expected String to round-trip, got %q", name.String())
	}
}

func TestNewServiceNameRejectsEmpty(t *testing.T) {
	if _, err := NewServiceName(""); err != SemanticStringErrorInvalidContent {
		t.Fatalf("expected SemanticStringErrorInvalidContent, got %v", err)
	}
}

func TestNewServiceNameRejectsLeadingDot(t *testing.T) {
	if _, err := NewServiceName(".hidden"); err != SemanticStringErrorInvalidContent {
		t.Fatalf("expected SemanticStringErrorInvalidContent, got %v", err)
	}
}

func TestNewServiceNameRejectsTooLong(t *testing.T) {
	long := make([]byte, maxSemanticStringLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := NewServiceName(string(long)); err != SemanticStringErrorExceedsMaximumLength {
		t.Fatalf("expected SemanticStringErrorExceedsMaximumLength, got %v", err)
	}
}

func TestNewNodeNameRejectsSlash(t *testing.T) {
	if _, err := NewNodeName("a/b"); err != SemanticStringErrorInvalidContent {
		t.Fatalf("expected SemanticStringErrorInvalidContent for embedded slash, got %v", err)
	}
}

func TestNewNodeNameAcceptsOrdinaryName(t *testing.T) {
	name, err := NewNodeName("worker-1")
	if err != nil {
		t.Fatalf("expected a valid node name to be accepted, got %v", err)
	}
	if name.String() != "worker-1" {
		t.Fatalf("expected String to round-trip, got %q", name.String())
	}
}
