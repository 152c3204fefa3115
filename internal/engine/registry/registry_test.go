package registry

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shmbus/shmbus/internal/engine/layout"
)

func newTestRoot(t *testing.T) layout.Root {
	t.Helper()
	root, err := layout.New(t.TempDir(), fmt.Sprintf("registry-test-%d-%d", time.Now().UnixNano(), rand.Int()))
	if err != nil {
		t.Fatalf("failed to build root: %v", err)
	}
	return root
}

func testPubSubConfig(name string) StaticConfig {
	return StaticConfig{
		Name:    name,
		Pattern: PatternPublishSubscribe,
		Payload: TypeDetail{Variant: TypeVariantFixedSize, Name: "int32", Size: 4, Alignment: 4},
		PubSub: &PubSubConfig{
			MaxPublishers:  4,
			MaxSubscribers: 4,
			MaxNodes:       8,
		},
	}
}

func TestCreateThenOpenReturnsSameHash(t *testing.T) {
	root := newTestRoot(t)
	cfg := testPubSubConfig("test/service/a")

	created, err := Create(root, cfg)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer created.Close()

	opened, err := Open(root, cfg.Name, OpenRequirements{
		Pattern: PatternPublishSubscribe,
		Payload: cfg.Payload,
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer opened.Close()

	if opened.Hash != created.Hash {
		t.Fatalf("expected opened hash %q to match created hash %q", opened.Hash, created.Hash)
	}
}

func TestCreateTwiceReturnsAlreadyExists(t *testing.T) {
	root := newTestRoot(t)
	cfg := testPubSubConfig("test/service/b")

	first, err := Create(root, cfg)
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	defer first.Close()

	if _, err := Create(root, cfg); !errors.Is(err, CreateErrorAlreadyExists) {
		t.Fatalf("expected CreateErrorAlreadyExists, got %v", err)
	}
}

func TestOpenMissingServiceReturnsDoesNotExist(t *testing.T) {
	root := newTestRoot(t)
	_, err := Open(root, "never/created", OpenRequirements{
		Pattern: PatternPublishSubscribe,
		Payload: TypeDetail{Name: "int32", Size: 4, Alignment: 4},
	})
	if !errors.Is(err, OpenErrorDoesNotExist) {
		t.Fatalf("expected OpenErrorDoesNotExist, got %v", err)
	}
}

func TestOpenRejectsIncompatibleType(t *testing.T) {
	root := newTestRoot(t)
	cfg := testPubSubConfig("test/service/c")

	created, err := Create(root, cfg)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer created.Close()

	_, err = Open(root, cfg.Name, OpenRequirements{
		Pattern: PatternPublishSubscribe,
		Payload: TypeDetail{Name: "int64", Size: 8, Alignment: 8},
	})
	if !errors.Is(err, OpenErrorIncompatibleTypes) {
		t.Fatalf("expected OpenErrorIncompatibleTypes, got %v", err)
	}
}

func TestOpenRejectsExcessiveRequestedCapacity(t *testing.T) {
	root := newTestRoot(t)
	cfg := testPubSubConfig("test/service/d")

	created, err := Create(root, cfg)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer created.Close()

	_, err = Open(root, cfg.Name, OpenRequirements{
		Pattern:       PatternPublishSubscribe,
		Payload:       cfg.Payload,
		MaxPublishers: cfg.PubSub.MaxPublishers + 1,
	})
	if !errors.Is(err, OpenErrorDoesNotSupportRequestedAmountOfPublishers) {
		t.Fatalf("expected OpenErrorDoesNotSupportRequestedAmountOfPublishers, got %v", err)
	}
}

func TestOpenOrCreateCreatesThenOpensSameService(t *testing.T) {
	root := newTestRoot(t)
	cfg := testPubSubConfig("test/service/e")
	req := OpenRequirements{Pattern: PatternPublishSubscribe, Payload: cfg.Payload}

	first, err := OpenOrCreate(root, cfg.Name, req, cfg)
	if err != nil {
		t.Fatalf("first open-or-create failed: %v", err)
	}
	defer first.Close()

	second, err := OpenOrCreate(root, cfg.Name, req, cfg)
	if err != nil {
		t.Fatalf("second open-or-create failed: %v", err)
	}
	defer second.Close()

	if first.Hash != second.Hash {
		t.Fatalf("expected both calls to resolve to the same hash")
	}
}

func TestAttributeVerifierSatisfies(t *testing.T) {
	attrs := []Attribute{{Key: "owner", Value: "team-a"}, {Key: "env", Value: "prod"}}

	v := AttributeVerifier{RequiredKeys: []string{"owner"}}
	if !v.Satisfies(attrs) {
		t.Fatalf("expected required key present to satisfy")
	}

	v = AttributeVerifier{RequiredPairs: []Attribute{{Key: "env", Value: "staging"}}}
	if v.Satisfies(attrs) {
		t.Fatalf("expected mismatched required pair value to fail")
	}

	v = AttributeVerifier{RequiredKeys: []string{"missing"}}
	if v.Satisfies(attrs) {
		t.Fatalf("expected missing required key to fail")
	}
}

func TestDoesExist(t *testing.T) {
	root := newTestRoot(t)
	cfg := testPubSubConfig("test/service/f")

	if DoesExist(root, cfg.Name, cfg.Pattern, cfg.Payload, nil) {
		t.Fatalf("expected service to not exist before creation")
	}

	created, err := Create(root, cfg)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer created.Close()

	if !DoesExist(root, cfg.Name, cfg.Pattern, cfg.Payload, nil) {
		t.Fatalf("expected service to exist after creation")
	}
}
