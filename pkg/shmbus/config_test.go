package shmbus

import "testing"

func TestDefaultConfigRootIsUsable(t *testing.T) {
	cfg := defaultConfig()
	cfg.RootPath = t.TempDir()

	root, err := cfg.root()
	if err != nil {
		t.Fatalf("expected default config to produce a usable root, got %v", err)
	}
	if root.NodeDir() == "" {
		t.Fatalf("expected a non-empty node directory")
	}
}

func TestWithPublishSubscribeDefaultsOverridesOnlyPubSubFields(t *testing.T) {
	cfg := defaultConfig()
	WithPublishSubscribeDefaults(1, 2, 3, 4, 5, 6, false, DiscardSample)(&cfg)

	if cfg.PubSubMaxPublishers != 1 || cfg.PubSubMaxSubscribers != 2 || cfg.PubSubMaxNodes != 3 {
		t.Fatalf("expected pub-sub fields to be overridden, got %+v", cfg)
	}
	if cfg.EventMaxNotifiers == 0 {
		t.Fatalf("expected event fields to remain at their defaults")
	}
}

func TestWithEventDefaultsOverridesOnlyEventFields(t *testing.T) {
	cfg := defaultConfig()
	WithEventDefaults(10, 20, 30, 40, 0)(&cfg)

	if cfg.EventMaxNotifiers != 10 || cfg.EventMaxListeners != 20 || cfg.EventMaxNodes != 30 || cfg.EventIdMaxValue != 40 {
		t.Fatalf("expected event fields to be overridden, got %+v", cfg)
	}
	if cfg.PubSubMaxPublishers == 0 {
		t.Fatalf("expected pub-sub fields to remain at their defaults")
	}
}

func TestTypeDetailsOfReportsSizeAndAlignment(t *testing.T) {
	type payload struct {
		X int64
		Y int64
	}
	name, size, align := TypeDetailsOf[payload]()
	if name == "" {
		t.Fatalf("expected a non-empty type name")
	}
	if size != 16 {
		t.Fatalf("expected size 16, got %d", size)
	}
	if align != 8 {
		t.Fatalf("expected alignment 8, got %d", align)
	}
}
