package shmbus

import (
	"context"
	"testing"
	"time"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := GlobalConfig()
	cfg.RootPath = t.TempDir()
	return cfg
}

func TestNodeBuilderCreateAssignsDefaultName(t *testing.T) {
	node, err := NewNodeBuilder().WithConfig(testConfig(t)).Create()
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer node.Close()

	if node.Name().String() == "" {
		t.Fatalf("expected a default name derived from the node id")
	}
	if node.ID().String() == "" {
		t.Fatalf("expected a non-empty node id")
	}
}

func TestNodeBuilderCreateHonorsExplicitName(t *testing.T) {
	name, err := NewNodeName("worker")
	if err != nil {
		t.Fatalf("name validation failed: %v", err)
	}
	node, err := NewNodeBuilder().Name(name).WithConfig(testConfig(t)).Create()
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer node.Close()

	if node.Name().String() != "worker" {
		t.Fatalf("expected name %q, got %q", "worker", node.Name().String())
	}
}

func TestListNodesReportsAliveThenDeadAfterClose(t *testing.T) {
	cfg := testConfig(t)
	node, err := NewNodeBuilder().WithConfig(cfg).Create()
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	nodes, err := ListNodes(cfg)
	if err != nil {
		t.Fatalf("list nodes failed: %v", err)
	}
	if len(nodes) != 1 || nodes[0].State != NodeStateAlive {
		t.Fatalf("expected exactly one alive node, got %+v", nodes)
	}

	node.Close()

	nodes, err = ListNodes(cfg)
	if err != nil {
		t.Fatalf("list nodes failed: %v", err)
	}
	if len(nodes) != 1 || nodes[0].State != NodeStateDead {
		t.Fatalf("expected exactly one dead node after close, got %+v", nodes)
	}
}

func TestNodeWaitReturnsAfterCycleTime(t *testing.T) {
	node, err := NewNodeBuilder().WithConfig(testConfig(t)).Create()
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer node.Close()

	start := time.Now()
	if err := node.Wait(30 * time.Millisecond); err != nil {
		t.Fatalf("expected Wait to return nil absent a termination signal, got %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatalf("expected Wait to actually sleep roughly the requested cycle time")
	}
}

func TestNodeWaitContextReturnsOnCancellation(t *testing.T) {
	node, err := NewNodeBuilder().WithConfig(testConfig(t)).Create()
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer node.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := node.WaitContext(ctx, time.Second); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNodeWaitAfterCloseReturnsClosedError(t *testing.T) {
	node, err := NewNodeBuilder().WithConfig(testConfig(t)).Create()
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	node.Close()

	if err := node.Wait(time.Millisecond); err == nil {
		t.Fatalf("expected Wait on a closed node to return an error")
	}
}

func TestRemoveStaleResourcesReapsDeadNodeWithoutAnyService(t *testing.T) {
	cfg := testConfig(t)
	node, err := NewNodeBuilder().WithConfig(cfg).Create()
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	node.Close()

	reclaimed, err := RemoveStaleResources(cfg)
	if err != nil {
		t.Fatalf("remove stale resources failed: %v", err)
	}
	if reclaimed < 1 {
		t.Fatalf("expected at least one stale resource reclaimed, got %d", reclaimed)
	}

	nodes, err := ListNodes(cfg)
	if err != nil {
		t.Fatalf("list nodes failed: %v", err)
	}
	if len(nodes) != 0 {
		t.Fatalf("expected the dead node's lock file to be removed, got %+v", nodes)
	}
}
