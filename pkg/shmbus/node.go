// Copyright (c) 2024 Contributors to the Eclipse Foundation
//
// See the NOTICE file(s) distributed with this work for additional
// information regarding copyright ownership.
//
// This program and the accompanying materials are made available under the
// terms of the Apache Software License 2.0 which is available at
// https://www.apache.org/licenses/LICENSE-2.0, or the MIT license
// which is available at https://opensource.org/licenses/MIT.
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package shmbus

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shmbus/shmbus/internal/engine/dynconfig"
	"github.com/shmbus/shmbus/internal/engine/id"
	"github.com/shmbus/shmbus/internal/engine/layout"
	"github.com/shmbus/shmbus/internal/engine/liveness"
	"github.com/shmbus/shmbus/internal/engine/lockfile"
	"github.com/shmbus/shmbus/internal/engine/registry"
	"github.com/shmbus/shmbus/internal/engine/shm"
	"github.com/shmbus/shmbus/internal/engine/signal"
	"github.com/shmbus/shmbus/internal/engine/wire"
)

var nodeLog = logrus.WithField("component", "node")

// NodeState reports whether a discovered node is still alive.
type NodeState int

const (
	NodeStateAlive NodeState = iota
	NodeStateDead
)

func (s NodeState) String() string {
	if s == NodeStateAlive {
		return "alive"
	}
	return "dead"
}

// Node is a process's handle into a shmbus deployment: it owns a liveness
// lock other participants use to detect this process's death, and is the
// entry point for building services and ports (spec.md §4.6).
type Node struct {
	cfg    Config
	root   layout.Root
	id     NodeId
	name   NodeName
	lock   *lockfile.Lock
	closed bool
}

type nodeInfo struct {
	Name string `json:"name"`
}

// NodeBuilder configures and creates a Node.
type NodeBuilder struct {
	cfg     Config
	hasName bool
	name    NodeName
}

// NewNodeBuilder returns a NodeBuilder seeded with GlobalConfig's defaults.
func NewNodeBuilder() *NodeBuilder {
	return &NodeBuilder{cfg: GlobalConfig()}
}

// Name sets the node's display name, used by ListNodes and shmbusctl.
func (b *NodeBuilder) Name(name NodeName) *NodeBuilder {
	b.name = name
	b.hasName = true
	return b
}

// WithConfig overrides the builder's config, e.g. to point at a
// non-default root path or prefix for this node only.
func (b *NodeBuilder) WithConfig(cfg Config) *NodeBuilder {
	b.cfg = cfg
	return b
}

// Create builds the node: creates its root directory tree if needed and
// takes out its liveness lock.
func (b *NodeBuilder) Create() (*Node, error) {
	root, err := b.cfg.root()
	if err != nil {
		return nil, WrapError("node.create", NodeCreationErrorInternalError)
	}

	nodeID := id.New()
	lockPath := root.NodeLock(nodeID.FileToken())
	lock, err := lockfile.HoldShared(lockPath)
	if err != nil {
		return nil, WrapError("node.create", NodeCreationErrorInsufficientPermissions)
	}

	name := b.name
	if !b.hasName {
		name = NodeName{value: nodeID.String()}
	}
	data, err := wire.Encode("node", nodeInfo{Name: name.String()})
	if err == nil {
		_ = os.WriteFile(root.NodeInfo(nodeID.FileToken()), data, 0644)
	}

	nodeLog.WithField("node_id", nodeID.String()).WithField("name", name.String()).Info("node created")
	return &Node{cfg: b.cfg, root: root, id: NodeId{inner: nodeID}, name: name, lock: lock}, nil
}

// ID returns the node's unique id.
func (n *Node) ID() NodeId { return n.id }

// Name returns the node's display name.
func (n *Node) Name() NodeName { return n.name }

// ServiceBuilder starts building or opening a service scoped to this node.
func (n *Node) ServiceBuilder(name ServiceName) *ServiceBuilder {
	return &ServiceBuilder{node: n, name: name}
}

// Wait sleeps up to cycleTime while polling the process's termination
// signal source, returning early with NodeWaitErrorTerminationRequest or
// NodeWaitErrorInterrupt on SIGTERM/SIGINT (spec.md §4.5). Intended as
// the sleep primitive of a caller's own main loop.
func (n *Node) Wait(cycleTime time.Duration) error {
	if n.closed {
		return WrapError("node.wait", ErrNodeClosed)
	}
	if err := checkTermination(); err != nil {
		return err
	}

	const slice = 20 * time.Millisecond
	remaining := cycleTime
	for remaining > 0 {
		step := slice
		if remaining < step {
			step = remaining
		}
		time.Sleep(step)
		remaining -= step
		if err := checkTermination(); err != nil {
			return err
		}
	}
	return nil
}

// WaitContext behaves like Wait but also returns early when ctx is done,
// for callers that prefer Go's own cancellation idiom over a fixed cycle
// time.
func (n *Node) WaitContext(ctx context.Context, cycleTime time.Duration) error {
	if n.closed {
		return WrapError("node.wait", ErrNodeClosed)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return n.Wait(cycleTime)
}

func checkTermination() error {
	termination, interrupt := signal.GlobalTermination().Pending()
	if termination {
		return WrapError("node.wait", NodeWaitErrorTerminationRequest)
	}
	if interrupt {
		return WrapError("node.wait", NodeWaitErrorInterrupt)
	}
	return nil
}

// Close releases the node's liveness lock. Once released, any other
// participant's next liveness scan will find this node's rows dead and
// reclaim their resources.
func (n *Node) Close() error {
	if n.closed {
		return nil
	}
	n.closed = true
	os.Remove(n.root.NodeInfo(n.id.inner.FileToken()))
	return n.lock.Release()
}

// ListNodes returns every node discovered under cfg's root, alive or
// dead, by scanning the node directory's lock files.
func ListNodes(cfg Config) ([]NodeDetails, error) {
	root, err := cfg.root()
	if err != nil {
		return nil, NodeListErrorInternalError
	}
	entries, err := os.ReadDir(root.NodeDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, NodeListErrorInternalError
	}

	var out []NodeDetails
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".lock") {
			continue
		}
		token := strings.TrimSuffix(name, ".lock")
		nodeID, err := id.Parse(token)
		if err != nil {
			continue
		}
		state := NodeStateDead
		probe, err := lockfile.TryExclusive(root.NodeLock(token))
		if err == lockfile.ErrHeld {
			state = NodeStateAlive
		} else if err == nil {
			probe.Release()
		}

		display := token
		if data, err := os.ReadFile(root.NodeInfo(token)); err == nil {
			var info nodeInfo
			if wire.Decode(data, "node", &info) == nil {
				display = info.Name
			}
		}

		out = append(out, NodeDetails{
			ID:    NodeId{inner: nodeID},
			Name:  display,
			State: state,
		})
	}
	return out, nil
}

// NodeDetails summarizes one discovered node for ListNodes/shmbusctl.
type NodeDetails struct {
	ID    NodeId
	Name  string
	State NodeState
}

// staleResourceHandler is the liveness.Handler RemoveStaleResources hands
// to liveness.Scan: every resource it tears down is filesystem state
// owned by the registry layer, since this API operates without any port
// factory's in-memory pools/queues attached.
type staleResourceHandler struct {
	root layout.Root
	hash string
}

func (h staleResourceHandler) OnDeadPublisher(row dynconfig.Row) {
	os.Remove(h.root.PublisherData(row.PortID.FileToken()))
}
func (h staleResourceHandler) OnDeadSubscriber(row dynconfig.Row) {}
func (h staleResourceHandler) OnDeadNotifier(row dynconfig.Row)   {}
func (h staleResourceHandler) OnDeadListener(row dynconfig.Row)   {}
func (h staleResourceHandler) OnDeadNode(row dynconfig.Row)       {}

// RemoveStaleResources scans every service under cfg's root for dead
// participants and reclaims them (spec.md §4.6), then deletes any service
// left with zero live participants. It also reaps dead node lock files
// that are not referenced by any service.
func RemoveStaleResources(cfg Config) (reclaimed int, err error) {
	root, err := cfg.root()
	if err != nil {
		return 0, NodeCleanupErrorInternalError
	}

	services, err := registry.List(root)
	if err != nil {
		return 0, NodeCleanupErrorInternalError
	}

	for _, svc := range services {
		capacity := 0
		switch svc.Config.Pattern {
		case registry.PatternPublishSubscribe:
			capacity = int(svc.Config.PubSub.MaxNodes + svc.Config.PubSub.MaxPublishers + svc.Config.PubSub.MaxSubscribers)
		case registry.PatternEvent:
			capacity = int(svc.Config.Event.MaxNodes + svc.Config.Event.MaxNotifiers + svc.Config.Event.MaxListeners)
		}

		segment, err := shm.Open(root.Dynamic(svc.Hash), dynconfig.Size(capacity))
		if err != nil {
			continue
		}
		table, err := dynconfig.Open(segment, capacity)
		if err != nil {
			segment.Close()
			continue
		}

		n, scanErr := liveness.Scan(root, table, staleResourceHandler{root: root, hash: svc.Hash})
		reclaimed += n
		if scanErr == nil && liveness.Empty(table) {
			segment.Remove()
			os.Remove(root.ServiceConfig(svc.Hash))
			os.Remove(root.ServiceLock(svc.Hash))
		} else {
			segment.Close()
		}
	}

	entries, err := os.ReadDir(root.NodeDir())
	if err == nil {
		for _, e := range entries {
			name := e.Name()
			if !strings.HasSuffix(name, ".lock") {
				continue
			}
			token := strings.TrimSuffix(name, ".lock")
			probe, err := lockfile.TryExclusive(root.NodeLock(token))
			if err == nil {
				probe.Remove()
				os.Remove(root.NodeInfo(token))
				reclaimed++
			}
		}
	}

	return reclaimed, nil
}
