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
	"os"
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/shmbus/shmbus/internal/engine/dynconfig"
	"github.com/shmbus/shmbus/internal/engine/history"
	"github.com/shmbus/shmbus/internal/engine/id"
	"github.com/shmbus/shmbus/internal/engine/pool"
	"github.com/shmbus/shmbus/internal/engine/queue"
	"github.com/shmbus/shmbus/internal/engine/registry"
	"github.com/shmbus/shmbus/internal/engine/shm"
	"github.com/shmbus/shmbus/internal/engine/wire"
)

var pubsubLog = logrus.WithField("component", "pubsub")

// pubMeta is the small persisted record a publisher writes alongside its
// data segment describing how a subscriber should size the pool.Pool it
// opens over that segment.
type pubMeta struct {
	SlotCount      int
	PayloadSize    int
	UserHeaderSize int
}

// PortFactoryPubSub is a joined publish-subscribe service, ready to build
// publisher and subscriber ports on top of.
type PortFactoryPubSub struct {
	node   *Node
	handle *registry.Handle
}

func newPortFactoryPubSub(node *Node, h *registry.Handle) *PortFactoryPubSub {
	return &PortFactoryPubSub{node: node, handle: h}
}

// StaticConfig returns the service's immutable, persisted configuration.
func (f *PortFactoryPubSub) StaticConfig() StaticConfigPubSub {
	return staticConfigPubSubFromRegistry(f.handle.Config)
}

// PublisherBuilder starts configuring a new publisher port.
func (f *PortFactoryPubSub) PublisherBuilder() *PublisherBuilder {
	return &PublisherBuilder{
		factory:         f,
		maxLoanedSamples: 2,
		historySize:     f.handle.Config.PubSub.HistorySize,
	}
}

// SubscriberBuilder starts configuring a new subscriber port.
func (f *PortFactoryPubSub) SubscriberBuilder() *SubscriberBuilder {
	return &SubscriberBuilder{
		factory:    f,
		bufferSize: f.handle.Config.PubSub.SubscriberMaxBufferSize,
	}
}

// Close releases this factory's mapping of the service's dynamic segment.
// It does not affect any port already built from it.
func (f *PortFactoryPubSub) Close() error { return f.handle.Close() }

// PublisherBuilder configures a publisher port before creating it.
type PublisherBuilder struct {
	factory          *PortFactoryPubSub
	maxLoanedSamples int
	historySize      uint64
}

// MaxLoanedSamples sets the number of sample slots this publisher may hold
// loaned (not yet sent or released) simultaneously.
func (b *PublisherBuilder) MaxLoanedSamples(n int) *PublisherBuilder {
	b.maxLoanedSamples = n
	return b
}

// Create builds the publisher port: reserves its sample-slot pool in a new
// data segment and registers it in the service's dynamic table.
func (b *PublisherBuilder) Create() (*Publisher, error) {
	f := b.factory
	cfg := f.handle.Config.PubSub

	portID := id.New()
	slotCount := b.maxLoanedSamples + int(cfg.SubscriberMaxBufferSize)*int(cfg.MaxSubscribers)
	if slotCount < b.maxLoanedSamples+1 {
		slotCount = b.maxLoanedSamples + 1
	}
	payloadSize := int(f.handle.Config.Payload.Size)
	userHeaderSize := 0
	if f.handle.Config.UserHeader != nil {
		userHeaderSize = int(f.handle.Config.UserHeader.Size)
	}

	dataPath := f.node.root.PublisherData(portID.FileToken())
	segment, err := shm.Create(dataPath, pool.Size(slotCount, payloadSize, userHeaderSize))
	if err != nil {
		return nil, WrapError("publisher.create", PublisherCreateErrorUnableToCreateDataSegment)
	}
	p, err := pool.Create(segment, slotCount, payloadSize, userHeaderSize, portID)
	if err != nil {
		segment.Remove()
		return nil, WrapError("publisher.create", PublisherCreateErrorUnableToCreateDataSegment)
	}

	if data, err := wire.Encode("pubmeta", pubMeta{SlotCount: slotCount, PayloadSize: payloadSize, UserHeaderSize: userHeaderSize}); err == nil {
		os.WriteFile(dataPath+".meta", data, 0644)
	}

	idx, err := f.handle.Table.Claim(dynconfig.KindPublisher, portID, f.node.id.inner)
	if err != nil {
		segment.Remove()
		return nil, WrapError("publisher.create", PublisherCreateErrorExceedsMaxSupportedPublishers)
	}

	pub := &Publisher{
		factory:          f,
		id:               UniquePublisherId{inner: portID},
		rowIndex:         idx,
		segment:          segment,
		pool:             p,
		history:          history.New(int(cfg.HistorySize)),
		maxLoanedSamples: b.maxLoanedSamples,
		connections:      make(map[id.Unique]*pubConnection),
		sequence:         0,
	}
	pubsubLog.WithField("publisher_id", portID.String()).Info("publisher created")
	return pub, nil
}

type pubConnection struct {
	subscriberID id.Unique
	segment      *shm.Segment
	queue        *queue.Queue
}

// Publisher sends samples into a publish-subscribe service. Every sample
// is loaned from a fixed pool of slots in the publisher's own shared-memory
// data segment and delivered zero-copy to every connected subscriber's
// delivery queue (spec.md §4.2).
type Publisher struct {
	factory          *PortFactoryPubSub
	id               UniquePublisherId
	rowIndex         int
	segment          *shm.Segment
	pool             *pool.Pool
	history          *history.Ring
	maxLoanedSamples int

	mu               sync.Mutex
	connections      map[id.Unique]*pubConnection
	sequence         uint32
	outstandingLoans int

	closed bool
}

// ID returns this publisher's unique id.
func (p *Publisher) ID() UniquePublisherId { return p.id }

// Loan reserves one sample slot for writing and returns a SampleMut over
// its payload and (if configured) user-header regions. Returns
// LoanErrorExceedsMaxLoanedSamples if the publisher already holds its
// configured cap of outstanding loans, or LoanErrorOutOfMemory if the
// pool itself has no free slots (spec.md §4.2, §8 Boundaries).
func (p *Publisher) Loan() (*SampleMut, error) {
	if p.closed {
		return nil, WrapError("publisher.loan", ErrPublisherClosed)
	}

	p.mu.Lock()
	if p.outstandingLoans >= p.maxLoanedSamples {
		p.mu.Unlock()
		return nil, WrapError("publisher.loan", LoanErrorExceedsMaxLoanedSamples)
	}
	p.outstandingLoans++
	p.mu.Unlock()

	idx, err := p.pool.Loan()
	if err != nil {
		p.mu.Lock()
		p.outstandingLoans--
		p.mu.Unlock()
		return nil, WrapError("publisher.loan", LoanErrorOutOfMemory)
	}
	return &SampleMut{publisher: p, slotIndex: idx}, nil
}

// releaseLoan accounts for one loaned slot no longer being outstanding,
// whether it was sent or discarded.
func (p *Publisher) releaseLoan() {
	p.mu.Lock()
	p.outstandingLoans--
	p.mu.Unlock()
}

// connectAll scans the service's dynamic table for subscriber rows not
// yet connected and establishes their delivery queue (creating it if the
// subscriber hasn't, opening it if it has), implementing the lazy
// connection establishment of spec.md §4.3.
func (p *Publisher) connectAll() {
	cfg := p.factory.handle.Config.PubSub
	for _, row := range p.factory.handle.Table.Rows() {
		if row.Kind != dynconfig.KindSubscriber {
			continue
		}
		if _, ok := p.connections[row.PortID]; ok {
			continue
		}
		qPath := p.factory.node.root.Queue(p.id.inner.FileToken(), row.PortID.FileToken())
		policy := queue.PolicySafeOverflow
		if !cfg.EnableSafeOverflow {
			if cfg.UnableToDeliverStrategy == "block" {
				policy = queue.PolicyBlock
			} else {
				policy = queue.PolicyDiscard
			}
		}
		seg, created, err := shm.CreateOrOpen(qPath, queue.Size(cfg.SubscriberMaxBufferSize))
		if err != nil {
			continue
		}
		var q *queue.Queue
		if created {
			q, err = queue.Create(seg, cfg.SubscriberMaxBufferSize, policy)
		} else {
			q, err = queue.Open(seg, cfg.SubscriberMaxBufferSize, policy)
		}
		if err != nil {
			seg.Close()
			continue
		}
		p.connections[row.PortID] = &pubConnection{subscriberID: row.PortID, segment: seg, queue: q}
		p.replayHistory(q)
	}
}

// replayHistory backfills a newly connected subscriber's queue with every
// slot index still retained in the history ring, oldest first, each
// accompanied by a ref-count increment (spec.md §4.2 "New-subscriber
// join", §8 Scenario 3).
func (p *Publisher) replayHistory(q *queue.Queue) {
	for _, el := range p.history.Replay() {
		evicted, err := q.Push(el)
		if err != nil {
			continue
		}
		p.pool.Retain(int(el.SlotIndex))
		if evicted != nil {
			p.pool.Release(int(evicted.SlotIndex))
		}
	}
}

// UpdateConnections connects to every subscriber discoverable in the
// service's dynamic table that this publisher has not yet opened a queue
// for, replaying retained history into each newly opened queue. Connection
// establishment otherwise happens lazily on the next Send; call this to
// force it without sending a new sample (spec.md §4.2 "on its next send, or
// on explicit update_connections").
func (p *Publisher) UpdateConnections() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connectAll()
}

// send delivers the sample in slot idx to every connected subscriber and
// retains it in the history buffer, per spec.md §4.2's send algorithm.
func (p *Publisher) send(idx int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.outstandingLoans--
	p.connectAll()
	p.sequence++
	el := queue.Element{SlotIndex: uint32(idx), Sequence: p.sequence}

	for _, conn := range p.connections {
		evicted, err := conn.queue.Push(el)
		if err != nil {
			continue
		}
		p.pool.Retain(idx)
		if evicted != nil {
			p.pool.Release(int(evicted.SlotIndex))
		}
	}

	evictedSlot, evicted := p.history.Record(el)
	if p.history.Enabled() {
		p.pool.Retain(idx)
	}
	if evicted {
		p.pool.Release(int(evictedSlot))
	}

	p.pool.Release(idx)
	return nil
}

// Close releases the publisher's registration and unmaps its data
// segment. The segment's backing file is not removed, and since Close
// releases the publisher's row, the liveness scan (which removes data
// files only for dead rows) does not reclaim it either.
func (p *Publisher) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.factory.handle.Table.Release(p.rowIndex)
	for _, conn := range p.connections {
		conn.segment.Close()
	}
	return p.segment.Close()
}

// SampleMut is a loaned, writable sample slot. Call Send to publish it or
// Close to discard it without sending.
type SampleMut struct {
	publisher *Publisher
	slotIndex int
	consumed  bool
}

// Payload returns the writable payload bytes of the loaned slot.
func (s *SampleMut) Payload() []byte { return s.publisher.pool.Payload(s.slotIndex) }

// UserHeader returns the writable user-header bytes of the loaned slot, or
// nil if the service has no user-header type configured.
func (s *SampleMut) UserHeader() UserHeaderMut {
	return UserHeaderMut{bytes: s.publisher.pool.UserHeader(s.slotIndex)}
}

// Send publishes the sample to every currently connected subscriber and
// retains it in the publisher's history buffer.
func (s *SampleMut) Send() error {
	if s.consumed {
		return WrapError("sample.send", ErrSampleClosed)
	}
	s.consumed = true
	return s.publisher.send(s.slotIndex)
}

// Close discards the loaned sample without sending it, returning its slot
// to the pool.
func (s *SampleMut) Close() error {
	if s.consumed {
		return nil
	}
	s.consumed = true
	s.publisher.pool.Release(s.slotIndex)
	s.publisher.releaseLoan()
	return nil
}

// SubscriberBuilder configures a subscriber port before creating it.
type SubscriberBuilder struct {
	factory    *PortFactoryPubSub
	bufferSize uint64
}

// BufferSize overrides the subscriber's delivery queue capacity.
func (b *SubscriberBuilder) BufferSize(n uint64) *SubscriberBuilder {
	b.bufferSize = n
	return b
}

// Create builds the subscriber port and registers it in the service's
// dynamic table. Connections to existing (and future) publishers are
// established lazily on each Receive call.
func (b *SubscriberBuilder) Create() (*Subscriber, error) {
	f := b.factory
	portID := id.New()

	idx, err := f.handle.Table.Claim(dynconfig.KindSubscriber, portID, f.node.id.inner)
	if err != nil {
		return nil, WrapError("subscriber.create", SubscriberCreateErrorExceedsMaxSupportedSubscribers)
	}

	sub := &Subscriber{
		factory:     f,
		id:          UniqueSubscriberId{inner: portID},
		rowIndex:    idx,
		bufferSize:  b.bufferSize,
		connections: make(map[id.Unique]*subConnection),
	}
	pubsubLog.WithField("subscriber_id", portID.String()).Info("subscriber created")
	return sub, nil
}

type subConnection struct {
	publisherID id.Unique
	dataSegment *shm.Segment
	queueSegment *shm.Segment
	queue       *queue.Queue
	pool        *pool.Pool
}

// Subscriber receives samples from a publish-subscribe service. It
// connects lazily to every publisher it discovers in the service's
// dynamic table, each via its own delivery queue (spec.md §4.3).
type Subscriber struct {
	factory    *PortFactoryPubSub
	id         UniqueSubscriberId
	rowIndex   int
	bufferSize uint64

	mu          sync.Mutex
	connections map[id.Unique]*subConnection

	closed bool
}

// ID returns this subscriber's unique id.
func (s *Subscriber) ID() UniqueSubscriberId { return s.id }

func (s *Subscriber) connectAll() {
	cfg := s.factory.handle.Config.PubSub
	for _, row := range s.factory.handle.Table.Rows() {
		if row.Kind != dynconfig.KindPublisher {
			continue
		}
		if _, ok := s.connections[row.PortID]; ok {
			continue
		}

		dataPath := s.factory.node.root.PublisherData(row.PortID.FileToken())
		metaBytes, err := os.ReadFile(dataPath + ".meta")
		if err != nil {
			continue
		}
		var meta pubMeta
		if wire.Decode(metaBytes, "pubmeta", &meta) != nil {
			continue
		}
		dataSeg, err := shm.Open(dataPath, pool.Size(meta.SlotCount, meta.PayloadSize, meta.UserHeaderSize))
		if err != nil {
			continue
		}
		pl, err := pool.Open(dataSeg, meta.SlotCount, meta.PayloadSize, meta.UserHeaderSize)
		if err != nil {
			dataSeg.Close()
			continue
		}

		qPath := s.factory.node.root.Queue(row.PortID.FileToken(), s.id.inner.FileToken())
		policy := queue.PolicySafeOverflow
		if !cfg.EnableSafeOverflow {
			if cfg.UnableToDeliverStrategy == "block" {
				policy = queue.PolicyBlock
			} else {
				policy = queue.PolicyDiscard
			}
		}
		qSeg, created, err := shm.CreateOrOpen(qPath, queue.Size(s.bufferSize))
		if err != nil {
			dataSeg.Close()
			continue
		}
		var q *queue.Queue
		if created {
			q, err = queue.Create(qSeg, s.bufferSize, policy)
		} else {
			q, err = queue.Open(qSeg, s.bufferSize, policy)
		}
		if err != nil {
			qSeg.Close()
			dataSeg.Close()
			continue
		}

		s.connections[row.PortID] = &subConnection{publisherID: row.PortID, dataSegment: dataSeg, queueSegment: qSeg, queue: q, pool: pl}
	}
}

// Receive returns the oldest pending sample of the first connected
// publisher whose queue is not empty, or ok=false if none is available;
// the order in which publishers are visited is not defined. The returned Sample must
// be closed (or allowed to go out of scope after calling Close) to
// release its slot's reference once the caller is done reading it.
func (s *Subscriber) Receive() (sample *Sample, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false, WrapError("subscriber.receive", ErrSubscriberClosed)
	}

	s.connectAll()
	for _, conn := range s.connections {
		el, has := conn.queue.Pop()
		if !has {
			continue
		}
		return &Sample{
			pool:      conn.pool,
			slotIndex: int(el.SlotIndex),
			header: PublishSubscribeHeader{
				publisherID:      conn.pool.OriginPublisherID(int(el.SlotIndex)),
				numberOfElements: 1,
			},
		}, true, nil
	}
	return nil, false, nil
}

// Close releases the subscriber's registration and every publisher
// connection it opened.
func (s *Subscriber) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.factory.handle.Table.Release(s.rowIndex)
	for _, conn := range s.connections {
		conn.dataSegment.Close()
		conn.queueSegment.Close()
	}
	return nil
}

// Sample is a borrowed, read-only view of one received sample. Its
// payload and user-header bytes remain valid until Close is called.
type Sample struct {
	pool      *pool.Pool
	slotIndex int
	header    PublishSubscribeHeader
	closed    bool
}

// Header returns the sample's publish-subscribe header.
func (s *Sample) Header() PublishSubscribeHeader { return s.header }

// Payload returns the sample's read-only payload bytes.
func (s *Sample) Payload() []byte { return s.pool.Payload(s.slotIndex) }

// UserHeader returns the sample's read-only user-header bytes.
func (s *Sample) UserHeader() UserHeader {
	return UserHeader{bytes: s.pool.UserHeader(s.slotIndex)}
}

// Close releases this sample's reference on its originating publisher's
// slot. Once every borrower has released its reference the slot returns
// to the pool's free list.
func (s *Sample) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.pool.Release(s.slotIndex)
	return nil
}

// PayloadAs reinterprets a sample's read-only payload bytes as *T. The
// caller is responsible for T matching the service's configured payload
// type.
func PayloadAs[T any](s *Sample) *T {
	b := s.Payload()
	if len(b) < int(unsafe.Sizeof(*new(T))) {
		return nil
	}
	return (*T)(unsafe.Pointer(&b[0]))
}

// PayloadMutAs reinterprets a loaned sample's writable payload bytes as
// *T.
func PayloadMutAs[T any](s *SampleMut) *T {
	b := s.Payload()
	if len(b) < int(unsafe.Sizeof(*new(T))) {
		return nil
	}
	return (*T)(unsafe.Pointer(&b[0]))
}

// WritePayloadAs copies *value into a loaned sample's payload bytes.
func WritePayloadAs[T any](s *SampleMut, value *T) {
	dst := PayloadMutAs[T](s)
	if dst == nil {
		return
	}
	*dst = *value
}
