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
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shmbus/shmbus/internal/engine/dynconfig"
	"github.com/shmbus/shmbus/internal/engine/id"
	"github.com/shmbus/shmbus/internal/engine/registry"
	"github.com/shmbus/shmbus/internal/engine/shm"
	"github.com/shmbus/shmbus/internal/engine/signal"
)

var eventLog = logrus.WithField("component", "event")

const defaultMailboxCapacity = 16

// PortFactoryEvent is a joined event service, ready to build notifier and
// listener ports on top of.
type PortFactoryEvent struct {
	node   *Node
	handle *registry.Handle
}

func newPortFactoryEvent(node *Node, h *registry.Handle) *PortFactoryEvent {
	return &PortFactoryEvent{node: node, handle: h}
}

// StaticConfig returns the service's immutable, persisted configuration.
func (f *PortFactoryEvent) StaticConfig() StaticConfigEvent {
	return staticConfigEventFromRegistry(f.handle.Config)
}

// NotifierBuilder starts configuring a new notifier port.
func (f *PortFactoryEvent) NotifierBuilder() *NotifierBuilder {
	return &NotifierBuilder{factory: f}
}

// ListenerBuilder starts configuring a new listener port.
func (f *PortFactoryEvent) ListenerBuilder() *ListenerBuilder {
	return &ListenerBuilder{factory: f, mailboxCapacity: defaultMailboxCapacity}
}

// Close releases this factory's mapping of the service's dynamic segment.
func (f *PortFactoryEvent) Close() error { return f.handle.Close() }

// NotifierBuilder configures a notifier port before creating it.
type NotifierBuilder struct {
	factory      *PortFactoryEvent
	defaultEvent *uint64
}

// DefaultEvent sets the event id Notify uses when NotifyWithId is not
// called explicitly.
func (b *NotifierBuilder) DefaultEvent(eventID uint64) *NotifierBuilder {
	b.defaultEvent = &eventID
	return b
}

// Create builds the notifier port and registers it in the service's
// dynamic table.
func (b *NotifierBuilder) Create() (*Notifier, error) {
	f := b.factory
	portID := id.New()
	idx, err := f.handle.Table.Claim(dynconfig.KindNotifier, portID, f.node.id.inner)
	if err != nil {
		return nil, WrapError("notifier.create", NotifierCreateErrorExceedsMaxSupportedNotifiers)
	}

	n := &Notifier{
		factory:      f,
		id:           UniqueNotifierId{inner: portID},
		rowIndex:     idx,
		defaultEvent: b.defaultEvent,
		connections:  make(map[id.Unique]*notifierConnection),
	}
	if created := f.handle.Config.Event.NotifierCreatedEvent; created != nil {
		n.broadcastTo(*created)
	}
	eventLog.WithField("notifier_id", portID.String()).Info("notifier created")
	return n, nil
}

type notifierConnection struct {
	listenerID id.Unique
	segment    *shm.Segment
	mailbox    *signal.Mailbox
	signalPath string
}

// Notifier triggers events observed by every listener attached to the
// same service. Notifications are delivered by posting the event id into
// each listener's mailbox and then firing its wakeup socket (spec.md §4.4).
type Notifier struct {
	factory      *PortFactoryEvent
	id           UniqueNotifierId
	rowIndex     int
	defaultEvent *uint64

	mu           sync.Mutex
	connections  map[id.Unique]*notifierConnection
	lastNotifyAt time.Time
	hasNotified  bool

	closed bool
}

// ID returns this notifier's unique id.
func (n *Notifier) ID() UniqueNotifierId { return n.id }

func (n *Notifier) connectAll() {
	for _, row := range n.factory.handle.Table.Rows() {
		if row.Kind != dynconfig.KindListener {
			continue
		}
		if _, ok := n.connections[row.PortID]; ok {
			continue
		}
		mailboxPath := n.factory.node.root.EventMailbox(n.factory.handle.Hash, row.PortID.FileToken())
		seg, err := shm.Open(mailboxPath, signal.Size(defaultMailboxCapacity))
		if err != nil {
			continue
		}
		mb, err := signal.Open(seg, defaultMailboxCapacity)
		if err != nil {
			seg.Close()
			continue
		}
		n.connections[row.PortID] = &notifierConnection{
			listenerID: row.PortID,
			segment:    seg,
			mailbox:    mb,
			signalPath: n.factory.node.root.ListenerSignal(n.factory.handle.Hash, row.PortID.FileToken()),
		}
	}
}

func (n *Notifier) broadcastTo(eventID uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.connectAll()
	for _, conn := range n.connections {
		conn.mailbox.Post(eventID)
		signal.Post(conn.signalPath)
	}
}

// Notify triggers the notifier's default event id on every listener
// attached to this service. If a deadline is configured for the service
// and it elapsed since the previous Notify, the MissedDeadline error is
// returned even though the notification was delivered. Without a
// DefaultEvent it returns NotifierNotifyErrorEventIdOutOfBounds.
func (n *Notifier) Notify() error {
	if n.defaultEvent == nil {
		return WrapError("notifier.notify", NotifierNotifyErrorEventIdOutOfBounds)
	}
	return n.NotifyWithId(*n.defaultEvent)
}

// NotifyWithId triggers eventID on every listener attached to this
// service, validating it against the service's configured max event id.
func (n *Notifier) NotifyWithId(eventID uint64) error {
	if n.closed {
		return WrapError("notifier.notify", ErrNotifierClosed)
	}
	if eventID > n.factory.handle.Config.Event.EventIdMaxValue {
		return WrapError("notifier.notify", NotifierNotifyErrorEventIdOutOfBounds)
	}

	deadline := n.factory.handle.Config.Event.Deadline
	n.mu.Lock()
	missed := deadline > 0 && n.hasNotified && time.Since(n.lastNotifyAt) > deadline
	n.lastNotifyAt = time.Now()
	n.hasNotified = true
	n.mu.Unlock()

	n.broadcastTo(eventID)
	if missed {
		return MissedDeadline
	}
	return nil
}

// Close releases the notifier's registration and every listener
// connection it opened, broadcasting the service's configured
// notifier-dropped event first, if any.
func (n *Notifier) Close() error {
	if n.closed {
		return nil
	}
	n.closed = true
	if dropped := n.factory.handle.Config.Event.NotifierDroppedEvent; dropped != nil {
		n.broadcastTo(*dropped)
	}
	n.factory.handle.Table.Release(n.rowIndex)
	for _, conn := range n.connections {
		conn.segment.Close()
	}
	return nil
}

// ListenerBuilder configures a listener port before creating it.
type ListenerBuilder struct {
	factory         *PortFactoryEvent
	mailboxCapacity uint64
}

// MailboxCapacity overrides the listener's pending-event ring capacity.
func (b *ListenerBuilder) MailboxCapacity(n uint64) *ListenerBuilder {
	b.mailboxCapacity = n
	return b
}

// Create builds the listener port: its mailbox segment and wakeup
// socket, and registers it in the service's dynamic table.
func (b *ListenerBuilder) Create() (*Listener, error) {
	f := b.factory
	portID := id.New()

	mailboxPath := f.node.root.EventMailbox(f.handle.Hash, portID.FileToken())
	seg, err := shm.Create(mailboxPath, signal.Size(b.mailboxCapacity))
	if err != nil {
		return nil, WrapError("listener.create", ListenerCreateErrorResourceCreationFailed)
	}
	mb, err := signal.Create(seg, b.mailboxCapacity)
	if err != nil {
		seg.Remove()
		return nil, WrapError("listener.create", ListenerCreateErrorResourceCreationFailed)
	}

	wakeupPath := f.node.root.ListenerSignal(f.handle.Hash, portID.FileToken())
	wk, err := signal.Listen(wakeupPath)
	if err != nil {
		seg.Remove()
		return nil, WrapError("listener.create", ListenerCreateErrorResourceCreationFailed)
	}

	idx, err := f.handle.Table.Claim(dynconfig.KindListener, portID, f.node.id.inner)
	if err != nil {
		wk.Close()
		seg.Remove()
		return nil, WrapError("listener.create", ListenerCreateErrorExceedsMaxSupportedListeners)
	}

	l := &Listener{
		factory:  f,
		id:       UniqueListenerId{inner: portID},
		rowIndex: idx,
		segment:  seg,
		mailbox:  mb,
		wakeup:   wk,
	}
	eventLog.WithField("listener_id", portID.String()).Info("listener created")
	return l, nil
}

// Listener waits for events triggered by notifiers attached to the same
// service. Each listener has its own mailbox and wakeup socket, so
// distinct listeners are woken independently of one another.
type Listener struct {
	factory  *PortFactoryEvent
	id       UniqueListenerId
	rowIndex int
	segment  *shm.Segment
	mailbox  *signal.Mailbox
	wakeup   *signal.Wakeup

	closed bool
}

// ID returns this listener's unique id.
func (l *Listener) ID() UniqueListenerId { return l.id }

// TryWaitOne returns one pending event id without blocking, or ok=false
// if the mailbox is currently empty. Implements ListenerPort for the
// waitset.
func (l *Listener) TryWaitOne() (uint64, bool, error) {
	if l.closed {
		return 0, false, WrapError("listener.wait", ErrListenerClosed)
	}
	id, ok := l.mailbox.TryPop()
	return id, ok, nil
}

// TryWaitAll drains every currently pending event id, oldest first.
func (l *Listener) TryWaitAll() ([]uint64, error) {
	return l.mailbox.Drain(), nil
}

// BlockingWaitOne blocks until at least one event is pending, or timeout
// elapses, returning ok=false on timeout.
func (l *Listener) BlockingWaitOne(timeout time.Duration) (eventID uint64, ok bool, err error) {
	if id, has := l.mailbox.TryPop(); has {
		return id, true, nil
	}
	woke, err := l.wakeup.Wait(timeout)
	if err != nil {
		return 0, false, WrapError("listener.wait", ListenerWaitErrorInternalFailure)
	}
	if !woke {
		return 0, false, nil
	}
	id, has := l.mailbox.TryPop()
	return id, has, nil
}

// Close releases the listener's registration, mailbox, and wakeup
// socket.
func (l *Listener) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	l.factory.handle.Table.Release(l.rowIndex)
	l.wakeup.Close()
	return l.segment.Close()
}

// EventChannel adapts a Listener into a Go channel of event ids, for
// callers that prefer range-over-channel to polling BlockingWaitOne. The
// background goroutine stops once stop is closed or the listener itself
// is closed.
type EventChannel struct {
	C    <-chan uint64
	stop chan struct{}
}

// NewEventChannel starts a goroutine forwarding every event l receives
// onto the returned channel until Stop is called.
func NewEventChannel(l *Listener) *EventChannel {
	c := make(chan uint64, 16)
	stop := make(chan struct{})
	go func() {
		defer close(c)
		for {
			select {
			case <-stop:
				return
			default:
			}
			id, ok, err := l.BlockingWaitOne(50 * time.Millisecond)
			if err != nil {
				return
			}
			if !ok {
				continue
			}
			select {
			case c <- id:
			case <-stop:
				return
			}
		}
	}()
	return &EventChannel{C: c, stop: stop}
}

// Stop ends the forwarding goroutine. The channel returned by C is closed
// once the goroutine observes it.
func (e *EventChannel) Stop() { close(e.stop) }
