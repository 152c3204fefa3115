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
	"time"

	"github.com/shmbus/shmbus/internal/engine/registry"
)

// ServiceBuilder is used to create or open services. Call PublishSubscribe
// or Event to pick a messaging pattern; request-response is out of scope
// (SPEC_FULL.md "Size").
type ServiceBuilder struct {
	node *Node
	name ServiceName
}

// PublishSubscribe returns a ServiceBuilderPubSub for creating or opening
// publish-subscribe services, seeded with the node's configured defaults.
func (b *ServiceBuilder) PublishSubscribe() *ServiceBuilderPubSub {
	cfg := b.node.cfg
	return &ServiceBuilderPubSub{
		node:                         b.node,
		name:                         b.name,
		payloadType:                  "unknown",
		payloadSize:                  0,
		payloadAlign:                 1,
		maxPublishers:                cfg.PubSubMaxPublishers,
		maxSubscribers:               cfg.PubSubMaxSubscribers,
		maxNodes:                     cfg.PubSubMaxNodes,
		historySize:                  cfg.PubSubHistorySize,
		subscriberMaxBufferSize:      cfg.PubSubSubscriberMaxBufferSize,
		subscriberMaxBorrowedSamples: cfg.PubSubSubscriberMaxBorrowedSamples,
		enableSafeOverflow:           cfg.PubSubEnableSafeOverflow,
		unableToDeliverStrategy:      cfg.PubSubUnableToDeliverStrategy,
	}
}

// Event returns a ServiceBuilderEvent for creating or opening event
// services, seeded with the node's configured defaults.
func (b *ServiceBuilder) Event() *ServiceBuilderEvent {
	cfg := b.node.cfg
	return &ServiceBuilderEvent{
		node:            b.node,
		name:            b.name,
		maxNotifiers:    cfg.EventMaxNotifiers,
		maxListeners:    cfg.EventMaxListeners,
		maxNodes:        cfg.EventMaxNodes,
		eventIdMaxValue: cfg.EventIdMaxValue,
		deadline:        cfg.EventDeadline,
	}
}

// ServiceBuilderPubSub accumulates the requirements a publish-subscribe
// service must be opened or created with.
type ServiceBuilderPubSub struct {
	node *Node
	name ServiceName

	payloadType  string
	payloadSize  uint64
	payloadAlign uint64
	userHeaderType  string
	userHeaderSize  uint64
	userHeaderAlign uint64
	hasUserHeader   bool

	maxPublishers                uint64
	maxSubscribers               uint64
	maxNodes                     uint64
	historySize                  uint64
	subscriberMaxBufferSize      uint64
	subscriberMaxBorrowedSamples uint64
	enableSafeOverflow           bool
	unableToDeliverStrategy      UnableToDeliverStrategy
	attributes                   *AttributeSpecifier
	verifier                     *AttributeVerifier
}

// PayloadType sets the payload type details for the service. typeName
// should identify the Go type (e.g. via reflect.TypeOf(v).String()); size
// and alignment are the type's byte size and alignment, typically
// obtained with unsafe.Sizeof/reflect's Align.
func (b *ServiceBuilderPubSub) PayloadType(typeName string, size, alignment uint64) *ServiceBuilderPubSub {
	b.payloadType, b.payloadSize, b.payloadAlign = typeName, size, alignment
	return b
}

// UserHeaderType sets the optional user-header type details.
func (b *ServiceBuilderPubSub) UserHeaderType(typeName string, size, alignment uint64) *ServiceBuilderPubSub {
	b.userHeaderType, b.userHeaderSize, b.userHeaderAlign = typeName, size, alignment
	b.hasUserHeader = true
	return b
}

func (b *ServiceBuilderPubSub) MaxPublishers(n uint64) *ServiceBuilderPubSub {
	b.maxPublishers = n
	return b
}
func (b *ServiceBuilderPubSub) MaxSubscribers(n uint64) *ServiceBuilderPubSub {
	b.maxSubscribers = n
	return b
}
func (b *ServiceBuilderPubSub) MaxNodes(n uint64) *ServiceBuilderPubSub {
	b.maxNodes = n
	return b
}
func (b *ServiceBuilderPubSub) HistorySize(n uint64) *ServiceBuilderPubSub {
	b.historySize = n
	return b
}
func (b *ServiceBuilderPubSub) SubscriberMaxBufferSize(n uint64) *ServiceBuilderPubSub {
	b.subscriberMaxBufferSize = n
	return b
}
func (b *ServiceBuilderPubSub) SubscriberMaxBorrowedSamples(n uint64) *ServiceBuilderPubSub {
	b.subscriberMaxBorrowedSamples = n
	return b
}
func (b *ServiceBuilderPubSub) EnableSafeOverflow(v bool) *ServiceBuilderPubSub {
	b.enableSafeOverflow = v
	return b
}
func (b *ServiceBuilderPubSub) UnableToDeliverStrategy(s UnableToDeliverStrategy) *ServiceBuilderPubSub {
	b.unableToDeliverStrategy = s
	return b
}
func (b *ServiceBuilderPubSub) WithAttributes(spec *AttributeSpecifier) *ServiceBuilderPubSub {
	b.attributes = spec
	return b
}
func (b *ServiceBuilderPubSub) RequireAttributes(v *AttributeVerifier) *ServiceBuilderPubSub {
	b.verifier = v
	return b
}

func (b *ServiceBuilderPubSub) payloadDetail() registry.TypeDetail {
	return registry.TypeDetail{Variant: registry.TypeVariantFixedSize, Name: b.payloadType, Size: b.payloadSize, Alignment: b.payloadAlign}
}

func (b *ServiceBuilderPubSub) userHeaderDetail() *registry.TypeDetail {
	if !b.hasUserHeader {
		return nil
	}
	d := registry.TypeDetail{Variant: registry.TypeVariantFixedSize, Name: b.userHeaderType, Size: b.userHeaderSize, Alignment: b.userHeaderAlign}
	return &d
}

func (b *ServiceBuilderPubSub) staticConfig() registry.StaticConfig {
	return registry.StaticConfig{
		Name:       b.name.String(),
		Pattern:    registry.PatternPublishSubscribe,
		Payload:    b.payloadDetail(),
		UserHeader: b.userHeaderDetail(),
		PubSub: &registry.PubSubConfig{
			MaxPublishers:                b.maxPublishers,
			MaxSubscribers:               b.maxSubscribers,
			MaxNodes:                     b.maxNodes,
			HistorySize:                  b.historySize,
			SubscriberMaxBufferSize:      b.subscriberMaxBufferSize,
			SubscriberMaxBorrowedSamples: b.subscriberMaxBorrowedSamples,
			EnableSafeOverflow:           b.enableSafeOverflow,
			UnableToDeliverStrategy:      b.unableToDeliverStrategy.String(),
		},
		Attributes: b.attributes.toRegistry(),
	}
}

func (b *ServiceBuilderPubSub) requirements() registry.OpenRequirements {
	var safeOverflow *bool
	if b.enableSafeOverflow {
		v := true
		safeOverflow = &v
	}
	return registry.OpenRequirements{
		Pattern:                      registry.PatternPublishSubscribe,
		Payload:                      b.payloadDetail(),
		UserHeader:                   b.userHeaderDetail(),
		MaxPublishers:                b.maxPublishers,
		MaxSubscribers:               b.maxSubscribers,
		MaxNodes:                     b.maxNodes,
		HistorySize:                  b.historySize,
		SubscriberMaxBufferSize:      b.subscriberMaxBufferSize,
		SubscriberMaxBorrowedSamples: b.subscriberMaxBorrowedSamples,
		EnableSafeOverflow:           safeOverflow,
		Verifier:                     b.verifier.toRegistry(),
	}
}

// Open opens an already-existing service matching these requirements.
func (b *ServiceBuilderPubSub) Open() (*PortFactoryPubSub, error) {
	root, err := b.node.cfg.root()
	if err != nil {
		return nil, WrapError("service_builder.open", PubSubOpenOrCreateErrorInternalFailure)
	}
	h, err := registry.Open(root, b.name.String(), b.requirements())
	if err != nil {
		return nil, WrapError("service_builder.open", pubSubErrorFromRegistry(err))
	}
	return newPortFactoryPubSub(b.node, h), nil
}

// Create creates a new service matching this builder's configuration.
func (b *ServiceBuilderPubSub) Create() (*PortFactoryPubSub, error) {
	root, err := b.node.cfg.root()
	if err != nil {
		return nil, WrapError("service_builder.create", PubSubOpenOrCreateErrorInternalFailure)
	}
	h, err := registry.Create(root, b.staticConfig())
	if err != nil {
		return nil, WrapError("service_builder.create", pubSubErrorFromRegistry(err))
	}
	return newPortFactoryPubSub(b.node, h), nil
}

// OpenOrCreate opens the service if it exists and is compatible,
// otherwise creates it.
func (b *ServiceBuilderPubSub) OpenOrCreate() (*PortFactoryPubSub, error) {
	root, err := b.node.cfg.root()
	if err != nil {
		return nil, WrapError("service_builder.open_or_create", PubSubOpenOrCreateErrorInternalFailure)
	}
	h, err := registry.OpenOrCreate(root, b.name.String(), b.requirements(), b.staticConfig())
	if err != nil {
		if ooc, ok := err.(*registry.OpenOrCreateError); ok {
			return nil, WrapError("service_builder.open_or_create", pubSubErrorFromRegistry(ooc.LastCreateErr))
		}
		return nil, WrapError("service_builder.open_or_create", pubSubErrorFromRegistry(err))
	}
	return newPortFactoryPubSub(b.node, h), nil
}

// ServiceBuilderEvent accumulates the requirements an event service must
// be opened or created with.
type ServiceBuilderEvent struct {
	node *Node
	name ServiceName

	maxNotifiers    uint64
	maxListeners    uint64
	maxNodes        uint64
	eventIdMaxValue uint64
	deadline        time.Duration

	notifierCreatedEvent *uint64
	notifierDroppedEvent *uint64
	notifierDeadEvent    *uint64

	attributes *AttributeSpecifier
	verifier   *AttributeVerifier
}

func (b *ServiceBuilderEvent) MaxNotifiers(n uint64) *ServiceBuilderEvent { b.maxNotifiers = n; return b }
func (b *ServiceBuilderEvent) MaxListeners(n uint64) *ServiceBuilderEvent { b.maxListeners = n; return b }
func (b *ServiceBuilderEvent) MaxNodes(n uint64) *ServiceBuilderEvent     { b.maxNodes = n; return b }
func (b *ServiceBuilderEvent) EventIdMaxValue(n uint64) *ServiceBuilderEvent {
	b.eventIdMaxValue = n
	return b
}
func (b *ServiceBuilderEvent) Deadline(d time.Duration) *ServiceBuilderEvent { b.deadline = d; return b }
func (b *ServiceBuilderEvent) NotifierCreatedEvent(eventID uint64) *ServiceBuilderEvent {
	b.notifierCreatedEvent = &eventID
	return b
}
func (b *ServiceBuilderEvent) NotifierDroppedEvent(eventID uint64) *ServiceBuilderEvent {
	b.notifierDroppedEvent = &eventID
	return b
}

// NotifierDeadEvent stores an event id for dead notifiers in the service's
// static config. The liveness scan sends no event when it reclaims a dead
// notifier, so listeners do not receive this id.
func (b *ServiceBuilderEvent) NotifierDeadEvent(eventID uint64) *ServiceBuilderEvent {
	b.notifierDeadEvent = &eventID
	return b
}
func (b *ServiceBuilderEvent) WithAttributes(spec *AttributeSpecifier) *ServiceBuilderEvent {
	b.attributes = spec
	return b
}
func (b *ServiceBuilderEvent) RequireAttributes(v *AttributeVerifier) *ServiceBuilderEvent {
	b.verifier = v
	return b
}

func (b *ServiceBuilderEvent) staticConfig() registry.StaticConfig {
	return registry.StaticConfig{
		Name:    b.name.String(),
		Pattern: registry.PatternEvent,
		Payload: registry.TypeDetail{Name: "event", Size: 8, Alignment: 8},
		Event: &registry.EventConfig{
			MaxNotifiers:         b.maxNotifiers,
			MaxListeners:         b.maxListeners,
			MaxNodes:             b.maxNodes,
			EventIdMaxValue:      b.eventIdMaxValue,
			Deadline:             b.deadline,
			NotifierCreatedEvent: b.notifierCreatedEvent,
			NotifierDroppedEvent: b.notifierDroppedEvent,
			NotifierDeadEvent:    b.notifierDeadEvent,
		},
		Attributes: b.attributes.toRegistry(),
	}
}

func (b *ServiceBuilderEvent) requirements() registry.OpenRequirements {
	return registry.OpenRequirements{
		Pattern:         registry.PatternEvent,
		Payload:         registry.TypeDetail{Name: "event", Size: 8, Alignment: 8},
		MaxNotifiers:    b.maxNotifiers,
		MaxListeners:    b.maxListeners,
		MaxNodes:        b.maxNodes,
		EventIdMaxValue: b.eventIdMaxValue,
		Verifier:        b.verifier.toRegistry(),
	}
}

// Open opens an already-existing event service.
func (b *ServiceBuilderEvent) Open() (*PortFactoryEvent, error) {
	root, err := b.node.cfg.root()
	if err != nil {
		return nil, WrapError("service_builder.open", EventOpenOrCreateErrorInternalFailure)
	}
	h, err := registry.Open(root, b.name.String(), b.requirements())
	if err != nil {
		return nil, WrapError("service_builder.open", eventErrorFromRegistry(err))
	}
	return newPortFactoryEvent(b.node, h), nil
}

// Create creates a new event service.
func (b *ServiceBuilderEvent) Create() (*PortFactoryEvent, error) {
	root, err := b.node.cfg.root()
	if err != nil {
		return nil, WrapError("service_builder.create", EventOpenOrCreateErrorInternalFailure)
	}
	h, err := registry.Create(root, b.staticConfig())
	if err != nil {
		return nil, WrapError("service_builder.create", eventErrorFromRegistry(err))
	}
	return newPortFactoryEvent(b.node, h), nil
}

// OpenOrCreate opens the event service if it exists and is compatible,
// otherwise creates it.
func (b *ServiceBuilderEvent) OpenOrCreate() (*PortFactoryEvent, error) {
	root, err := b.node.cfg.root()
	if err != nil {
		return nil, WrapError("service_builder.open_or_create", EventOpenOrCreateErrorInternalFailure)
	}
	h, err := registry.OpenOrCreate(root, b.name.String(), b.requirements(), b.staticConfig())
	if err != nil {
		if ooc, ok := err.(*registry.OpenOrCreateError); ok {
			return nil, WrapError("service_builder.open_or_create", eventErrorFromRegistry(ooc.LastCreateErr))
		}
		return nil, WrapError("service_builder.open_or_create", eventErrorFromRegistry(err))
	}
	return newPortFactoryEvent(b.node, h), nil
}
