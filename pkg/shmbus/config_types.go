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
	"fmt"
	"reflect"
	"time"
	"unsafe"

	"github.com/shmbus/shmbus/internal/engine/registry"
)

// MessageTypeDetails describes the Go type used as a payload or
// user-header, mirroring what the teacher's cgo binding queried from the
// Rust core's type descriptor. Here it is computed directly from the Go
// type via reflection, since there is no foreign ABI to query.
type MessageTypeDetails struct {
	TypeName  string
	Size      uint64
	Alignment uint64
}

// TypeDetailsOf returns the name, size, and alignment the Go runtime
// reports for T, in the form ServiceBuilderPubSub.PayloadType and
// UserHeaderType expect: b.PayloadType(shmbus.TypeDetailsOf[MyData]()).
func TypeDetailsOf[T any]() (typeName string, size, alignment uint64) {
	d := messageTypeDetailsOf[T]()
	return d.TypeName, d.Size, d.Alignment
}

// messageTypeDetailsOf derives a MessageTypeDetails for T using the Go
// runtime's own size and alignment, the same two numbers a service uses
// to judge payload compatibility on open (spec.md §4.1 step 2).
func messageTypeDetailsOf[T any]() MessageTypeDetails {
	var zero T
	t := reflect.TypeOf(zero)
	name := "unknown"
	align := 1
	if t != nil {
		name = t.String()
		align = t.Align()
	}
	return MessageTypeDetails{
		TypeName:  name,
		Size:      uint64(unsafe.Sizeof(zero)),
		Alignment: uint64(align),
	}
}

func (d MessageTypeDetails) toRegistry() registry.TypeDetail {
	return registry.TypeDetail{
		Variant:   registry.TypeVariantFixedSize,
		Name:      d.TypeName,
		Size:      d.Size,
		Alignment: d.Alignment,
	}
}

// UnableToDeliverStrategy selects what a publisher does when a
// subscriber's delivery queue is full and safe overflow is disabled.
type UnableToDeliverStrategy int

const (
	// Block drops the new sample for a subscriber whose queue is full,
	// as DiscardSample does; the publisher does not wait for queue space.
	Block UnableToDeliverStrategy = iota
	// DiscardSample drops the new sample immediately instead of waiting.
	DiscardSample
)

func (s UnableToDeliverStrategy) String() string {
	if s == Block {
		return "block"
	}
	return "discard_sample"
}

func unableToDeliverStrategyFromString(s string) UnableToDeliverStrategy {
	if s == "block" {
		return Block
	}
	return DiscardSample
}

// StaticConfigPubSub is the immutable, persisted configuration of a
// publish-subscribe service, as read back from an opened or created
// service (spec.md §3 "Static service config").
type StaticConfigPubSub struct {
	MaxPublishers                uint64
	MaxSubscribers                uint64
	MaxNodes                      uint64
	HistorySize                   uint64
	SubscriberMaxBufferSize       uint64
	SubscriberMaxBorrowedSamples  uint64
	EnableSafeOverflow            bool
	UnableToDeliverStrategy       UnableToDeliverStrategy
	MessageTypeDetails            MessageTypeDetails
}

func staticConfigPubSubFromRegistry(cfg registry.StaticConfig) StaticConfigPubSub {
	p := cfg.PubSub
	return StaticConfigPubSub{
		MaxPublishers:               p.MaxPublishers,
		MaxSubscribers:              p.MaxSubscribers,
		MaxNodes:                    p.MaxNodes,
		HistorySize:                 p.HistorySize,
		SubscriberMaxBufferSize:     p.SubscriberMaxBufferSize,
		SubscriberMaxBorrowedSamples: p.SubscriberMaxBorrowedSamples,
		EnableSafeOverflow:          p.EnableSafeOverflow,
		UnableToDeliverStrategy:     unableToDeliverStrategyFromString(p.UnableToDeliverStrategy),
		MessageTypeDetails: MessageTypeDetails{
			TypeName:  cfg.Payload.Name,
			Size:      cfg.Payload.Size,
			Alignment: cfg.Payload.Alignment,
		},
	}
}

// StaticConfigEvent is the immutable, persisted configuration of an event
// service.
type StaticConfigEvent struct {
	MaxNotifiers         uint64
	MaxListeners         uint64
	MaxNodes             uint64
	EventIdMaxValue      uint64
	Deadline             time.Duration
	NotifierCreatedEvent *uint64
	NotifierDroppedEvent *uint64
	NotifierDeadEvent    *uint64
}

func staticConfigEventFromRegistry(cfg registry.StaticConfig) StaticConfigEvent {
	e := cfg.Event
	return StaticConfigEvent{
		MaxNotifiers:         e.MaxNotifiers,
		MaxListeners:         e.MaxListeners,
		MaxNodes:             e.MaxNodes,
		EventIdMaxValue:      e.EventIdMaxValue,
		Deadline:             e.Deadline,
		NotifierCreatedEvent: e.NotifierCreatedEvent,
		NotifierDroppedEvent: e.NotifierDroppedEvent,
		NotifierDeadEvent:    e.NotifierDeadEvent,
	}
}

// PublisherDetails summarizes one live publisher port for discovery and
// diagnostics.
type PublisherDetails struct {
	PublisherID UniquePublisherId
	NodeID      NodeId
}

// SubscriberDetails summarizes one live subscriber port.
type SubscriberDetails struct {
	SubscriberID UniqueSubscriberId
	NodeID       NodeId
}

// NotifierDetails summarizes one live notifier port.
type NotifierDetails struct {
	NotifierID UniqueNotifierId
	NodeID     NodeId
}

// ListenerDetails summarizes one live listener port.
type ListenerDetails struct {
	ListenerID UniqueListenerId
	NodeID     NodeId
}

func (d MessageTypeDetails) String() string {
	return fmt.Sprintf("%s (size=%d align=%d)", d.TypeName, d.Size, d.Alignment)
}
