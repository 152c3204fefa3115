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

import "io"

// Compile-time assertions that every resource owning shared-memory or
// file-descriptor state closes cleanly.
var (
	_ io.Closer = (*Node)(nil)
	_ io.Closer = (*Publisher)(nil)
	_ io.Closer = (*Subscriber)(nil)
	_ io.Closer = (*Notifier)(nil)
	_ io.Closer = (*Listener)(nil)
	_ io.Closer = (*SampleMut)(nil)
	_ io.Closer = (*WaitSet)(nil)
)

// PublisherPort is the behavior a publisher port exposes to generic code
// that does not need the concrete Publisher type.
type PublisherPort interface {
	io.Closer
	ID() UniquePublisherId
}

// SubscriberPort is the behavior a subscriber port exposes generically.
type SubscriberPort interface {
	io.Closer
	ID() UniqueSubscriberId
}

// NotifierPort is the behavior a notifier port exposes generically.
type NotifierPort interface {
	io.Closer
	ID() UniqueNotifierId
}

// ListenerPort is the behavior a listener port exposes generically,
// including what the waitset needs to attach it: a way to wait for and
// drain pending events.
type ListenerPort interface {
	io.Closer
	ID() UniqueListenerId
	TryWaitOne() (uint64, bool, error)
}
