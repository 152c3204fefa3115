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

import "github.com/shmbus/shmbus/internal/engine/id"

// UniquePublisherId identifies one publisher port for its lifetime.
type UniquePublisherId struct{ inner id.Unique }

// Value returns the low 64 bits of the identifier.
func (u UniquePublisherId) Value() uint64 { return u.inner.Value() }

// Equals reports whether two ids refer to the same publisher.
func (u UniquePublisherId) Equals(other UniquePublisherId) bool { return u.inner.Equals(other.inner) }

// Less defines a total order.
func (u UniquePublisherId) Less(other UniquePublisherId) bool { return u.inner.Less(other.inner) }

func (u UniquePublisherId) String() string { return u.inner.String() }

// UniqueSubscriberId identifies one subscriber port for its lifetime.
type UniqueSubscriberId struct{ inner id.Unique }

func (u UniqueSubscriberId) Value() uint64                        { return u.inner.Value() }
func (u UniqueSubscriberId) Equals(other UniqueSubscriberId) bool { return u.inner.Equals(other.inner) }
func (u UniqueSubscriberId) Less(other UniqueSubscriberId) bool   { return u.inner.Less(other.inner) }
func (u UniqueSubscriberId) String() string                       { return u.inner.String() }

// UniqueNotifierId identifies one notifier port for its lifetime.
type UniqueNotifierId struct{ inner id.Unique }

func (u UniqueNotifierId) Value() uint64                      { return u.inner.Value() }
func (u UniqueNotifierId) Equals(other UniqueNotifierId) bool { return u.inner.Equals(other.inner) }
func (u UniqueNotifierId) Less(other UniqueNotifierId) bool   { return u.inner.Less(other.inner) }
func (u UniqueNotifierId) String() string                     { return u.inner.String() }

// UniqueListenerId identifies one listener port for its lifetime.
type UniqueListenerId struct{ inner id.Unique }

func (u UniqueListenerId) Value() uint64                      { return u.inner.Value() }
func (u UniqueListenerId) Equals(other UniqueListenerId) bool { return u.inner.Equals(other.inner) }
func (u UniqueListenerId) Less(other UniqueListenerId) bool   { return u.inner.Less(other.inner) }
func (u UniqueListenerId) String() string                     { return u.inner.String() }

// NodeId identifies one node for its lifetime.
type NodeId struct{ inner id.Unique }

func (n NodeId) Value() uint64                { return n.inner.Value() }
func (n NodeId) Equals(other NodeId) bool     { return n.inner.Equals(other.inner) }
func (n NodeId) Less(other NodeId) bool       { return n.inner.Less(other.inner) }
func (n NodeId) String() string               { return n.inner.String() }
