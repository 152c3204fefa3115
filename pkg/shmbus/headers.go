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
	"unsafe"

	"github.com/shmbus/shmbus/internal/engine/id"
)

// PublishSubscribeHeader is the fixed metadata every sample carries
// alongside its payload: which publisher sent it and how many payload
// elements it holds (spec.md §3 "Sample").
type PublishSubscribeHeader struct {
	publisherID      id.Unique
	numberOfElements uint64
}

// PublisherID returns the id of the publisher that sent this sample.
func (h PublishSubscribeHeader) PublisherID() UniquePublisherId {
	return UniquePublisherId{inner: h.publisherID}
}

// NumberOfElements returns the number of payload elements in this sample.
// Fixed-size payloads always report 1.
func (h PublishSubscribeHeader) NumberOfElements() uint64 { return h.numberOfElements }

// UserHeader is a read-only view over a sample's optional, service-defined
// user header region.
type UserHeader struct {
	bytes []byte
}

// Ptr returns the raw bytes of the user header.
func (u UserHeader) Ptr() []byte { return u.bytes }

// Size returns the byte length of the user header region.
func (u UserHeader) Size() int { return len(u.bytes) }

// UserHeaderMut is a writable view over a sample-mut's user header region,
// valid only until the loaned sample is sent or released.
type UserHeaderMut struct {
	bytes []byte
}

// Ptr returns the raw, writable bytes of the user header.
func (u UserHeaderMut) Ptr() []byte { return u.bytes }

// Size returns the byte length of the user header region.
func (u UserHeaderMut) Size() int { return len(u.bytes) }

// UserHeaderAs reinterprets a read-only user header's bytes as *T. The
// caller is responsible for T matching the service's configured
// user-header type; this mirrors the teacher's unchecked generic
// accessor rather than adding a runtime type check the wire format has
// no way to enforce.
func UserHeaderAs[T any](h UserHeader) *T {
	if len(h.bytes) < int(unsafe.Sizeof(*new(T))) {
		return nil
	}
	return (*T)(unsafe.Pointer(&h.bytes[0]))
}

// UserHeaderMutAs reinterprets a writable user header's bytes as *T.
func UserHeaderMutAs[T any](h UserHeaderMut) *T {
	if len(h.bytes) < int(unsafe.Sizeof(*new(T))) {
		return nil
	}
	return (*T)(unsafe.Pointer(&h.bytes[0]))
}
