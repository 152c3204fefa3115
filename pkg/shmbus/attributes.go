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

import "github.com/shmbus/shmbus/internal/engine/registry"

// Attribute is a single service metadata key-value pair, persisted in the
// service's static config at creation time and immutable afterward.
type Attribute struct {
	Key   string
	Value string
}

// AttributeSet is the read-only, ordered collection of attributes a
// created service was given.
type AttributeSet struct {
	attrs []registry.Attribute
}

func newAttributeSet(attrs []registry.Attribute) AttributeSet {
	return AttributeSet{attrs: attrs}
}

// Len returns the number of attributes in the set.
func (s AttributeSet) Len() int { return len(s.attrs) }

// At returns the attribute at index i.
func (s AttributeSet) At(i int) Attribute {
	a := s.attrs[i]
	return Attribute{Key: a.Key, Value: a.Value}
}

// Get returns every value stored under key, in definition order.
func (s AttributeSet) Get(key string) []string {
	var out []string
	for _, a := range s.attrs {
		if a.Key == key {
			out = append(out, a.Value)
		}
	}
	return out
}

// All returns every attribute in the set, in definition order.
func (s AttributeSet) All() []Attribute {
	out := make([]Attribute, 0, len(s.attrs))
	for _, a := range s.attrs {
		out = append(out, Attribute{Key: a.Key, Value: a.Value})
	}
	return out
}

// AttributeSpecifier accumulates attributes to attach to a service at
// creation time.
type AttributeSpecifier struct {
	attrs []registry.Attribute
}

// NewAttributeSpecifier returns an empty specifier.
func NewAttributeSpecifier() *AttributeSpecifier {
	return &AttributeSpecifier{}
}

// Define adds one key-value pair. Multiple values may be defined under the
// same key. Returns the specifier for chaining.
func (s *AttributeSpecifier) Define(key, value string) *AttributeSpecifier {
	s.attrs = append(s.attrs, registry.Attribute{Key: key, Value: value})
	return s
}

func (s *AttributeSpecifier) toRegistry() []registry.Attribute {
	if s == nil {
		return nil
	}
	return s.attrs
}

// AttributeVerifier expresses the requirements an opener places on a
// service's persisted attribute set.
type AttributeVerifier struct {
	requiredKeys  []string
	requiredPairs []registry.Attribute
}

// NewAttributeVerifier returns an empty (always-satisfied) verifier.
func NewAttributeVerifier() *AttributeVerifier {
	return &AttributeVerifier{}
}

// RequireKey requires that the opened service defines at least one value
// under key, regardless of its value. Returns the verifier for chaining.
func (v *AttributeVerifier) RequireKey(key string) *AttributeVerifier {
	v.requiredKeys = append(v.requiredKeys, key)
	return v
}

// Require requires that the opened service defines value under key.
// Returns the verifier for chaining.
func (v *AttributeVerifier) Require(key, value string) *AttributeVerifier {
	v.requiredPairs = append(v.requiredPairs, registry.Attribute{Key: key, Value: value})
	return v
}

func (v *AttributeVerifier) toRegistry() registry.AttributeVerifier {
	if v == nil {
		return registry.AttributeVerifier{}
	}
	return registry.AttributeVerifier{RequiredKeys: v.requiredKeys, RequiredPairs: v.requiredPairs}
}
