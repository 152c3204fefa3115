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

import "unicode/utf8"

const maxSemanticStringLength = 255

// ServiceName identifies a service across every node and process that
// opens or creates it. Names are validated UTF-8, non-empty, at most 255
// bytes, contain no NUL byte or path separator, and do not start with '.'.
type ServiceName struct {
	value string
}

// NewServiceName validates s and wraps it as a ServiceName.
func NewServiceName(s string) (ServiceName, error) {
	if err := validateSemanticString(s); err != nil {
		return ServiceName{}, err
	}
	return ServiceName{value: s}, nil
}

// String returns the underlying name.
func (n ServiceName) String() string { return n.value }

// NodeName identifies a node for display and discovery purposes. It
// follows the same validation rules as ServiceName.
type NodeName struct {
	value string
}

// NewNodeName validates s and wraps it as a NodeName.
func NewNodeName(s string) (NodeName, error) {
	if err := validateSemanticString(s); err != nil {
		return NodeName{}, err
	}
	return NodeName{value: s}, nil
}

// String returns the underlying name.
func (n NodeName) String() string { return n.value }

func validateSemanticString(s string) error {
	if s == "" {
		return SemanticStringErrorInvalidContent
	}
	if len(s) > maxSemanticStringLength {
		return SemanticStringErrorExceedsMaximumLength
	}
	if !utf8.ValidString(s) {
		return SemanticStringErrorInvalidContent
	}
	if s[0] == '.' {
		return SemanticStringErrorInvalidContent
	}
	for _, r := range s {
		if r == '/' || r == 0 {
			return SemanticStringErrorInvalidContent
		}
	}
	return nil
}
