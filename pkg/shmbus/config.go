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

	"github.com/shmbus/shmbus/internal/engine/layout"
)

// Config holds the process-wide defaults every NodeBuilder and
// ServiceBuilder falls back to when a caller does not override a value
// explicitly, mirroring the teacher's global config file but expressed as
// an in-process, functional-options-configurable struct instead of a
// TOML file read through cgo.
type Config struct {
	RootPath string
	Prefix   string

	PubSubMaxPublishers               uint64
	PubSubMaxSubscribers              uint64
	PubSubMaxNodes                    uint64
	PubSubHistorySize                 uint64
	PubSubSubscriberMaxBufferSize     uint64
	PubSubSubscriberMaxBorrowedSamples uint64
	PubSubEnableSafeOverflow          bool
	PubSubUnableToDeliverStrategy     UnableToDeliverStrategy

	EventMaxNotifiers    uint64
	EventMaxListeners    uint64
	EventMaxNodes        uint64
	EventIdMaxValue      uint64
	EventDeadline        time.Duration
}

func defaultConfig() Config {
	return Config{
		RootPath:                          layout.DefaultRootPath(),
		Prefix:                            "shmbus",
		PubSubMaxPublishers:               8,
		PubSubMaxSubscribers:              8,
		PubSubMaxNodes:                    16,
		PubSubHistorySize:                 0,
		PubSubSubscriberMaxBufferSize:     16,
		PubSubSubscriberMaxBorrowedSamples: 2,
		PubSubEnableSafeOverflow:          true,
		PubSubUnableToDeliverStrategy:     Block,
		EventMaxNotifiers:                 8,
		EventMaxListeners:                 8,
		EventMaxNodes:                     16,
		EventIdMaxValue:                   1<<32 - 1,
		EventDeadline:                     0,
	}
}

// Option mutates a Config. Passed to GlobalConfig or a NodeBuilder to
// override process-wide defaults.
type Option func(*Config)

// WithRootPath overrides the filesystem root every service's persisted
// state lives under. Defaults to $SHMBUS_ROOT or os.TempDir()/shmbus.
func WithRootPath(path string) Option {
	return func(c *Config) { c.RootPath = path }
}

// WithPrefix overrides the isolation prefix subdirectory under the root
// path, letting independent test runs or deployments share a root
// without colliding (the SUPPLEMENTED FEATURES "domains" case).
func WithPrefix(prefix string) Option {
	return func(c *Config) { c.Prefix = prefix }
}

// WithPublishSubscribeDefaults overrides the default publish-subscribe
// service limits new ServiceBuilderPubSub instances fall back to.
func WithPublishSubscribeDefaults(maxPublishers, maxSubscribers, maxNodes, historySize, bufferSize, maxBorrowed uint64, safeOverflow bool, strategy UnableToDeliverStrategy) Option {
	return func(c *Config) {
		c.PubSubMaxPublishers = maxPublishers
		c.PubSubMaxSubscribers = maxSubscribers
		c.PubSubMaxNodes = maxNodes
		c.PubSubHistorySize = historySize
		c.PubSubSubscriberMaxBufferSize = bufferSize
		c.PubSubSubscriberMaxBorrowedSamples = maxBorrowed
		c.PubSubEnableSafeOverflow = safeOverflow
		c.PubSubUnableToDeliverStrategy = strategy
	}
}

// WithEventDefaults overrides the default event service limits new
// ServiceBuilderEvent instances fall back to.
func WithEventDefaults(maxNotifiers, maxListeners, maxNodes, eventIdMaxValue uint64, deadline time.Duration) Option {
	return func(c *Config) {
		c.EventMaxNotifiers = maxNotifiers
		c.EventMaxListeners = maxListeners
		c.EventMaxNodes = maxNodes
		c.EventIdMaxValue = eventIdMaxValue
		c.EventDeadline = deadline
	}
}

var (
	globalConfigOnce sync.Once
	globalConfig     Config
)

// GlobalConfig returns the process-wide Config singleton, applying opts
// the first time it is called. Later calls ignore opts and return the
// already-initialized config; use a NodeBuilder's own options to override
// defaults for just one node instead.
func GlobalConfig(opts ...Option) Config {
	globalConfigOnce.Do(func() {
		globalConfig = defaultConfig()
		for _, opt := range opts {
			opt(&globalConfig)
		}
	})
	return globalConfig
}

func (c Config) root() (layout.Root, error) {
	return layout.New(c.RootPath, c.Prefix)
}
