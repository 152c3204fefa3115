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
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/shmbus/shmbus/internal/engine/registry"
)

var discoveryLog = logrus.WithField("component", "discovery")

// MessagingPattern identifies which pattern a discovered service was
// created with.
type MessagingPattern int

const (
	MessagingPatternPublishSubscribe MessagingPattern = iota
	MessagingPatternEvent
)

func (p MessagingPattern) String() string {
	if p == MessagingPatternEvent {
		return "event"
	}
	return "publish_subscribe"
}

func messagingPatternFromRegistry(p registry.Pattern) MessagingPattern {
	if p == registry.PatternEvent {
		return MessagingPatternEvent
	}
	return MessagingPatternPublishSubscribe
}

// ServiceInfo summarizes one discovered service, independent of whether
// the caller has (or ever will) open it.
type ServiceInfo struct {
	Name    string
	Hash    string
	Pattern MessagingPattern

	PubSub *StaticConfigPubSub
	Event  *StaticConfigEvent

	Attributes AttributeSet
}

func serviceInfoFromDetails(d registry.ServiceDetails) ServiceInfo {
	info := ServiceInfo{
		Name:       d.Name,
		Hash:       d.Hash,
		Pattern:    messagingPatternFromRegistry(d.Config.Pattern),
		Attributes: newAttributeSet(d.Config.Attributes),
	}
	switch d.Config.Pattern {
	case registry.PatternPublishSubscribe:
		c := staticConfigPubSubFromRegistry(d.Config)
		info.PubSub = &c
	case registry.PatternEvent:
		c := staticConfigEventFromRegistry(d.Config)
		info.Event = &c
	}
	return info
}

// ListServices returns every service discoverable under cfg's root,
// regardless of messaging pattern.
func ListServices(cfg Config) ([]ServiceInfo, error) {
	root, err := cfg.root()
	if err != nil {
		return nil, ServiceListErrorInternalError
	}
	details, err := registry.List(root)
	if err != nil {
		if _, ok := err.(registry.ServiceListError); ok {
			return nil, ServiceListErrorInsufficientPermissions
		}
		return nil, ServiceListErrorInternalError
	}
	out := make([]ServiceInfo, 0, len(details))
	for _, d := range details {
		out = append(out, serviceInfoFromDetails(d))
	}
	return out, nil
}

// ServiceExists reports whether a service with the given name, of any
// messaging pattern, has been created, without opening it. Since the content-addressed hash
// also covers the payload/user-header types, this overload checks by
// name across every persisted service rather than a single exact hash.
func ServiceExists(cfg Config, name string) (bool, error) {
	services, err := ListServices(cfg)
	if err != nil {
		return false, err
	}
	for _, s := range services {
		if s.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// GetServiceDetails returns the details for one already-hashed service.
func GetServiceDetails(cfg Config, hash string) (ServiceInfo, bool, error) {
	root, err := cfg.root()
	if err != nil {
		return ServiceInfo{}, false, ServiceDetailsErrorInternalError
	}
	d, ok := registry.GetServiceDetails(root, hash)
	if !ok {
		return ServiceInfo{}, false, nil
	}
	return serviceInfoFromDetails(d), true, nil
}

// CollectServices calls fn once for every currently discoverable service,
// stopping early if fn returns false.
func CollectServices(cfg Config, fn func(ServiceInfo) bool) error {
	services, err := ListServices(cfg)
	if err != nil {
		return err
	}
	for _, s := range services {
		if !fn(s) {
			break
		}
	}
	return nil
}

// ServiceWatcher notifies a channel whenever a service's static config
// file is created or removed under cfg's root, using fsnotify to avoid
// polling the services directory.
type ServiceWatcher struct {
	watcher *fsnotify.Watcher
	Events  <-chan ServiceWatchEvent
}

// ServiceWatchEvent reports one create or remove observed by a
// ServiceWatcher.
type ServiceWatchEvent struct {
	Hash     string
	Removed  bool
}

// WatchServices starts watching cfg's services directory for new or
// removed services.
func WatchServices(cfg Config) (*ServiceWatcher, error) {
	root, err := cfg.root()
	if err != nil {
		return nil, ServiceListErrorInternalError
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ServiceListErrorInternalError
	}
	if err := w.Add(root.ServicesDir()); err != nil {
		w.Close()
		return nil, ServiceListErrorInternalError
	}

	out := make(chan ServiceWatchEvent, 16)
	go func() {
		defer close(out)
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Remove) == 0 {
					continue
				}
				hash := serviceHashFromPath(ev.Name)
				if hash == "" {
					continue
				}
				out <- ServiceWatchEvent{Hash: hash, Removed: ev.Op&fsnotify.Remove != 0}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				discoveryLog.WithError(err).Warn("service watch error")
			}
		}
	}()

	return &ServiceWatcher{watcher: w, Events: out}, nil
}

// Close stops the watcher.
func (w *ServiceWatcher) Close() error {
	return w.watcher.Close()
}

func serviceHashFromPath(path string) string {
	const suffix = ".service"
	if len(path) < len(suffix) || path[len(path)-len(suffix):] != suffix {
		return ""
	}
	i := len(path) - len(suffix)
	j := i
	for j > 0 && path[j-1] != '/' {
		j--
	}
	return path[j:i]
}
