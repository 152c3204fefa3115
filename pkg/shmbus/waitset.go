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
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

var waitsetLog = logrus.WithField("component", "waitset")

// SignalHandlingMode selects whether a WaitSet treats SIGTERM/
// SIGINT as a reason to return early, mirroring the teacher's
// SignalHandlingMode enum.
type SignalHandlingMode int

const (
	// SignalHandlingModeHandleTerminationRequests is the default: Run/
	// WaitAndProcessOnce return TerminationRequest/Interrupt as soon as the
	// corresponding signal is observed.
	SignalHandlingModeHandleTerminationRequests SignalHandlingMode = iota
	// SignalHandlingModeDisabled ignores termination signals; callers
	// relying on this mode must implement their own shutdown path.
	SignalHandlingModeDisabled
)

func (m SignalHandlingMode) String() string {
	if m == SignalHandlingModeDisabled {
		return "Disabled"
	}
	return "HandleTerminationRequests"
}

// CallbackProgression is returned by a WaitSet.Run callback to say
// whether Run should keep waiting for more attachments or stop.
type CallbackProgression int

const (
	// CallbackProgressionContinue keeps the run loop waiting for further
	// attachment events.
	CallbackProgressionContinue CallbackProgression = iota
	// CallbackProgressionStop ends the run loop after the current event,
	// reported back as WaitSetRunErrorStopRequest.
	CallbackProgressionStop
)

const defaultWaitSetCapacity = 32

// WaitSetBuilder configures a WaitSet before creating it.
type WaitSetBuilder struct {
	signalMode SignalHandlingMode
	capacity   uint64
	consumed   bool
}

// NewWaitSetBuilder returns a builder defaulting to
// SignalHandlingModeHandleTerminationRequests and a capacity of 32
// attachments.
func NewWaitSetBuilder() *WaitSetBuilder {
	return &WaitSetBuilder{signalMode: SignalHandlingModeHandleTerminationRequests, capacity: defaultWaitSetCapacity}
}

// SignalHandlingMode sets how the built WaitSet reacts to SIGTERM/SIGINT.
func (b *WaitSetBuilder) SignalHandlingMode(mode SignalHandlingMode) *WaitSetBuilder {
	b.signalMode = mode
	return b
}

// Capacity overrides the maximum number of simultaneous attachments.
func (b *WaitSetBuilder) Capacity(n uint64) *WaitSetBuilder {
	b.capacity = n
	return b
}

// Create builds the WaitSet. Implements the single-use builder pattern
// the rest of the package follows: a second Create call fails.
func (b *WaitSetBuilder) Create() (*WaitSet, error) {
	if b.consumed {
		return nil, WrapError("waitset.create", WaitSetCreateErrorInternalError)
	}
	b.consumed = true
	return &WaitSet{
		signalMode:  b.signalMode,
		capacity:    b.capacity,
		attachments: make(map[uint64]*waitSetAttachment),
	}, nil
}

type waitSetAttachmentKind int

const (
	attachmentNotification waitSetAttachmentKind = iota
	attachmentDeadline
	attachmentInterval
)

// waitSetAttachment is one listener, deadline-guarded listener, or
// interval ticker registered with a WaitSet. Listeners that expose a
// pollable file descriptor (the common case, *Listener) are multiplexed
// with unix.Poll; anything else falls back to a short-interval
// TryWaitOne poll, so arbitrary ListenerPort implementations can still
// be attached.
type waitSetAttachment struct {
	id       uint64
	kind     waitSetAttachmentKind
	listener ListenerPort
	fd       int
	hasFD    bool
	deadline time.Duration
	interval time.Duration
	lastFire time.Time
}

// WaitSetGuard represents one attachment; releasing it (Close) detaches
// it from the WaitSet.
type WaitSetGuard struct {
	ws *WaitSet
	id uint64
}

// Close detaches the attachment. Implements io.Closer.
func (g *WaitSetGuard) Close() error {
	if g == nil || g.ws == nil {
		return nil
	}
	g.ws.detach(g.id)
	return nil
}

// WaitSetAttachmentId identifies which attachment fired during a Run/
// WaitAndProcessOnce callback invocation.
type WaitSetAttachmentId struct {
	id             uint64
	missedDeadline bool
}

// HasEventFrom reports whether this attachment id corresponds to guard.
func (a *WaitSetAttachmentId) HasEventFrom(guard *WaitSetGuard) bool {
	return a != nil && guard != nil && a.id == guard.id
}

// HasMissedDeadline reports whether this wakeup was caused by a deadline
// attachment's timer expiring rather than by its listener firing.
func (a *WaitSetAttachmentId) HasMissedDeadline(guard *WaitSetGuard) bool {
	return a.HasEventFrom(guard) && a.missedDeadline
}

// WaitSet multiplexes listeners, deadline-guarded listeners, and interval
// timers into one blocking wait, the Go-native counterpart of the
// teacher's cgo-trampoline WaitSet (spec.md §4.5). Attachments are polled
// with unix.Poll where possible; an attachment with no pollable descriptor
// (an interval, or a ListenerPort that is not the package's own *Listener)
// is checked inline on each poll cycle in the caller's goroutine, by a
// clock comparison or a TryWaitOne call.
type WaitSet struct {
	mu          sync.Mutex
	signalMode  SignalHandlingMode
	capacity    uint64
	attachments map[uint64]*waitSetAttachment
	nextID      uint64
	closed      bool
}

func (w *WaitSet) attach(a *waitSetAttachment) (*WaitSetGuard, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, WrapError("waitset.attach", WaitSetAttachmentErrorInternalError)
	}
	if uint64(len(w.attachments)) >= w.capacity {
		return nil, WrapError("waitset.attach", WaitSetAttachmentErrorInsufficientCapacity)
	}
	w.nextID++
	a.id = w.nextID
	a.lastFire = time.Now()
	w.attachments[a.id] = a
	return &WaitSetGuard{ws: w, id: a.id}, nil
}

func (w *WaitSet) detach(id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.attachments, id)
}

// AttachNotification attaches a listener so Run/WaitAndProcessOnce wake
// up whenever a notifier posts to it.
func (w *WaitSet) AttachNotification(l ListenerPort) (*WaitSetGuard, error) {
	return w.attach(newWaitSetAttachment(attachmentNotification, l, 0))
}

// AttachDeadline attaches a listener that must additionally wake the
// waitset if deadline elapses without an event, reporting
// HasMissedDeadline on that attachment id (spec.md §4.4 deadline
// semantics applied to the waitset).
func (w *WaitSet) AttachDeadline(l ListenerPort, deadline time.Duration) (*WaitSetGuard, error) {
	return w.attach(newWaitSetAttachment(attachmentDeadline, l, deadline))
}

// AttachInterval attaches a bare interval timer with no associated
// listener, for periodic housekeeping inside a Run loop.
func (w *WaitSet) AttachInterval(interval time.Duration) (*WaitSetGuard, error) {
	a := &waitSetAttachment{kind: attachmentInterval, interval: interval}
	return w.attach(a)
}

func newWaitSetAttachment(kind waitSetAttachmentKind, l ListenerPort, deadline time.Duration) *waitSetAttachment {
	a := &waitSetAttachment{kind: kind, listener: l, deadline: deadline}
	if lis, ok := l.(*Listener); ok {
		if fd, err := lis.wakeup.Fd(); err == nil {
			a.fd = int(fd)
			a.hasFD = true
		}
	}
	return a
}

// NumberOfAttachments returns the current number of live attachments.
func (w *WaitSet) NumberOfAttachments() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return uint64(len(w.attachments))
}

// Capacity returns the maximum number of simultaneous attachments.
func (w *WaitSet) Capacity() uint64 { return w.capacity }

// IsEmpty reports whether the WaitSet currently has no attachments.
func (w *WaitSet) IsEmpty() bool { return w.NumberOfAttachments() == 0 }

// Close detaches every attachment and marks the WaitSet unusable.
func (w *WaitSet) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.attachments = nil
	return nil
}

const waitSetPollSlice = 50 * time.Millisecond

// WaitAndProcessOnce polls every attachment once (bounded by
// waitSetPollSlice) and invokes callback for each that has an event
// pending, then returns. It is the non-blocking single-pass counterpart
// to Run.
func (w *WaitSet) WaitAndProcessOnce(callback func(*WaitSetAttachmentId) CallbackProgression) error {
	return w.run(callback, false)
}

// Run blocks, repeatedly polling attachments and invoking callback for
// each fired event, until callback returns CallbackProgressionStop or a
// termination/interrupt signal is observed (unless SignalHandlingMode is
// Disabled).
func (w *WaitSet) Run(callback func(*WaitSetAttachmentId) CallbackProgression) error {
	return w.run(callback, true)
}

func (w *WaitSet) run(callback func(*WaitSetAttachmentId) CallbackProgression, blocking bool) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return WrapError("waitset.run", WaitSetRunErrorInternalError)
	}
	if len(w.attachments) == 0 {
		w.mu.Unlock()
		return WrapError("waitset.run", WaitSetRunErrorNoAttachments)
	}
	w.mu.Unlock()

	for {
		if w.signalMode == SignalHandlingModeHandleTerminationRequests {
			if err := checkTermination(); err != nil {
				return err
			}
		}

		fired, err := w.pollOnce()
		if err != nil {
			return WrapError("waitset.run", WaitSetRunErrorInternalError)
		}

		stop := false
		for _, f := range fired {
			progression := callback(f)
			if progression == CallbackProgressionStop {
				stop = true
			}
		}
		if stop {
			return WrapError("waitset.run", WaitSetRunErrorStopRequest)
		}
		if !blocking {
			return nil
		}
	}
}

// pollOnce waits up to waitSetPollSlice for any attachment to have an
// event, returning the attachment ids that fired (possibly none, on a
// timeout — the caller loops again).
func (w *WaitSet) pollOnce() ([]*WaitSetAttachmentId, error) {
	w.mu.Lock()
	attachments := make([]*waitSetAttachment, 0, len(w.attachments))
	for _, a := range w.attachments {
		attachments = append(attachments, a)
	}
	w.mu.Unlock()

	var pollFds []unix.PollFd
	var pollAttachments []*waitSetAttachment
	for _, a := range attachments {
		if a.kind != attachmentInterval && a.hasFD {
			pollFds = append(pollFds, unix.PollFd{Fd: int32(a.fd), Events: unix.POLLIN})
			pollAttachments = append(pollAttachments, a)
		}
	}

	fdFired := make(map[uint64]bool)
	if len(pollFds) > 0 {
		n, err := unix.Poll(pollFds, int(waitSetPollSlice/time.Millisecond))
		if err != nil && err != unix.EINTR {
			return nil, fmt.Errorf("waitset: poll: %w", err)
		}
		if n > 0 {
			for i, pfd := range pollFds {
				if pfd.Revents&unix.POLLIN != 0 {
					if _, ok, _ := pollAttachments[i].listener.TryWaitOne(); ok {
						fdFired[pollAttachments[i].id] = true
					}
				}
			}
		}
	} else {
		time.Sleep(waitSetPollSlice)
	}

	var fired []*WaitSetAttachmentId
	now := time.Now()
	for _, a := range attachments {
		switch a.kind {
		case attachmentNotification:
			if fdFired[a.id] {
				a.lastFire = now
				fired = append(fired, &WaitSetAttachmentId{id: a.id})
			} else if !a.hasFD {
				if _, ok, _ := a.listener.TryWaitOne(); ok {
					a.lastFire = now
					fired = append(fired, &WaitSetAttachmentId{id: a.id})
				}
			}
		case attachmentDeadline:
			if fdFired[a.id] {
				a.lastFire = now
				fired = append(fired, &WaitSetAttachmentId{id: a.id})
				continue
			}
			if !a.hasFD {
				if _, ok, _ := a.listener.TryWaitOne(); ok {
					a.lastFire = now
					fired = append(fired, &WaitSetAttachmentId{id: a.id})
					continue
				}
			}
			if now.Sub(a.lastFire) >= a.deadline {
				a.lastFire = now
				fired = append(fired, &WaitSetAttachmentId{id: a.id, missedDeadline: true})
			}
		case attachmentInterval:
			if now.Sub(a.lastFire) >= a.interval {
				a.lastFire = now
				fired = append(fired, &WaitSetAttachmentId{id: a.id})
			}
		}
	}
	if len(fired) > 0 {
		waitsetLog.WithField("count", len(fired)).Trace("waitset attachments fired")
	}
	return fired, nil
}
