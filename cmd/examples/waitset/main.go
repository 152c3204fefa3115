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

// Command waitset demonstrates multiplexing two listeners and a deadline
// ticker through a single WaitSet. A notifier on service "waitset-demo-a"
// or "waitset-demo-b" has its events dispatched to the matching listener;
// cmd/examples/event/notifier notifies only its own fixed service
// "MyEventName", not these two.
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/shmbus/shmbus/pkg/shmbus"
)

func main() {
	node, err := shmbus.NewNodeBuilder().
		Name(mustNodeName("waitset-example")).
		Create()
	if err != nil {
		log.Fatalf("failed to create node: %v", err)
	}
	defer node.Close()

	listenerA := mustListener(node, "waitset-demo-a")
	defer listenerA.Close()
	listenerB := mustListener(node, "waitset-demo-b")
	defer listenerB.Close()

	ws, err := shmbus.NewWaitSetBuilder().
		SignalHandlingMode(shmbus.SignalHandlingModeHandleTerminationRequests).
		Create()
	if err != nil {
		log.Fatalf("failed to create waitset: %v", err)
	}
	defer ws.Close()

	aGuard, err := ws.AttachNotification(listenerA)
	if err != nil {
		log.Fatalf("failed to attach listener a: %v", err)
	}
	defer aGuard.Close()

	bGuard, err := ws.AttachDeadline(listenerB, 2*time.Second)
	if err != nil {
		log.Fatalf("failed to attach listener b: %v", err)
	}
	defer bGuard.Close()

	fmt.Printf("waitset ready, %d/%d attachments\n", ws.NumberOfAttachments(), ws.Capacity())
	fmt.Println("press ctrl+c to exit")

	err = ws.Run(func(id *shmbus.WaitSetAttachmentId) shmbus.CallbackProgression {
		switch {
		case id.HasEventFrom(aGuard):
			eventID, _, _ := listenerA.TryWaitOne()
			fmt.Printf("a: event %d\n", eventID)
		case id.HasMissedDeadline(bGuard):
			fmt.Println("b: deadline missed, no event within 2s")
		case id.HasEventFrom(bGuard):
			eventID, _, _ := listenerB.TryWaitOne()
			fmt.Printf("b: event %d\n", eventID)
		}
		return shmbus.CallbackProgressionContinue
	})
	fmt.Println("waitset run ended:", err)
}

func mustListener(node *shmbus.Node, name string) *shmbus.Listener {
	serviceName, err := shmbus.NewServiceName(name)
	if err != nil {
		log.Fatalf("invalid service name %q: %v", name, err)
	}
	service, err := node.ServiceBuilder(serviceName).Event().OpenOrCreate()
	if err != nil {
		log.Fatalf("failed to open event service %q: %v", name, err)
	}
	listener, err := service.ListenerBuilder().Create()
	if err != nil {
		log.Fatalf("failed to create listener for %q: %v", name, err)
	}
	return listener
}

func mustNodeName(name string) shmbus.NodeName {
	n, err := shmbus.NewNodeName(name)
	if err != nil {
		log.Fatalf("invalid node name: %v", err)
	}
	return n
}
