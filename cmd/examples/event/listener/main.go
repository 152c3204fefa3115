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

// Command listener demonstrates waiting for events from the notifier
// example.
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/shmbus/shmbus/pkg/shmbus"
)

func main() {
	node, err := shmbus.NewNodeBuilder().
		Name(mustNodeName("listener-node")).
		Create()
	if err != nil {
		log.Fatalf("could not create node: %v", err)
	}
	defer node.Close()

	serviceName, err := shmbus.NewServiceName("MyEventName")
	if err != nil {
		log.Fatalf("unable to create service name: %v", err)
	}

	service, err := node.ServiceBuilder(serviceName).
		Event().
		OpenOrCreate()
	if err != nil {
		log.Fatalf("unable to open service: %v", err)
	}
	defer service.Close()

	listener, err := service.ListenerBuilder().Create()
	if err != nil {
		log.Fatalf("unable to create listener: %v", err)
	}
	defer listener.Close()

	fmt.Println("listener waiting for events!")

	for {
		eventID, ok, err := listener.BlockingWaitOne(time.Second)
		if err != nil {
			log.Printf("wait failed: %v", err)
		} else if ok {
			fmt.Printf("received event id: %d\n", eventID)
		}

		if err := node.Wait(0); err != nil {
			fmt.Println("received termination signal")
			return
		}
	}
}

func mustNodeName(name string) shmbus.NodeName {
	n, err := shmbus.NewNodeName(name)
	if err != nil {
		log.Fatalf("invalid node name: %v", err)
	}
	return n
}
