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

// Command notifier demonstrates triggering events for a listener to
// observe. Run the listener example first, then this notifier.
package main

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shmbus/shmbus/pkg/shmbus"
)

func main() {
	node, err := shmbus.NewNodeBuilder().
		Name(mustNodeName("notifier-node")).
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

	notifier, err := service.NotifierBuilder().Create()
	if err != nil {
		log.Fatalf("unable to create notifier: %v", err)
	}
	defer notifier.Close()

	fmt.Println("notifier ready to send events!")

	var eventID uint64
	for {
		fmt.Printf("triggering event with id: %d\n", eventID)

		if err := notifier.NotifyWithId(eventID); err != nil && !errors.Is(err, shmbus.MissedDeadline) {
			log.Printf("failed to notify: %v", err)
		}

		eventID++
		if err := node.Wait(time.Second); err != nil {
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
