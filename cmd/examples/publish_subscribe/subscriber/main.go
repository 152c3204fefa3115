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

// Command subscriber demonstrates a zero-copy publish-subscribe
// subscriber, reading samples written in place by the publisher example.
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/shmbus/shmbus/pkg/shmbus"
)

// TransmissionData mirrors the publisher example's payload type; the
// service only connects if its type descriptor matches exactly.
type TransmissionData struct {
	X     int32
	Y     int32
	Funky float64
}

func main() {
	node, err := shmbus.NewNodeBuilder().
		Name(mustNodeName("subscriber-node")).
		Create()
	if err != nil {
		log.Fatalf("could not create node: %v", err)
	}
	defer node.Close()

	serviceName, err := shmbus.NewServiceName("My-Funky-Service")
	if err != nil {
		log.Fatalf("unable to create service name: %v", err)
	}

	typeName, size, align := shmbus.TypeDetailsOf[TransmissionData]()
	service, err := node.ServiceBuilder(serviceName).
		PublishSubscribe().
		PayloadType(typeName, size, align).
		OpenOrCreate()
	if err != nil {
		log.Fatalf("unable to create service: %v", err)
	}
	defer service.Close()

	subscriber, err := service.SubscriberBuilder().Create()
	if err != nil {
		log.Fatalf("unable to create subscriber: %v", err)
	}
	defer subscriber.Close()

	fmt.Println("subscriber ready to receive!")

	for {
		for {
			sample, ok, err := subscriber.Receive()
			if err != nil {
				log.Printf("receive failed: %v", err)
				break
			}
			if !ok {
				break
			}
			data := shmbus.PayloadAs[TransmissionData](sample)
			fmt.Printf("received %+v from %s\n", *data, sample.Header().PublisherID())
			sample.Close()
		}
		if err := node.Wait(100 * time.Millisecond); err != nil {
			fmt.Println("shutting down:", err)
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
