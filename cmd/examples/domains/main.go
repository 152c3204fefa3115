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

// Command domains demonstrates prefix ("domain") isolation: two services
// with the identical name, created under different global.prefix values,
// never see each other's samples. It publishes into domain "domain_a"
// and subscribes from domain "domain_b" to prove no cross-talk, then
// repeats within one domain to show delivery does happen there.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/shmbus/shmbus/pkg/shmbus"
)

// TransmissionData is the demo payload, shared across both domains'
// services (the type contract, not the prefix, is what the registry
// compares on open).
type TransmissionData struct {
	X int32
	Y int32
}

func main() {
	serviceName, err := shmbus.NewServiceName("domains_example")
	if err != nil {
		log.Fatalf("invalid service name: %v", err)
	}

	fmt.Println("=== cross-domain: publish in domain_a, subscribe in domain_b ===")
	runIsolationCheck(serviceName, "domain_a", "domain_b")

	fmt.Println("\n=== same-domain: publish and subscribe both in domain_a ===")
	runIsolationCheck(serviceName, "domain_a", "domain_a")
}

func runIsolationCheck(serviceName shmbus.ServiceName, publishPrefix, subscribePrefix string) {
	root := os.TempDir() + "/shmbus-domains-demo"
	base := shmbus.GlobalConfig()

	pubConfig := base
	pubConfig.RootPath = root
	pubConfig.Prefix = publishPrefix

	pubNode, err := shmbus.NewNodeBuilder().
		WithConfig(pubConfig).
		Create()
	if err != nil {
		log.Fatalf("failed to create publisher node: %v", err)
	}
	defer pubNode.Close()

	typeName, size, align := shmbus.TypeDetailsOf[TransmissionData]()
	pubService, err := pubNode.ServiceBuilder(serviceName).
		PublishSubscribe().
		PayloadType(typeName, size, align).
		OpenOrCreate()
	if err != nil {
		log.Fatalf("failed to open publisher-side service: %v", err)
	}
	defer pubService.Close()

	publisher, err := pubService.PublisherBuilder().Create()
	if err != nil {
		log.Fatalf("failed to create publisher: %v", err)
	}
	defer publisher.Close()

	subConfig := base
	subConfig.RootPath = root
	subConfig.Prefix = subscribePrefix

	subNode, err := shmbus.NewNodeBuilder().
		WithConfig(subConfig).
		Create()
	if err != nil {
		log.Fatalf("failed to create subscriber node: %v", err)
	}
	defer subNode.Close()

	subService, err := subNode.ServiceBuilder(serviceName).
		PublishSubscribe().
		PayloadType(typeName, size, align).
		OpenOrCreate()
	if err != nil {
		log.Fatalf("failed to open subscriber-side service: %v", err)
	}
	defer subService.Close()

	subscriber, err := subService.SubscriberBuilder().Create()
	if err != nil {
		log.Fatalf("failed to create subscriber: %v", err)
	}
	defer subscriber.Close()

	sample, err := publisher.Loan()
	if err != nil {
		log.Fatalf("failed to loan sample: %v", err)
	}
	data := TransmissionData{X: 1, Y: 2}
	shmbus.WritePayloadAs(sample, &data)
	if err := sample.Send(); err != nil {
		log.Fatalf("failed to send sample: %v", err)
	}

	received, ok, err := subscriber.Receive()
	if err != nil {
		log.Fatalf("receive failed: %v", err)
	}
	if publishPrefix == subscribePrefix {
		if !ok {
			fmt.Println("unexpected: same-domain subscriber received nothing")
			return
		}
		fmt.Printf("subscriber in %q received %+v as expected\n", subscribePrefix, *shmbus.PayloadAs[TransmissionData](received))
		received.Close()
		return
	}
	if ok {
		fmt.Println("unexpected: cross-domain subscriber received a sample")
		received.Close()
		return
	}
	fmt.Printf("subscriber in %q correctly saw no sample published in %q\n", subscribePrefix, publishPrefix)
}
