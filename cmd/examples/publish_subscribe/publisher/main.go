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

// Command publisher demonstrates a zero-copy publish-subscribe publisher.
// Run the subscriber first, then this publisher in a separate terminal.
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/shmbus/shmbus/pkg/shmbus"
)

// TransmissionData is the payload type being published.
type TransmissionData struct {
	X     int32
	Y     int32
	Funky float64
}

func main() {
	node, err := shmbus.NewNodeBuilder().
		Name(mustNodeName("publisher-node")).
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

	publisher, err := service.PublisherBuilder().Create()
	if err != nil {
		log.Fatalf("unable to create publisher: %v", err)
	}
	defer publisher.Close()

	fmt.Println("publisher ready to publish!")

	var counter int32
	for {
		sample, err := publisher.Loan()
		if err != nil {
			log.Printf("unable to loan sample: %v", err)
			time.Sleep(time.Second)
			continue
		}

		counter++
		data := TransmissionData{X: counter, Y: counter * 3, Funky: float64(counter) * 812.12}
		shmbus.WritePayloadAs(sample, &data)

		if err := sample.Send(); err != nil {
			log.Printf("unable to send sample: %v", err)
			continue
		}

		fmt.Printf("sent %+v\n", data)
		if err := node.Wait(time.Second); err != nil {
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
