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

// Package shmbus is a zero-copy inter-process communication middleware: a
// shared-memory publish-subscribe and event transport for independent
// processes on the same host, with no kernel-mediated data copies on the
// delivery path.
//
// # Getting Started
//
// Create a node, the entry point every port is built through:
//
//	name, _ := shmbus.NewNodeName("my-app")
//	node, err := shmbus.NewNodeBuilder().
//	    Name(name).
//	    Create()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close()
//
// # Publish-Subscribe Pattern
//
// Publisher:
//
//	serviceName, _ := shmbus.NewServiceName("my-service")
//	service, _ := node.ServiceBuilder(serviceName).
//	    PublishSubscribe().
//	    PayloadType("uint64", 8, 8).
//	    OpenOrCreate()
//	defer service.Close()
//
//	publisher, _ := service.PublisherBuilder().Create()
//	defer publisher.Close()
//
//	sample, _ := publisher.Loan()
//	shmbus.WritePayloadAs(sample, &value)
//	sample.Send()
//
// Subscriber:
//
//	subscriber, _ := service.SubscriberBuilder().Create()
//	defer subscriber.Close()
//
//	sample, ok, _ := subscriber.Receive()
//	if ok {
//	    value := *shmbus.PayloadAs[uint64](sample)
//	    sample.Close()
//	}
//
// # Event Pattern
//
// Notifier:
//
//	service, _ := node.ServiceBuilder(serviceName).
//	    Event().
//	    OpenOrCreate()
//
//	notifier, _ := service.NotifierBuilder().DefaultEvent(0).Create()
//	notifier.Notify()
//
// Listener:
//
//	listener, _ := service.ListenerBuilder().Create()
//	for {
//	    eventID, ok, _ := listener.BlockingWaitOne(time.Second)
//	    if ok {
//	        // Handle eventID...
//	    }
//	}
package shmbus
