package shmbus

import "testing"

type pubsubPayload struct {
	X int32
	Y int32
}

func newPubSubService(t *testing.T, cfg Config, name string) (*Node, *PortFactoryPubSub) {
	t.Helper()

	node, err := NewNodeBuilder().WithConfig(cfg).Create()
	if err != nil {
		t.Fatalf("node create failed: %v", err)
	}

	serviceName, err := NewServiceName(name)
	if err != nil {
		t.Fatalf("invalid service name: %v", err)
	}
	typeName, size, align := TypeDetailsOf[pubsubPayload]()

	factory, err := node.ServiceBuilder(serviceName).
		PublishSubscribe().
		PayloadType(typeName, size, align).
		OpenOrCreate()
	if err != nil {
		node.Close()
		t.Fatalf("service open-or-create failed: %v", err)
	}
	return node, factory
}

func TestPublishSubscribeDeliversSample(t *testing.T) {
	cfg := testConfig(t)
	node, factory := newPubSubService(t, cfg, "pubsub/sample")
	defer node.Close()
	defer factory.Close()

	publisher, err := factory.PublisherBuilder().Create()
	if err != nil {
		t.Fatalf("publisher create failed: %v", err)
	}
	defer publisher.Close()

	subscriber, err := factory.SubscriberBuilder().Create()
	if err != nil {
		t.Fatalf("subscriber create failed: %v", err)
	}
	defer subscriber.Close()

	sample, err := publisher.Loan()
	if err != nil {
		t.Fatalf("loan failed: %v", err)
	}
	WritePayloadAs(sample, &pubsubPayload{X: 7, Y: 9})
	if err := sample.Send(); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	received, ok, err := subscriber.Receive()
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected a sample to be received")
	}
	defer received.Close()

	got := PayloadAs[pubsubPayload](received)
	if got.X != 7 || got.Y != 9 {
		t.Fatalf("expected {7 9}, got %+v", *got)
	}
	if received.Header().PublisherID() != publisher.ID() {
		t.Fatalf("expected the received header to name the sending publisher")
	}
}

func TestReceiveWithoutAnySendReturnsNotOk(t *testing.T) {
	cfg := testConfig(t)
	node, factory := newPubSubService(t, cfg, "pubsub-empty")
	defer node.Close()
	defer factory.Close()

	subscriber, err := factory.SubscriberBuilder().Create()
	if err != nil {
		t.Fatalf("subscriber create failed: %v", err)
	}
	defer subscriber.Close()

	_, ok, err := subscriber.Receive()
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if ok {
		t.Fatalf("expected no sample to be available")
	}
}

func TestSampleMutCloseWithoutSendReleasesSlotForReuse(t *testing.T) {
	cfg := testConfig(t)
	node, factory := newPubSubService(t, cfg, "pubsub/discard")
	defer node.Close()
	defer factory.Close()

	publisher, err := factory.PublisherBuilder().MaxLoanedSamples(1).Create()
	if err != nil {
		t.Fatalf("publisher create failed: %v", err)
	}
	defer publisher.Close()

	sample, err := publisher.Loan()
	if err != nil {
		t.Fatalf("loan failed: %v", err)
	}
	if err := sample.Close(); err != nil {
		t.Fatalf("discard failed: %v", err)
	}

	if _, err := publisher.Loan(); err != nil {
		t.Fatalf("expected the discarded slot to be reusable, got %v", err)
	}
}

func TestPublisherLoanFailsBeyondMaxLoanedSamples(t *testing.T) {
	cfg := testConfig(t)
	node, factory := newPubSubService(t, cfg, "pubsub-max-loans")
	defer node.Close()
	defer factory.Close()

	publisher, err := factory.PublisherBuilder().MaxLoanedSamples(1).Create()
	if err != nil {
		t.Fatalf("publisher create failed: %v", err)
	}
	defer publisher.Close()

	if _, err := publisher.Loan(); err != nil {
		t.Fatalf("first loan failed: %v", err)
	}
	if _, err := publisher.Loan(); err == nil {
		t.Fatalf("expected the second loan to fail while the publisher holds its one allowed loan")
	}
}

func TestLateJoiningSubscriberReceivesRetainedHistory(t *testing.T) {
	cfg := testConfig(t)
	node, err := NewNodeBuilder().WithConfig(cfg).Create()
	if err != nil {
		t.Fatalf("node create failed: %v", err)
	}
	defer node.Close()

	serviceName, err := NewServiceName("pubsub-history")
	if err != nil {
		t.Fatalf("invalid service name: %v", err)
	}
	typeName, size, align := TypeDetailsOf[pubsubPayload]()

	factory, err := node.ServiceBuilder(serviceName).
		PublishSubscribe().
		PayloadType(typeName, size, align).
		HistorySize(3).
		OpenOrCreate()
	if err != nil {
		t.Fatalf("service open-or-create failed: %v", err)
	}
	defer factory.Close()

	publisher, err := factory.PublisherBuilder().Create()
	if err != nil {
		t.Fatalf("publisher create failed: %v", err)
	}
	defer publisher.Close()

	for _, v := range []int32{10, 20, 30, 40} {
		sample, err := publisher.Loan()
		if err != nil {
			t.Fatalf("loan failed: %v", err)
		}
		WritePayloadAs(sample, &pubsubPayload{X: v})
		if err := sample.Send(); err != nil {
			t.Fatalf("send failed: %v", err)
		}
	}

	subscriber, err := factory.SubscriberBuilder().Create()
	if err != nil {
		t.Fatalf("subscriber create failed: %v", err)
	}
	defer subscriber.Close()

	if _, ok, err := subscriber.Receive(); err != nil || ok {
		t.Fatalf("expected no sample before history replay, got ok=%v err=%v", ok, err)
	}

	publisher.UpdateConnections()

	for _, want := range []int32{20, 30, 40} {
		received, ok, err := subscriber.Receive()
		if err != nil {
			t.Fatalf("receive failed: %v", err)
		}
		if !ok {
			t.Fatalf("expected replayed sample %d to be available", want)
		}
		got := PayloadAs[pubsubPayload](received)
		if got.X != want {
			t.Fatalf("expected replayed payload %d, got %d", want, got.X)
		}
		received.Close()
	}

	if _, ok, err := subscriber.Receive(); err != nil || ok {
		t.Fatalf("expected only 3 replayed samples, got another one (ok=%v err=%v)", ok, err)
	}
}

func TestPublisherAfterCloseRejectsLoan(t *testing.T) {
	cfg := testConfig(t)
	node, factory := newPubSubService(t, cfg, "pubsub/closed")
	defer node.Close()
	defer factory.Close()

	publisher, err := factory.PublisherBuilder().Create()
	if err != nil {
		t.Fatalf("publisher create failed: %v", err)
	}
	publisher.Close()

	if _, err := publisher.Loan(); err == nil {
		t.Fatalf("expected Loan on a closed publisher to fail")
	}
}
