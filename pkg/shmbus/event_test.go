package shmbus

import (
	"errors"
	"testing"
	"time"
)

func newEventService(t *testing.T, cfg Config, name string) (*Node, *PortFactoryEvent) {
	t.Helper()

	node, err := NewNodeBuilder().WithConfig(cfg).Create()
	if err != nil {
		t.Fatalf("node create failed: %v", err)
	}

	serviceName, err := NewServiceName(name)
	if err != nil {
		t.Fatalf("invalid service name: %v", err)
	}

	factory, err := node.ServiceBuilder(serviceName).Event().OpenOrCreate()
	if err != nil {
		node.Close()
		t.Fatalf("service open-or-create failed: %v", err)
	}
	return node, factory
}

func TestNotifyDeliversEventIdToListener(t *testing.T) {
	cfg := testConfig(t)
	node, factory := newEventService(t, cfg, "event/basic")
	defer node.Close()
	defer factory.Close()

	notifier, err := factory.NotifierBuilder().Create()
	if err != nil {
		t.Fatalf("notifier create failed: %v", err)
	}
	defer notifier.Close()

	listener, err := factory.ListenerBuilder().Create()
	if err != nil {
		t.Fatalf("listener create failed: %v", err)
	}
	defer listener.Close()

	if err := notifier.NotifyWithId(42); err != nil {
		t.Fatalf("notify failed: %v", err)
	}

	eventID, ok, err := listener.TryWaitOne()
	if err != nil {
		t.Fatalf("try wait failed: %v", err)
	}
	if !ok || eventID != 42 {
		t.Fatalf("expected event id 42, got id=%d ok=%v", eventID, ok)
	}
}

func TestNotifyRejectsEventIdBeyondMax(t *testing.T) {
	cfg := testConfig(t)
	node, err := NewNodeBuilder().WithConfig(cfg).Create()
	if err != nil {
		t.Fatalf("node create failed: %v", err)
	}
	defer node.Close()

	serviceName, _ := NewServiceName("event/bounded")
	factory, err := node.ServiceBuilder(serviceName).Event().EventIdMaxValue(10).Create()
	if err != nil {
		t.Fatalf("service create failed: %v", err)
	}
	defer factory.Close()

	notifier, err := factory.NotifierBuilder().Create()
	if err != nil {
		t.Fatalf("notifier create failed: %v", err)
	}
	defer notifier.Close()

	if err := notifier.NotifyWithId(11); !errors.Is(err, NotifierNotifyErrorEventIdOutOfBounds) {
		t.Fatalf("expected NotifierNotifyErrorEventIdOutOfBounds, got %v", err)
	}
}

func TestBlockingWaitOneTimesOutWithoutNotify(t *testing.T) {
	cfg := testConfig(t)
	node, factory := newEventService(t, cfg, "event-timeout")
	defer node.Close()
	defer factory.Close()

	listener, err := factory.ListenerBuilder().Create()
	if err != nil {
		t.Fatalf("listener create failed: %v", err)
	}
	defer listener.Close()

	_, ok, err := listener.BlockingWaitOne(30 * time.Millisecond)
	if err != nil {
		t.Fatalf("blocking wait failed: %v", err)
	}
	if ok {
		t.Fatalf("expected no event to be pending")
	}
}

func TestEventChannelForwardsNotifications(t *testing.T) {
	cfg := testConfig(t)
	node, factory := newEventService(t, cfg, "event/channel")
	defer node.Close()
	defer factory.Close()

	notifier, err := factory.NotifierBuilder().DefaultEvent(5).Create()
	if err != nil {
		t.Fatalf("notifier create failed: %v", err)
	}
	defer notifier.Close()

	listener, err := factory.ListenerBuilder().Create()
	if err != nil {
		t.Fatalf("listener create failed: %v", err)
	}
	defer listener.Close()

	ch := NewEventChannel(listener)
	defer ch.Stop()

	if err := notifier.Notify(); err != nil {
		t.Fatalf("notify failed: %v", err)
	}

	select {
	case id := <-ch.C:
		if id != 5 {
			t.Fatalf("expected event id 5, got %d", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the event channel to forward a notification")
	}
}

func TestNotifierCloseBroadcastsConfiguredDroppedEvent(t *testing.T) {
	cfg := testConfig(t)
	node, err := NewNodeBuilder().WithConfig(cfg).Create()
	if err != nil {
		t.Fatalf("node create failed: %v", err)
	}
	defer node.Close()

	serviceName, _ := NewServiceName("event/dropped")
	factory, err := node.ServiceBuilder(serviceName).Event().NotifierDroppedEvent(99).Create()
	if err != nil {
		t.Fatalf("service create failed: %v", err)
	}
	defer factory.Close()

	notifier, err := factory.NotifierBuilder().Create()
	if err != nil {
		t.Fatalf("notifier create failed: %v", err)
	}

	listener, err := factory.ListenerBuilder().Create()
	if err != nil {
		t.Fatalf("listener create failed: %v", err)
	}
	defer listener.Close()

	notifier.Close()

	eventID, ok, err := listener.TryWaitOne()
	if err != nil {
		t.Fatalf("try wait failed: %v", err)
	}
	if !ok || eventID != 99 {
		t.Fatalf("expected the configured dropped-notifier event 99, got id=%d ok=%v", eventID, ok)
	}
}
