package events

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestBusFanOut(t *testing.T) {
	var bus Bus
	var first, second int
	bus.Subscribe(TopicOrderCreated, func(context.Context, Event) { first++ })
	bus.Subscribe(TopicOrderCreated, func(context.Context, Event) { second++ })
	bus.Subscribe(TopicSettingsUpdated, func(context.Context, Event) { t.Fatal("wrong topic delivered") })

	bus.Publish(context.Background(), Event{Topic: TopicOrderCreated, OrderID: uuid.New()})
	if first != 1 || second != 1 {
		t.Fatalf("fan-out: first=%d second=%d", first, second)
	}
}

func TestBusStampsOccurredAt(t *testing.T) {
	var bus Bus
	var got Event
	bus.Subscribe(TopicOrderStatusChanged, func(_ context.Context, ev Event) { got = ev })

	bus.Publish(context.Background(), Event{Topic: TopicOrderStatusChanged})
	if got.OccurredAt.IsZero() {
		t.Fatal("expected OccurredAt to be stamped")
	}
}

func TestBusNoSubscribers(t *testing.T) {
	var bus Bus
	bus.Publish(context.Background(), Event{Topic: "unknown.topic"})
}

func TestNilBus(t *testing.T) {
	var bus *Bus
	bus.Subscribe(TopicOrderCreated, func(context.Context, Event) {})
	bus.Publish(context.Background(), Event{Topic: TopicOrderCreated})
}
