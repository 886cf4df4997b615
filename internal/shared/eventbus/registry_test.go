package eventbus

import (
	"context"
	"reflect"
	"testing"
)

func TestRegistryDispatchOrder(t *testing.T) {
	reg := NewRegistry()

	var calls []string
	reg.Register("order_created", func(ctx context.Context, payload map[string]any) error {
		calls = append(calls, "first")
		return nil
	})
	reg.Register("order_created", func(ctx context.Context, payload map[string]any) error {
		calls = append(calls, "second")
		return nil
	})

	for _, h := range reg.Handlers("order_created") {
		_ = h(context.Background(), nil)
	}

	if !reflect.DeepEqual(calls, []string{"first", "second"}) {
		t.Fatalf("handlers ran as %v, want registration order", calls)
	}
}

func TestRegistryUnknownType(t *testing.T) {
	reg := NewRegistry()
	if got := reg.Handlers("never_registered"); len(got) != 0 {
		t.Fatalf("expected no handlers, got %d", len(got))
	}
}

func TestRegistryEventTypesSorted(t *testing.T) {
	reg := NewRegistry()
	noop := func(ctx context.Context, payload map[string]any) error { return nil }
	reg.Register("payment_processed", noop)
	reg.Register("menu_updated", noop)
	reg.Register("order_created", noop)

	want := []string{"menu_updated", "order_created", "payment_processed"}
	if got := reg.EventTypes(); !reflect.DeepEqual(got, want) {
		t.Fatalf("EventTypes() = %v, want %v", got, want)
	}
}

func TestQueueNameStableAcrossOrdering(t *testing.T) {
	a := QueueName("order-service", []string{"payment_processed", "menu_item_availability_updated"})
	b := QueueName("order-service", []string{"menu_item_availability_updated", "payment_processed"})

	if a != b {
		t.Fatalf("queue names differ: %q vs %q", a, b)
	}
	want := "order-service-menu_item_availability_updated-payment_processed"
	if a != want {
		t.Fatalf("QueueName = %q, want %q", a, want)
	}
}
