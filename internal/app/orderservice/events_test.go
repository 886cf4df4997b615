package orderservice

import (
	"context"
	"testing"

	"dinesync/internal/domain/orders"
	"dinesync/internal/shared/eventbus"
)

func TestHandlePaymentProcessedMarksOrderCompleted(t *testing.T) {
	repo := newFakeOrderRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, testMenu(), pub)

	repo.byID["o1"] = &orders.Order{ID: "o1", TableNumber: 5, Status: orders.StatusPending}

	reg := eventbus.NewRegistry()
	svc.RegisterEventHandlers(reg)

	handlers := reg.Handlers("payment_processed")
	if len(handlers) != 1 {
		t.Fatalf("payment_processed handlers = %d, want 1", len(handlers))
	}
	if err := handlers[0](context.Background(), map[string]any{"order_id": "o1"}); err != nil {
		t.Fatalf("handler: %v", err)
	}

	order := repo.byID["o1"]
	if order.Status != orders.StatusCompleted || order.PaymentStatus != orders.PaymentStatusPaid {
		t.Errorf("order state = %s/%s, want Completed/paid", order.Status, order.PaymentStatus)
	}
	if order.CompletedAt == nil {
		t.Error("completed_at not set")
	}

	if len(pub.events) != 1 || pub.events[0].eventType != "order_updated" {
		t.Fatalf("events = %v, want one order_updated", pub.events)
	}
}

func TestHandlePaymentProcessedMissingOrderID(t *testing.T) {
	svc := newTestService(newFakeOrderRepo(), testMenu(), &fakePublisher{})

	if err := svc.handlePaymentProcessed(context.Background(), map[string]any{}); err == nil {
		t.Fatal("expected error for missing order_id")
	}
}

func TestRegisterEventHandlersSubscriptions(t *testing.T) {
	svc := newTestService(newFakeOrderRepo(), testMenu(), &fakePublisher{})

	reg := eventbus.NewRegistry()
	svc.RegisterEventHandlers(reg)

	want := []string{"menu_item_availability_updated", "payment_processed"}
	got := reg.EventTypes()
	if len(got) != len(want) {
		t.Fatalf("event types = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event types = %v, want %v", got, want)
		}
	}
}
