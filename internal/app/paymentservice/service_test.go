package paymentservice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dinesync/internal/domain/orders"
	"dinesync/internal/domain/payments"
	"dinesync/internal/ports"
	"dinesync/internal/shared/logger"
)

type fakeUoW struct{}

func (fakeUoW) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePaymentRepo struct {
	payments   []payments.Payment
	receipts   []payments.Receipt
	paymentErr error
	receiptErr error
}

func (r *fakePaymentRepo) CreatePayment(ctx context.Context, p *payments.Payment) error {
	if r.paymentErr != nil {
		return r.paymentErr
	}
	r.payments = append(r.payments, *p)
	return nil
}

func (r *fakePaymentRepo) CreateReceipt(ctx context.Context, rc *payments.Receipt) error {
	if r.receiptErr != nil {
		return r.receiptErr
	}
	r.receipts = append(r.receipts, *rc)
	return nil
}

type fakeOrderClient struct {
	orders  []ports.RemoteOrder
	listErr error
	failIDs map[string]bool
	updated []string
}

func (c *fakeOrderClient) ListTableOrders(ctx context.Context, tableNumber int, tableAuth string) ([]ports.RemoteOrder, error) {
	return c.orders, c.listErr
}

func (c *fakeOrderClient) UpdateOrder(ctx context.Context, orderID, status, paymentStatus string) error {
	if c.failIDs[orderID] {
		return errors.New("order service returned 500")
	}
	c.updated = append(c.updated, orderID)
	return nil
}

type fakePublisher struct {
	events []publishedEvent
}

type publishedEvent struct {
	eventType string
	payload   map[string]any
}

func (p *fakePublisher) Publish(ctx context.Context, eventType string, payload map[string]any) bool {
	p.events = append(p.events, publishedEvent{eventType, payload})
	return true
}

func newTestService(repo *fakePaymentRepo, client *fakeOrderClient, pub *fakePublisher) *Service {
	svc := New(fakeUoW{}, repo, client, pub, logger.New("test"))
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC) }
	return svc
}

func TestCheckoutPaysEveryActiveOrder(t *testing.T) {
	repo := &fakePaymentRepo{}
	client := &fakeOrderClient{orders: []ports.RemoteOrder{
		{ID: "o1", TableNumber: 5, TotalAmount: orders.NewMoneyFromFloat2(10.00)},
		{ID: "o2", TableNumber: 5, TotalAmount: orders.NewMoneyFromFloat2(15.50)},
	}}
	pub := &fakePublisher{}

	result, err := newTestService(repo, client, pub).Checkout(context.Background(), 5, "card", "token")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if result.OrdersProcessed != 2 {
		t.Errorf("orders processed = %d, want 2", result.OrdersProcessed)
	}
	if got := result.TotalAmount.ToFloat2(); got != 25.50 {
		t.Errorf("total = %.2f, want 25.50", got)
	}
	if len(repo.payments) != 2 {
		t.Errorf("payments recorded = %d, want 2", len(repo.payments))
	}
	if len(repo.receipts) != 2 {
		t.Errorf("receipts recorded = %d, want 2", len(repo.receipts))
	}

	// one receipt number covers the batch
	if repo.receipts[0].ReceiptNumber != repo.receipts[1].ReceiptNumber {
		t.Errorf("receipt numbers differ: %q vs %q",
			repo.receipts[0].ReceiptNumber, repo.receipts[1].ReceiptNumber)
	}
	if !strings.HasPrefix(result.ReceiptNumber, "REC-") {
		t.Errorf("receipt number %q missing REC- prefix", result.ReceiptNumber)
	}

	var processed int
	for _, ev := range pub.events {
		if ev.eventType == "payment_processed" {
			processed++
		}
	}
	if processed != 2 {
		t.Errorf("payment_processed events = %d, want 2", processed)
	}
}

// A failed remote status flip does not undo the payment or stop the loop; the
// order is flagged for event-driven reconciliation instead.
func TestCheckoutContinuesPastRemoteUpdateFailure(t *testing.T) {
	repo := &fakePaymentRepo{}
	client := &fakeOrderClient{
		orders: []ports.RemoteOrder{
			{ID: "o1", TableNumber: 5, TotalAmount: orders.NewMoneyFromFloat2(10.00)},
			{ID: "o2", TableNumber: 5, TotalAmount: orders.NewMoneyFromFloat2(15.00)},
		},
		failIDs: map[string]bool{"o2": true},
	}
	pub := &fakePublisher{}

	result, err := newTestService(repo, client, pub).Checkout(context.Background(), 5, "cash", "token")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if result.OrdersProcessed != 2 {
		t.Errorf("orders processed = %d, want 2", result.OrdersProcessed)
	}
	if got := result.TotalAmount.ToFloat2(); got != 25.00 {
		t.Errorf("total = %.2f, want 25.00", got)
	}
	if len(repo.payments) != 2 {
		t.Errorf("payments recorded = %d, want 2", len(repo.payments))
	}

	var o2 *ports.OrderResult
	for i := range result.Orders {
		if result.Orders[i].OrderID == "o2" {
			o2 = &result.Orders[i]
		}
	}
	if o2 == nil {
		t.Fatal("o2 missing from results")
	}
	if o2.Updated {
		t.Error("o2 reported updated despite remote failure")
	}

	// the event still goes out so the order side can reconcile
	var processed int
	for _, ev := range pub.events {
		if ev.eventType == "payment_processed" {
			processed++
		}
	}
	if processed != 2 {
		t.Errorf("payment_processed events = %d, want 2", processed)
	}
}

func TestCheckoutNoActiveOrders(t *testing.T) {
	svc := newTestService(&fakePaymentRepo{}, &fakeOrderClient{}, &fakePublisher{})

	_, err := svc.Checkout(context.Background(), 5, "card", "token")
	if !errors.Is(err, ErrNoActiveOrders) {
		t.Fatalf("expected ErrNoActiveOrders, got %v", err)
	}
}

// A database failure mid-loop aborts the checkout; payments already written
// stay written.
func TestCheckoutAbortsOnPaymentInsertFailure(t *testing.T) {
	repo := &fakePaymentRepo{paymentErr: errors.New("connection reset")}
	client := &fakeOrderClient{orders: []ports.RemoteOrder{
		{ID: "o1", TableNumber: 5, TotalAmount: orders.NewMoneyFromFloat2(10.00)},
	}}
	pub := &fakePublisher{}

	_, err := newTestService(repo, client, pub).Checkout(context.Background(), 5, "card", "token")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(client.updated) != 0 {
		t.Error("remote update ran despite payment insert failure")
	}
	if len(pub.events) != 0 {
		t.Error("events published despite payment insert failure")
	}
}

func TestCheckoutDefaultsMethod(t *testing.T) {
	repo := &fakePaymentRepo{}
	client := &fakeOrderClient{orders: []ports.RemoteOrder{
		{ID: "o1", TableNumber: 5, TotalAmount: orders.NewMoneyFromFloat2(8.00)},
	}}

	result, err := newTestService(repo, client, &fakePublisher{}).Checkout(context.Background(), 5, "", "token")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if result.Method != "card" {
		t.Errorf("method = %q, want card", result.Method)
	}
}
