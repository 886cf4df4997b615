package ports

import (
	"context"
	"time"

	"dinesync/internal/domain/orders"
	"dinesync/internal/domain/payments"
)

// UnitOfWork wraps a function in a DB transaction.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderRepository persists orders and their items.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o *orders.Order) error
	GetOrder(ctx context.Context, id string) (*orders.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]OrderSummary, error)
	// ListActiveByTable returns orders (with items) whose status is not
	// Completed or Cancelled, newest first.
	ListActiveByTable(ctx context.Context, tableNumber int) ([]orders.Order, error)
	// UpdateOrder applies a partial update; found=false when no such order.
	UpdateOrder(ctx context.Context, id string, upd OrderUpdate, completedAt *time.Time) (found bool, err error)
	// UpdateOrderItem applies a partial item update and returns the owning
	// order id; found=false when no such item.
	UpdateOrderItem(ctx context.Context, itemID int64, upd OrderItemUpdate) (orderID string, found bool, err error)
	SetOrderTotal(ctx context.Context, orderID string, total orders.Money) error
	// MarkCompletedPaid flips the order and all of its items to Completed/paid.
	// Idempotent: re-applying to a completed order is a no-op update.
	MarkCompletedPaid(ctx context.Context, orderID string, at time.Time) error
}

// PaymentRepository persists payments and receipts.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, p *payments.Payment) error
	CreateReceipt(ctx context.Context, r *payments.Receipt) error
}

// TokenRepository stores issued table tokens. Eviction is lazy: expired rows
// for a table are deleted when a new token for it is issued, never by a
// background sweep.
type TokenRepository interface {
	DeleteExpired(ctx context.Context, tableNumber int, now time.Time) error
	StoreToken(ctx context.Context, tableNumber int, token string, issuedAt, expiresAt time.Time) error
}
