package ports

import (
	"context"
	"time"

	"dinesync/internal/domain/orders"
)

// Publisher announces a domain event on the bus. The bool result is the whole
// failure-visibility contract: false means the event was lost and nothing
// will retry it.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload map[string]any) bool
}

// OrderService owns the order aggregate and its table-scoped reads.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (OrderCreated, error)
	GetOrder(ctx context.Context, id string) (*OrderView, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]OrderSummary, error)
	UpdateOrder(ctx context.Context, id string, upd OrderUpdate) error
	UpdateOrderItem(ctx context.Context, itemID int64, upd OrderItemUpdate) error
	ListTableOrders(ctx context.Context, tableNumber int) ([]OrderView, error)
}

type CreateOrderCommand struct {
	TableNumber   int
	PaymentStatus string // defaults to unpaid
	Items         []ItemInput
}

type ItemInput struct {
	MenuItemID int64
	Quantity   int
	Notes      string
}

type OrderCreated struct {
	ID string
}

// OrderUpdate is a partial update; nil fields are left untouched. Status
// strings are accepted as-is, by design.
type OrderUpdate struct {
	Status        *string
	PaymentStatus *string
}

type OrderItemUpdate struct {
	Status   *string
	Notes    *string
	Quantity *int
}

type OrderFilter struct {
	Status string
	Date   string // "all", "today", "yesterday", "week", "month"
}

// OrderSummary is the list-view row: header fields plus an item count.
type OrderSummary struct {
	ID          string
	TableNumber int
	Status      string
	TotalAmount orders.Money
	CreatedAt   time.Time
	CompletedAt *time.Time
	ItemCount   int
}

// OrderView is a full order with menu-enriched items.
type OrderView struct {
	ID            string
	TableNumber   int
	Status        string
	PaymentStatus string
	TotalAmount   orders.Money
	CreatedAt     time.Time
	CompletedAt   *time.Time
	Items         []OrderItemView
}

// OrderItemView joins the stored line with the menu service's current name,
// price, and image. Enrichment is best effort; unreachable menu items come
// back as "Unknown Item" with a zero price.
type OrderItemView struct {
	ID         int64
	MenuItemID int64
	Quantity   int
	Notes      string
	Status     string
	Name       string
	Price      orders.Money
	ImagePath  string
}

// CheckoutService runs the table checkout saga.
type CheckoutService interface {
	Checkout(ctx context.Context, tableNumber int, method, tableAuth string) (CheckoutResult, error)
}

// OrderResult records one order's outcome inside a checkout. Updated is false
// when the remote status flip failed and the order is waiting on the
// payment_processed reconciliation path.
type OrderResult struct {
	OrderID   string
	PaymentID string
	Amount    orders.Money
	Updated   bool
}

type CheckoutResult struct {
	ReceiptNumber   string
	Method          string
	TotalAmount     orders.Money
	OrdersProcessed int
	Orders          []OrderResult
}

// TokenService is the table session authority.
type TokenService interface {
	IssueToken(ctx context.Context, tableNumber int) (IssuedToken, error)
}

type IssuedToken struct {
	Token       string
	TableNumber int
	ExpiresAt   time.Time
}
