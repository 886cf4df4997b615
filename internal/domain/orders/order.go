package orders

import "time"

// Conventional status values. The store deliberately accepts any string for
// both fields; these constants only name the transitions the saga and the
// reconciliation handler rely on.
const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"

	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// OrderItem is a line of an order. The menu item reference is validated
// against the menu service at creation time only; name and price live there.
type OrderItem struct {
	ID         int64
	OrderID    string
	MenuItemID int64
	Quantity   int
	Notes      string
	Status     string
}

// Order is the aggregate owned exclusively by the order service. Other
// services see it only through events and the table-scoped read API.
type Order struct {
	ID            string // UUID
	TableNumber   int
	Status        string
	PaymentStatus string
	TotalAmount   Money // point-in-time snapshot from menu prices at creation
	CreatedAt     time.Time
	CompletedAt   *time.Time
	Items         []OrderItem
}

// Active reports whether the order still counts toward a table's open bill.
func (o *Order) Active() bool {
	return o.Status != StatusCompleted && o.Status != StatusCancelled
}
