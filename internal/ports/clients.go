package ports

import (
	"context"

	"dinesync/internal/domain/orders"
)

// MenuClient reads menu items from the menu service. The menu service itself
// is an external collaborator; only this boundary is part of the core.
type MenuClient interface {
	GetItem(ctx context.Context, id int64) (MenuItem, error)
}

type MenuItem struct {
	ID        int64
	Name      string
	Price     orders.Money
	Available bool
	ImagePath string
}

// OrderClient is the checkout saga's synchronous view of the order service:
// read a table's active orders, flip one order's status. Everything else
// between the two services flows through events.
type OrderClient interface {
	ListTableOrders(ctx context.Context, tableNumber int, tableAuth string) ([]RemoteOrder, error)
	UpdateOrder(ctx context.Context, orderID, status, paymentStatus string) error
}

// RemoteOrder is the saga's ephemeral snapshot of another service's order.
type RemoteOrder struct {
	ID            string
	TableNumber   int
	Status        string
	PaymentStatus string
	TotalAmount   orders.Money
}
