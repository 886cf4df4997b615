package orderservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dinesync/internal/domain/orders"
	"dinesync/internal/ports"
	"dinesync/internal/shared/contracts"
	"dinesync/internal/shared/httpclient"
	"dinesync/internal/shared/logger"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderItemNotFound = errors.New("order item not found")
	// ErrMenuLookup marks a menu service communication failure during order
	// creation; the handler maps it to 500 rather than 400.
	ErrMenuLookup = errors.New("could not validate menu item")
)

// Service implements ports.OrderService.
type Service struct {
	uow       ports.UnitOfWork
	repo      ports.OrderRepository
	menu      ports.MenuClient
	publisher ports.Publisher
	logger    *logger.Logger
	now       func() time.Time
}

var _ ports.OrderService = (*Service)(nil)

// New creates the order service with the required dependencies.
func New(uow ports.UnitOfWork, repo ports.OrderRepository, menu ports.MenuClient, publisher ports.Publisher, log *logger.Logger) *Service {
	return &Service{
		uow:       uow,
		repo:      repo,
		menu:      menu,
		publisher: publisher,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder validates items against the menu service, snapshots prices,
// commits the order, and announces order_created. The price snapshot is
// final: later menu changes never reprice an existing order's creation total.
func (service *Service) CreateOrder(ctx context.Context, cmd ports.CreateOrderCommand) (ports.OrderCreated, error) {
	if cmd.TableNumber < 1 {
		return ports.OrderCreated{}, errors.New("table_number is required")
	}
	if len(cmd.Items) == 0 {
		return ports.OrderCreated{}, errors.New("order must contain at least one item")
	}

	paymentStatus := cmd.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = orders.PaymentStatusUnpaid
	}

	// validate each item against the menu service and capture its price
	var total orders.Money
	items := make([]orders.OrderItem, len(cmd.Items))
	for i, in := range cmd.Items {
		quantity := in.Quantity
		if quantity < 1 {
			quantity = 1
		}

		menuItem, err := service.menu.GetItem(ctx, in.MenuItemID)
		if err != nil {
			if errors.Is(err, httpclient.ErrMenuItemNotFound) {
				return ports.OrderCreated{}, fmt.Errorf("menu item %d not found", in.MenuItemID)
			}
			service.logger.Error(ctx, "menu_validation_failed",
				fmt.Sprintf("failed to validate menu item %d", in.MenuItemID), err)
			return ports.OrderCreated{}, fmt.Errorf("%w %d", ErrMenuLookup, in.MenuItemID)
		}
		if !menuItem.Available {
			return ports.OrderCreated{}, fmt.Errorf("item %s is not available", menuItem.Name)
		}

		items[i] = orders.OrderItem{
			MenuItemID: in.MenuItemID,
			Quantity:   quantity,
			Notes:      in.Notes,
			Status:     orders.StatusPending,
		}
		total += menuItem.Price * orders.Money(quantity)
	}

	order := orders.Order{
		ID:            uuid.NewString(),
		TableNumber:   cmd.TableNumber,
		Status:        orders.StatusPending,
		PaymentStatus: paymentStatus,
		TotalAmount:   total,
		CreatedAt:     service.now(),
		Items:         items,
	}

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.repo.CreateOrder(txCtx, &order)
	})
	if err != nil {
		service.logger.Error(ctx, "db_transaction_failed", "failed to create order", err)
		return ports.OrderCreated{}, err
	}

	// announce after commit; a lost event is compensated nowhere, by design
	service.publisher.Publish(ctx, contracts.EventOrderCreated, map[string]any{
		"order_id":     order.ID,
		"table_number": order.TableNumber,
		"status":       order.Status,
		"total_amount": order.TotalAmount.ToFloat2(),
		"items_count":  len(order.Items),
	})

	service.logger.Info(ctx, "order_created", "order created", map[string]any{
		"order_id":     order.ID,
		"table_number": order.TableNumber,
		"total_amount": order.TotalAmount.ToFloat2(),
	})

	return ports.OrderCreated{ID: order.ID}, nil
}

// GetOrder returns one order with menu-enriched items.
func (service *Service) GetOrder(ctx context.Context, id string) (*ports.OrderView, error) {
	var order *orders.Order
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = service.repo.GetOrder(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	view := service.toView(ctx, order)
	return &view, nil
}

// ListOrders returns order summaries, optionally filtered.
func (service *Service) ListOrders(ctx context.Context, filter ports.OrderFilter) ([]ports.OrderSummary, error) {
	var out []ports.OrderSummary
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = service.repo.ListOrders(txCtx, filter)
		return err
	})
	return out, err
}

// UpdateOrder applies a partial status/payment_status update and announces
// order_updated with exactly the fields that changed.
func (service *Service) UpdateOrder(ctx context.Context, id string, upd ports.OrderUpdate) error {
	if upd.Status == nil && upd.PaymentStatus == nil {
		return nil
	}

	var completedAt *time.Time
	if upd.Status != nil && *upd.Status == orders.StatusCompleted {
		at := service.now()
		completedAt = &at
	}

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		found, err := service.repo.UpdateOrder(txCtx, id, upd, completedAt)
		if err != nil {
			return err
		}
		if !found {
			return ErrOrderNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	payload := map[string]any{"order_id": id}
	if upd.Status != nil {
		payload["status"] = *upd.Status
	}
	if upd.PaymentStatus != nil {
		payload["payment_status"] = *upd.PaymentStatus
	}
	service.publisher.Publish(ctx, contracts.EventOrderUpdated, payload)

	return nil
}

// UpdateOrderItem applies a partial item update. A quantity change recomputes
// the order total from the menu service's current prices, best effort: items
// whose price cannot be fetched keep contributing nothing rather than
// blocking the update.
func (service *Service) UpdateOrderItem(ctx context.Context, itemID int64, upd ports.OrderItemUpdate) error {
	if upd.Status == nil && upd.Notes == nil && upd.Quantity == nil {
		return nil
	}

	var orderID string
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var found bool
		var err error
		orderID, found, err = service.repo.UpdateOrderItem(txCtx, itemID, upd)
		if err != nil {
			return err
		}
		if !found {
			return ErrOrderItemNotFound
		}

		if upd.Quantity == nil {
			return nil
		}

		order, err := service.repo.GetOrder(txCtx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return nil
		}

		var total orders.Money
		for _, item := range order.Items {
			menuItem, err := service.menu.GetItem(ctx, item.MenuItemID)
			if err != nil {
				continue
			}
			total += menuItem.Price * orders.Money(item.Quantity)
		}
		return service.repo.SetOrderTotal(txCtx, orderID, total)
	})
	if err != nil {
		return err
	}

	var updatedFields []string
	if upd.Status != nil {
		updatedFields = append(updatedFields, "status")
	}
	if upd.Notes != nil {
		updatedFields = append(updatedFields, "notes")
	}
	if upd.Quantity != nil {
		updatedFields = append(updatedFields, "quantity")
	}
	service.publisher.Publish(ctx, contracts.EventOrderItemUpdated, map[string]any{
		"order_id":       orderID,
		"item_id":        itemID,
		"updated_fields": updatedFields,
	})

	return nil
}

// ListTableOrders returns a table's active orders with enriched items.
func (service *Service) ListTableOrders(ctx context.Context, tableNumber int) ([]ports.OrderView, error) {
	var list []orders.Order
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		list, err = service.repo.ListActiveByTable(txCtx, tableNumber)
		return err
	})
	if err != nil {
		return nil, err
	}

	views := make([]ports.OrderView, len(list))
	for i := range list {
		views[i] = service.toView(ctx, &list[i])
	}
	return views, nil
}

// toView enriches order items with the menu service's current name and price.
func (service *Service) toView(ctx context.Context, order *orders.Order) ports.OrderView {
	view := ports.OrderView{
		ID:            order.ID,
		TableNumber:   order.TableNumber,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
		CreatedAt:     order.CreatedAt,
		CompletedAt:   order.CompletedAt,
		Items:         make([]ports.OrderItemView, len(order.Items)),
	}

	for i, item := range order.Items {
		itemView := ports.OrderItemView{
			ID:         item.ID,
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			Notes:      item.Notes,
			Status:     item.Status,
			Name:       "Unknown Item",
		}
		if menuItem, err := service.menu.GetItem(ctx, item.MenuItemID); err == nil {
			itemView.Name = menuItem.Name
			itemView.Price = menuItem.Price
			itemView.ImagePath = menuItem.ImagePath
		}
		view.Items[i] = itemView
	}

	return view
}
