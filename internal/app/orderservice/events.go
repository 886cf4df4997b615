package orderservice

import (
	"context"
	"errors"
	"fmt"

	"dinesync/internal/domain/orders"
	"dinesync/internal/shared/contracts"
	"dinesync/internal/shared/eventbus"
)

// RegisterEventHandlers wires the order service's consumer-side handlers.
// The payment_processed handler is the reconciliation path: checkout's direct
// PUT may have failed for an order, and this second, event-driven route to
// the same transition closes that gap eventually.
func (service *Service) RegisterEventHandlers(reg *eventbus.Registry) {
	reg.Register(contracts.EventPaymentProcessed, service.handlePaymentProcessed)
	reg.Register(contracts.EventMenuItemAvailabilityUpdated, service.handleMenuAvailabilityUpdated)
}

// handlePaymentProcessed idempotently marks the paid order and its items
// completed, then announces order_updated.
func (service *Service) handlePaymentProcessed(ctx context.Context, payload map[string]any) error {
	orderID, _ := payload["order_id"].(string)
	if orderID == "" {
		return errors.New("payment_processed event missing order_id")
	}

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.repo.MarkCompletedPaid(txCtx, orderID, service.now())
	})
	if err != nil {
		return fmt.Errorf("mark order %s completed: %w", orderID, err)
	}

	service.publisher.Publish(ctx, contracts.EventOrderUpdated, map[string]any{
		"order_id":       orderID,
		"status":         orders.StatusCompleted,
		"payment_status": orders.PaymentStatusPaid,
	})

	service.logger.Info(ctx, "order_reconciled", "order marked completed after payment", map[string]any{
		"order_id": orderID,
	})
	return nil
}

// handleMenuAvailabilityUpdated only records the change. Cancelling pending
// orders that contain a newly unavailable item is a possible follow-up; the
// current system just keeps serving them.
func (service *Service) handleMenuAvailabilityUpdated(ctx context.Context, payload map[string]any) error {
	service.logger.Info(ctx, "menu_availability_updated", "menu item availability changed", map[string]any{
		"item_id":   payload["item_id"],
		"available": payload["available"],
	})
	return nil
}
