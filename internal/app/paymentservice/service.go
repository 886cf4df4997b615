package paymentservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dinesync/internal/domain/orders"
	"dinesync/internal/domain/payments"
	"dinesync/internal/ports"
	"dinesync/internal/shared/contracts"
	"dinesync/internal/shared/logger"
)

// ErrNoActiveOrders is returned when a checkout finds nothing to pay for.
var ErrNoActiveOrders = errors.New("no active orders found for this table")

// Service runs the checkout saga: it pays every active order of a table in
// one pass and issues a single receipt for the batch.
type Service struct {
	uow       ports.UnitOfWork
	repo      ports.PaymentRepository
	orderAPI  ports.OrderClient
	publisher ports.Publisher
	logger    *logger.Logger
	now       func() time.Time
}

var _ ports.CheckoutService = (*Service)(nil)

// New creates the payment service with the required dependencies.
func New(uow ports.UnitOfWork, repo ports.PaymentRepository, orderAPI ports.OrderClient, publisher ports.Publisher, log *logger.Logger) *Service {
	return &Service{
		uow:       uow,
		repo:      repo,
		orderAPI:  orderAPI,
		publisher: publisher,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Checkout settles all active orders of a table. The loop is deliberately
// not atomic across orders: a payment row is the point of no return for its
// order, and a failed remote status flip is logged and left to the
// payment_processed consumer on the order side to reconcile. A mid-loop
// database failure aborts the checkout with earlier payments already
// committed.
func (service *Service) Checkout(ctx context.Context, tableNumber int, method, tableAuth string) (ports.CheckoutResult, error) {
	if tableNumber < 1 {
		return ports.CheckoutResult{}, errors.New("table_number is required")
	}
	if method == "" {
		method = "card"
	}

	activeOrders, err := service.orderAPI.ListTableOrders(ctx, tableNumber, tableAuth)
	if err != nil {
		service.logger.Error(ctx, "table_orders_fetch_failed", "failed to fetch table orders", err)
		return ports.CheckoutResult{}, fmt.Errorf("fetch table orders: %w", err)
	}
	if len(activeOrders) == 0 {
		return ports.CheckoutResult{}, ErrNoActiveOrders
	}

	var (
		total   orders.Money
		results []ports.OrderResult
		paid    []payments.Payment
	)

	for _, order := range activeOrders {
		payment := payments.Payment{
			ID:            uuid.NewString(),
			OrderID:       order.ID,
			Amount:        order.TotalAmount,
			Method:        method,
			Status:        payments.StatusCompleted,
			TransactionID: uuid.NewString(),
			CreatedAt:     service.now(),
		}

		err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
			return service.repo.CreatePayment(txCtx, &payment)
		})
		if err != nil {
			service.logger.Error(ctx, "payment_insert_failed",
				fmt.Sprintf("failed to record payment for order %s", order.ID), err)
			return ports.CheckoutResult{}, fmt.Errorf("record payment for order %s: %w", order.ID, err)
		}

		updated := true
		if err := service.orderAPI.UpdateOrder(ctx, order.ID, orders.StatusCompleted, orders.PaymentStatusPaid); err != nil {
			// the payment stands; reconciliation happens via payment_processed
			service.logger.Error(ctx, "order_update_failed",
				fmt.Sprintf("failed to mark order %s completed", order.ID), err)
			updated = false
		}

		service.publisher.Publish(ctx, contracts.EventPaymentProcessed, map[string]any{
			"payment_id":     payment.ID,
			"order_id":       order.ID,
			"amount":         payment.Amount.ToFloat2(),
			"method":         method,
			"transaction_id": payment.TransactionID,
			"table_number":   tableNumber,
		})

		total += order.TotalAmount
		paid = append(paid, payment)
		results = append(results, ports.OrderResult{
			OrderID:   order.ID,
			PaymentID: payment.ID,
			Amount:    order.TotalAmount,
			Updated:   updated,
		})
	}

	// one receipt number covers the whole table's batch
	receiptNumber := payments.NewReceiptNumber(service.now())
	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		for _, payment := range paid {
			receipt := payments.Receipt{
				ID:            uuid.NewString(),
				PaymentID:     payment.ID,
				ReceiptNumber: receiptNumber,
				CreatedAt:     service.now(),
			}
			if err := service.repo.CreateReceipt(txCtx, &receipt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "receipt_insert_failed", "failed to record receipts", err)
		return ports.CheckoutResult{}, fmt.Errorf("record receipts: %w", err)
	}

	service.logger.Info(ctx, "checkout_completed", "table checkout completed", map[string]any{
		"table_number":     tableNumber,
		"receipt_number":   receiptNumber,
		"orders_processed": len(results),
		"total_amount":     total.ToFloat2(),
	})

	return ports.CheckoutResult{
		ReceiptNumber:   receiptNumber,
		Method:          method,
		TotalAmount:     total,
		OrdersProcessed: len(results),
		Orders:          results,
	}, nil
}
