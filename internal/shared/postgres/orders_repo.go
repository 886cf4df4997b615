package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"dinesync/internal/domain/orders"
	"dinesync/internal/ports"
)

// OrdersRepo implements persistence for orders using pgx and SQL.
type OrdersRepo struct{}

// NewOrdersRepo constructs a new OrdersRepo.
func NewOrdersRepo() ports.OrderRepository {
	return &OrdersRepo{}
}

// CreateOrder inserts the order header and its items.
func (r *OrdersRepo) CreateOrder(ctx context.Context, order *orders.Order) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	// total_amount is NUMERIC(10,2); we send integer cents and divide by 100 in SQL.
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (id, table_number, status, payment_status, total_amount, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric/100, $6)
		RETURNING created_at`,
		order.ID,
		order.TableNumber,
		order.Status,
		order.PaymentStatus,
		int64(order.TotalAmount),
		order.CreatedAt,
	).Scan(&order.CreatedAt)
	if err != nil {
		return err
	}

	for i := range order.Items {
		it := &order.Items[i]
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, menu_item_id, quantity, notes, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`,
			order.ID,
			it.MenuItemID,
			it.Quantity,
			it.Notes,
			it.Status,
		).Scan(&it.ID)
		if err != nil {
			return err
		}
		it.OrderID = order.ID
	}

	return nil
}

// GetOrder retrieves an order with its items.
func (r *OrdersRepo) GetOrder(ctx context.Context, id string) (*orders.Order, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var order orders.Order
	err = tx.QueryRow(ctx, `
		SELECT id, table_number, status, payment_status, total_amount::numeric*100, created_at, completed_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&order.ID, &order.TableNumber, &order.Status, &order.PaymentStatus,
		&order.TotalAmount, &order.CreatedAt, &order.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	order.Items, err = r.listItems(ctx, tx, order.ID)
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// ListOrders returns order summaries with item counts, optionally filtered by
// status and creation date.
func (r *OrdersRepo) ListOrders(ctx context.Context, filter ports.OrderFilter) ([]ports.OrderSummary, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT o.id, o.table_number, o.status, o.total_amount::numeric*100, o.created_at, o.completed_at,
		       COUNT(oi.id) AS item_count
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
	`

	var conditions []string
	var args []any

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", len(args)))
	}

	switch filter.Date {
	case "today":
		conditions = append(conditions, "o.created_at::date = current_date")
	case "yesterday":
		conditions = append(conditions, "o.created_at::date = current_date - 1")
	case "week":
		conditions = append(conditions, "o.created_at::date >= current_date - 7")
	case "month":
		conditions = append(conditions, "date_trunc('month', o.created_at) = date_trunc('month', now())")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " GROUP BY o.id ORDER BY o.created_at DESC"

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.OrderSummary
	for rows.Next() {
		var s ports.OrderSummary
		err = rows.Scan(&s.ID, &s.TableNumber, &s.Status, &s.TotalAmount, &s.CreatedAt, &s.CompletedAt, &s.ItemCount)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, rows.Err()
}

// ListActiveByTable returns a table's orders that are still open, with items.
func (r *OrdersRepo) ListActiveByTable(ctx context.Context, tableNumber int) ([]orders.Order, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, table_number, status, payment_status, total_amount::numeric*100, created_at, completed_at
		FROM orders
		WHERE table_number = $1 AND status NOT IN ($2, $3)
		ORDER BY created_at DESC
	`, tableNumber, orders.StatusCompleted, orders.StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []orders.Order
	for rows.Next() {
		var order orders.Order
		err = rows.Scan(&order.ID, &order.TableNumber, &order.Status, &order.PaymentStatus,
			&order.TotalAmount, &order.CreatedAt, &order.CompletedAt)
		if err != nil {
			return nil, err
		}
		list = append(list, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range list {
		list[i].Items, err = r.listItems(ctx, tx, list[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return list, nil
}

// UpdateOrder applies a partial header update.
func (r *OrdersRepo) UpdateOrder(ctx context.Context, id string, upd ports.OrderUpdate, completedAt *time.Time) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}

	var sets []string
	var args []any

	if upd.Status != nil {
		args = append(args, *upd.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if upd.PaymentStatus != nil {
		args = append(args, *upd.PaymentStatus)
		sets = append(sets, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	if completedAt != nil {
		args = append(args, *completedAt)
		sets = append(sets, fmt.Sprintf("completed_at = $%d", len(args)))
	}
	if len(sets) == 0 {
		return r.orderExists(ctx, tx, id)
	}

	args = append(args, id)
	tag, err := tx.Exec(ctx,
		fmt.Sprintf("UPDATE orders SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args)),
		args...,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateOrderItem applies a partial item update and reports the owning order.
func (r *OrdersRepo) UpdateOrderItem(ctx context.Context, itemID int64, upd ports.OrderItemUpdate) (string, bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return "", false, err
	}

	var sets []string
	var args []any

	if upd.Status != nil {
		args = append(args, *upd.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if upd.Notes != nil {
		args = append(args, *upd.Notes)
		sets = append(sets, fmt.Sprintf("notes = $%d", len(args)))
	}
	if upd.Quantity != nil {
		args = append(args, *upd.Quantity)
		sets = append(sets, fmt.Sprintf("quantity = $%d", len(args)))
	}

	var orderID string
	if len(sets) == 0 {
		err = tx.QueryRow(ctx, `SELECT order_id FROM order_items WHERE id = $1`, itemID).Scan(&orderID)
	} else {
		args = append(args, itemID)
		err = tx.QueryRow(ctx,
			fmt.Sprintf("UPDATE order_items SET %s WHERE id = $%d RETURNING order_id", strings.Join(sets, ", "), len(args)),
			args...,
		).Scan(&orderID)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return orderID, true, nil
}

// SetOrderTotal overwrites the order's total amount.
func (r *OrdersRepo) SetOrderTotal(ctx context.Context, orderID string, total orders.Money) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders SET total_amount = $1::numeric/100 WHERE id = $2
	`, int64(total), orderID)
	return err
}

// MarkCompletedPaid flips an order and all of its items to Completed/paid.
func (r *OrdersRepo) MarkCompletedPaid(ctx context.Context, orderID string, at time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders
		SET status = $1, payment_status = $2, completed_at = $3
		WHERE id = $4
	`, orders.StatusCompleted, orders.PaymentStatusPaid, at, orderID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE order_items SET status = $1 WHERE order_id = $2
	`, orders.StatusCompleted, orderID)
	return err
}

func (r *OrdersRepo) listItems(ctx context.Context, tx pgx.Tx, orderID string) ([]orders.OrderItem, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, order_id, menu_item_id, quantity, notes, status
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []orders.OrderItem
	for rows.Next() {
		var item orders.OrderItem
		err = rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Quantity, &item.Notes, &item.Status)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *OrdersRepo) orderExists(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	var found bool
	err := tx.QueryRow(ctx, `SELECT true FROM orders WHERE id = $1`, id).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return found, err
}
