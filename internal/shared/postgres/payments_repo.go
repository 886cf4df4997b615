package postgres

import (
	"context"

	"dinesync/internal/domain/payments"
	"dinesync/internal/ports"
)

// PaymentsRepo implements persistence for payments and receipts.
type PaymentsRepo struct{}

// NewPaymentsRepo constructs a new PaymentsRepo.
func NewPaymentsRepo() ports.PaymentRepository {
	return &PaymentsRepo{}
}

// CreatePayment inserts one payment row.
func (r *PaymentsRepo) CreatePayment(ctx context.Context, p *payments.Payment) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO payments (id, order_id, amount, method, status, transaction_id, created_at)
		VALUES ($1, $2, $3::numeric/100, $4, $5, $6, $7)
	`,
		p.ID,
		p.OrderID,
		int64(p.Amount),
		p.Method,
		p.Status,
		p.TransactionID,
		p.CreatedAt,
	)
	return err
}

// CreateReceipt inserts one receipt row linking a payment to its checkout's
// shared receipt number.
func (r *PaymentsRepo) CreateReceipt(ctx context.Context, rec *payments.Receipt) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO receipts (id, payment_id, receipt_number, created_at)
		VALUES ($1, $2, $3, $4)
	`,
		rec.ID,
		rec.PaymentID,
		rec.ReceiptNumber,
		rec.CreatedAt,
	)
	return err
}
