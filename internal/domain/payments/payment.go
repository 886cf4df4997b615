package payments

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dinesync/internal/domain/orders"
)

// StatusCompleted is the only status the checkout flow writes: payments are
// recorded after the fact, not reserved.
const StatusCompleted = "completed"

// Payment is one order's charge within a checkout. A checkout of N active
// orders produces N independent payments sharing one receipt number.
type Payment struct {
	ID            string // UUID
	OrderID       string
	Amount        orders.Money
	Method        string
	Status        string
	TransactionID string
	CreatedAt     time.Time
}

// Receipt links a payment to the receipt number minted for its checkout.
// Receipts are a derived grouping, not an atomic unit.
type Receipt struct {
	ID            string
	PaymentID     string
	ReceiptNumber string
	CreatedAt     time.Time
}

// NewReceiptNumber mints "REC-<unix seconds>-<6 hex chars>".
func NewReceiptNumber(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("REC-%d-%s", now.Unix(), suffix)
}
