package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"dinesync/internal/domain/orders"
	"dinesync/internal/ports"
)

// ErrRemoteUpdate marks a failed cross-service order update. The saga logs it
// and keeps going; the payment_processed consumer reconciles later.
var ErrRemoteUpdate = errors.New("httpclient: remote order update failed")

// TableAuthHeader carries the table token on table-scoped requests.
const TableAuthHeader = "X-Table-Auth"

// OrderServiceClient is the saga's synchronous line to the order service.
type OrderServiceClient struct {
	base string
	http *http.Client
}

var _ ports.OrderClient = (*OrderServiceClient)(nil)

// NewOrderClient builds a client for the order service at baseURL.
func NewOrderClient(baseURL string) *OrderServiceClient {
	return &OrderServiceClient{
		base: baseURL,
		http: &http.Client{Timeout: clientTimeout},
	}
}

type remoteOrderDTO struct {
	ID            string  `json:"id"`
	TableNumber   int     `json:"table_number"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	TotalAmount   float64 `json:"total_amount"`
}

// ListTableOrders fetches the table's active orders, forwarding the caller's
// table auth token.
func (c *OrderServiceClient) ListTableOrders(ctx context.Context, tableNumber int, tableAuth string) ([]ports.RemoteOrder, error) {
	url := fmt.Sprintf("%s/api/orders/table/%d", c.base, tableNumber)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(TableAuthHeader, tableAuth)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("order service returned %d", resp.StatusCode)
	}

	var dtos []remoteOrderDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		return nil, fmt.Errorf("decode table orders: %w", err)
	}

	out := make([]ports.RemoteOrder, len(dtos))
	for i, dto := range dtos {
		out[i] = ports.RemoteOrder{
			ID:            dto.ID,
			TableNumber:   dto.TableNumber,
			Status:        dto.Status,
			PaymentStatus: dto.PaymentStatus,
			TotalAmount:   orders.NewMoneyFromFloat2(dto.TotalAmount),
		}
	}
	return out, nil
}

// UpdateOrder flips a remote order's status and payment status.
func (c *OrderServiceClient) UpdateOrder(ctx context.Context, orderID, status, paymentStatus string) error {
	url := fmt.Sprintf("%s/api/orders/%s", c.base, orderID)

	body, err := json.Marshal(map[string]string{
		"status":         status,
		"payment_status": paymentStatus,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUpdate, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: order service returned %d", ErrRemoteUpdate, resp.StatusCode)
	}
	return nil
}
