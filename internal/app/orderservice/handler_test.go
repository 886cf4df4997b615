package orderservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dinesync/internal/auth/tableauth"
	"dinesync/internal/ports"
	"dinesync/internal/shared/httpclient"
	"dinesync/internal/shared/logger"
)

type stubOrderService struct {
	tableOrders   []ports.OrderView
	tableRequests []int
}

func (s *stubOrderService) CreateOrder(ctx context.Context, cmd ports.CreateOrderCommand) (ports.OrderCreated, error) {
	return ports.OrderCreated{ID: "o1"}, nil
}

func (s *stubOrderService) GetOrder(ctx context.Context, id string) (*ports.OrderView, error) {
	return nil, ErrOrderNotFound
}

func (s *stubOrderService) ListOrders(ctx context.Context, filter ports.OrderFilter) ([]ports.OrderSummary, error) {
	return nil, nil
}

func (s *stubOrderService) UpdateOrder(ctx context.Context, id string, upd ports.OrderUpdate) error {
	return nil
}

func (s *stubOrderService) UpdateOrderItem(ctx context.Context, itemID int64, upd ports.OrderItemUpdate) error {
	return nil
}

func (s *stubOrderService) ListTableOrders(ctx context.Context, tableNumber int) ([]ports.OrderView, error) {
	s.tableRequests = append(s.tableRequests, tableNumber)
	return s.tableOrders, nil
}

func newTestMux(svc ports.OrderService, tokenTTL time.Duration) *http.ServeMux {
	h := NewHTTPHandler(svc, logger.New("test"), tokenTTL)
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func TestTableOrdersRejectsMissingToken(t *testing.T) {
	mux := newTestMux(&stubOrderService{}, 24*time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/table/5", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != "Invalid table authentication" {
		t.Errorf("error = %q, want Invalid table authentication", body["error"])
	}
}

func TestTableOrdersRejectsWrongTableToken(t *testing.T) {
	mux := newTestMux(&stubOrderService{}, 24*time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/table/5", nil)
	req.Header.Set(httpclient.TableAuthHeader, tableauth.Generate(6, time.Now()))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestTableOrdersAcceptsValidToken(t *testing.T) {
	svc := &stubOrderService{}
	mux := newTestMux(svc, 24*time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/table/5", nil)
	req.Header.Set(httpclient.TableAuthHeader, tableauth.Generate(5, time.Now()))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	if len(svc.tableRequests) != 1 || svc.tableRequests[0] != 5 {
		t.Errorf("service called with %v, want [5]", svc.tableRequests)
	}
}

func TestCreateOrderRejectsUnknownFields(t *testing.T) {
	mux := newTestMux(&stubOrderService{}, 24*time.Hour)

	body := `{"table_number": 5, "items": [{"menu_item_id": 1}], "surprise": true}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateOrderMissingItems(t *testing.T) {
	mux := newTestMux(&stubOrderService{}, 24*time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"table_number": 5}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	mux := newTestMux(&stubOrderService{}, 24*time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/missing", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
