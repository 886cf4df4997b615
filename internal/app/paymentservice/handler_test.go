package paymentservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dinesync/internal/auth/tableauth"
	"dinesync/internal/domain/orders"
	"dinesync/internal/ports"
	"dinesync/internal/shared/httpclient"
	"dinesync/internal/shared/logger"
)

type stubCheckoutService struct {
	result ports.CheckoutResult
	err    error
	calls  int
}

func (s *stubCheckoutService) Checkout(ctx context.Context, tableNumber int, method, tableAuth string) (ports.CheckoutResult, error) {
	s.calls++
	return s.result, s.err
}

func newTestMux(svc ports.CheckoutService, tokenTTL time.Duration) *http.ServeMux {
	h := NewHTTPHandler(svc, logger.New("test"), tokenTTL)
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func postCheckout(mux *http.ServeMux, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/payment/process", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(httpclient.TableAuthHeader, token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestProcessPaymentSuccess(t *testing.T) {
	svc := &stubCheckoutService{result: ports.CheckoutResult{
		ReceiptNumber:   "REC-1234-abcdef",
		Method:          "card",
		TotalAmount:     orders.NewMoneyFromFloat2(25.50),
		OrdersProcessed: 2,
	}}
	mux := newTestMux(svc, time.Hour)

	rec := postCheckout(mux, `{"table_number": 5, "method": "card"}`, tableauth.Generate(5, time.Now()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["success"] != true {
		t.Error("success != true")
	}
	if body["message"] != "Payment processed successfully with card" {
		t.Errorf("message = %q", body["message"])
	}
	if body["receipt_number"] != "REC-1234-abcdef" {
		t.Errorf("receipt_number = %v", body["receipt_number"])
	}
	if body["orders_processed"] != float64(2) {
		t.Errorf("orders_processed = %v, want 2", body["orders_processed"])
	}
}

func TestProcessPaymentMissingToken(t *testing.T) {
	svc := &stubCheckoutService{}
	mux := newTestMux(svc, time.Hour)

	rec := postCheckout(mux, `{"table_number": 5, "method": "card"}`, "")

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if svc.calls != 0 {
		t.Error("checkout ran despite missing token")
	}
}

// The payment window is an hour; a token the order service still accepts can
// already be dead here.
func TestProcessPaymentStaleToken(t *testing.T) {
	mux := newTestMux(&stubCheckoutService{}, time.Hour)

	stale := tableauth.Generate(5, time.Now().Add(-2*time.Hour))
	rec := postCheckout(mux, `{"table_number": 5, "method": "card"}`, stale)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestProcessPaymentNoActiveOrders(t *testing.T) {
	mux := newTestMux(&stubCheckoutService{err: ErrNoActiveOrders}, time.Hour)

	rec := postCheckout(mux, `{"table_number": 5, "method": "card"}`, tableauth.Generate(5, time.Now()))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestProcessPaymentMissingTable(t *testing.T) {
	mux := newTestMux(&stubCheckoutService{}, time.Hour)

	rec := postCheckout(mux, `{"method": "card"}`, tableauth.Generate(5, time.Now()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
