package paymentservice

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"dinesync/internal/auth/tableauth"
	"dinesync/internal/ports"
	"dinesync/internal/shared/httpclient"
	"dinesync/internal/shared/logger"
)

// HTTPHandler exposes the checkout endpoint.
type HTTPHandler struct {
	svc      ports.CheckoutService
	logger   *logger.Logger
	tokenTTL time.Duration // payment-side validation window, much shorter than the order side's
	now      func() time.Time
}

// NewHTTPHandler wires an HTTP handler around the checkout service.
func NewHTTPHandler(svc ports.CheckoutService, log *logger.Logger, tokenTTL time.Duration) *HTTPHandler {
	return &HTTPHandler{
		svc:      svc,
		logger:   log,
		tokenTTL: tokenTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register mounts the payment routes on the provided mux.
func (handler *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/payment/process", handler.processPayment)
}

type processPaymentRequest struct {
	TableNumber int    `json:"table_number"`
	Method      string `json:"method"`
}

func (handler *HTTPHandler) processPayment(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	var req processPaymentRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	if req.TableNumber < 1 {
		handler.httpError(ctx, w, http.StatusBadRequest, "table_number is required",
			errors.New("missing table_number"))
		return
	}

	token := r.Header.Get(httpclient.TableAuthHeader)
	if err := tableauth.Validate(token, req.TableNumber, handler.tokenTTL, handler.now()); err != nil {
		handler.httpError(ctx, w, http.StatusForbidden, "Invalid table authentication", err)
		return
	}

	result, err := handler.svc.Checkout(ctx, req.TableNumber, req.Method, token)
	if err != nil {
		if errors.Is(err, ErrNoActiveOrders) {
			handler.httpError(ctx, w, http.StatusNotFound, err.Error(), err)
			return
		}
		handler.httpError(ctx, w, http.StatusInternalServerError, "payment processing failed", err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{
		"success":          true,
		"message":          fmt.Sprintf("Payment processed successfully with %s", result.Method),
		"receipt_number":   result.ReceiptNumber,
		"total_amount":     result.TotalAmount.ToFloat2(),
		"orders_processed": result.OrdersProcessed,
	})
}

func (handler *HTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	rid := r.Header.Get("X-Request-Id")
	if rid == "" {
		var b [8]byte
		if _, err := rand.Read(b[:]); err == nil {
			rid = hex.EncodeToString(b[:])
		}
	}
	return handler.logger.WithRequestID(ctx, rid)
}

func (handler *HTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	switch {
	case status >= 500:
		action = "http_internal_error"
	case status == http.StatusForbidden:
		action = "table_auth_failed"
	case status == http.StatusBadRequest:
		action = "validation_failed"
	}
	handler.logger.Error(ctx, action, msg, err)

	handler.jsonResponse(ctx, w, status, map[string]string{"error": msg})
}

func (handler *HTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	buf, err := json.Marshal(data)
	if err != nil {
		handler.logger.Error(ctx, "response_encode_failed", "failed to encode response", err)
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}
