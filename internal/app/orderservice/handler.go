package orderservice

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"dinesync/internal/auth/tableauth"
	"dinesync/internal/ports"
	"dinesync/internal/shared/httpclient"
	"dinesync/internal/shared/logger"
)

// HTTPHandler adapts HTTP requests to the order service.
type HTTPHandler struct {
	svc      ports.OrderService
	logger   *logger.Logger
	tokenTTL time.Duration // validation window for table-scoped reads
	now      func() time.Time
}

// NewHTTPHandler wires an HTTP handler around the order service. tokenTTL is
// this service's table-token validation window (24h by default; the payment
// service uses a much shorter one).
func NewHTTPHandler(svc ports.OrderService, log *logger.Logger, tokenTTL time.Duration) *HTTPHandler {
	return &HTTPHandler{
		svc:      svc,
		logger:   log,
		tokenTTL: tokenTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register mounts the order routes on the provided mux.
func (handler *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders", handler.createOrder)
	mux.HandleFunc("GET /api/orders", handler.listOrders)
	mux.HandleFunc("GET /api/orders/{order_id}", handler.getOrder)
	mux.HandleFunc("PUT /api/orders/{order_id}", handler.updateOrder)
	mux.HandleFunc("PUT /api/order-items/{item_id}", handler.updateOrderItem)
	mux.HandleFunc("GET /api/orders/table/{table_number}", handler.listTableOrders)
}

// --- Request/Response DTOs (HTTP boundary) ---

type createOrderItemRequest struct {
	MenuItemID int64  `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes"`
}

type createOrderRequest struct {
	TableNumber   int                      `json:"table_number"`
	PaymentStatus string                   `json:"payment_status"`
	Items         []createOrderItemRequest `json:"items"`
}

type updateOrderRequest struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"payment_status"`
}

type updateOrderItemRequest struct {
	Status   *string `json:"status"`
	Notes    *string `json:"notes"`
	Quantity *int    `json:"quantity"`
}

type orderItemResponse struct {
	ID         int64   `json:"id"`
	MenuItemID int64   `json:"menu_item_id"`
	Quantity   int     `json:"quantity"`
	Notes      string  `json:"notes"`
	Status     string  `json:"status"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	ImagePath  string  `json:"image_path"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	TableNumber   int                 `json:"table_number"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	TotalAmount   float64             `json:"total_amount"`
	CreatedAt     time.Time           `json:"created_at"`
	CompletedAt   *time.Time          `json:"completed_at"`
	Items         []orderItemResponse `json:"items"`
}

type orderSummaryResponse struct {
	ID          string     `json:"id"`
	TableNumber int        `json:"table_number"`
	Status      string     `json:"status"`
	TotalAmount float64    `json:"total_amount"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
	ItemCount   int        `json:"item_count"`
}

// --- Handlers ---

func (handler *HTTPHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json",
			errors.New("unsupported content type: "+ct))
		return
	}

	var req createOrderRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	if req.TableNumber < 1 || len(req.Items) == 0 {
		handler.httpError(ctx, w, http.StatusBadRequest, "Table number and items are required",
			errors.New("missing table_number or items"))
		return
	}

	cmd := ports.CreateOrderCommand{
		TableNumber:   req.TableNumber,
		PaymentStatus: req.PaymentStatus,
		Items:         make([]ports.ItemInput, len(req.Items)),
	}
	for i, it := range req.Items {
		quantity := it.Quantity
		if quantity == 0 {
			quantity = 1
		}
		cmd.Items[i] = ports.ItemInput{MenuItemID: it.MenuItemID, Quantity: quantity, Notes: it.Notes}
	}

	created, err := handler.svc.CreateOrder(ctx, cmd)
	if err != nil {
		handler.mapServiceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{
		"id":      created.ID,
		"message": "Order created successfully",
	})
}

func (handler *HTTPHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	filter := ports.OrderFilter{
		Status: r.URL.Query().Get("status"),
		Date:   r.URL.Query().Get("date"),
	}

	summaries, err := handler.svc.ListOrders(ctx, filter)
	if err != nil {
		handler.mapServiceError(ctx, w, err)
		return
	}

	out := make([]orderSummaryResponse, len(summaries))
	for i, s := range summaries {
		out[i] = orderSummaryResponse{
			ID:          s.ID,
			TableNumber: s.TableNumber,
			Status:      s.Status,
			TotalAmount: s.TotalAmount.ToFloat2(),
			CreatedAt:   s.CreatedAt,
			CompletedAt: s.CompletedAt,
			ItemCount:   s.ItemCount,
		}
	}
	handler.jsonResponse(ctx, w, http.StatusOK, out)
}

func (handler *HTTPHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	view, err := handler.svc.GetOrder(ctx, r.PathValue("order_id"))
	if err != nil {
		handler.mapServiceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, toOrderResponse(*view))
}

func (handler *HTTPHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	if req.Status == nil && req.PaymentStatus == nil {
		handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{"message": "No changes made"})
		return
	}

	err := handler.svc.UpdateOrder(ctx, r.PathValue("order_id"), ports.OrderUpdate{
		Status:        req.Status,
		PaymentStatus: req.PaymentStatus,
	})
	if err != nil {
		handler.mapServiceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{"message": "Order updated successfully"})
}

func (handler *HTTPHandler) updateOrderItem(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	itemID, err := strconv.ParseInt(r.PathValue("item_id"), 10, 64)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid item id", err)
		return
	}

	var req updateOrderItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	if req.Status == nil && req.Notes == nil && req.Quantity == nil {
		handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{"message": "No changes made"})
		return
	}

	err = handler.svc.UpdateOrderItem(ctx, itemID, ports.OrderItemUpdate{
		Status:   req.Status,
		Notes:    req.Notes,
		Quantity: req.Quantity,
	})
	if err != nil {
		handler.mapServiceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{"message": "Order item updated successfully"})
}

// listTableOrders is the table-scoped read behind the X-Table-Auth token.
func (handler *HTTPHandler) listTableOrders(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	tableNumber, err := strconv.Atoi(r.PathValue("table_number"))
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid table number", err)
		return
	}

	token := r.Header.Get(httpclient.TableAuthHeader)
	if err := tableauth.Validate(token, tableNumber, handler.tokenTTL, handler.now()); err != nil {
		handler.httpError(ctx, w, http.StatusForbidden, "Invalid table authentication", err)
		return
	}

	views, err := handler.svc.ListTableOrders(ctx, tableNumber)
	if err != nil {
		handler.mapServiceError(ctx, w, err)
		return
	}

	out := make([]orderResponse, len(views))
	for i, v := range views {
		out[i] = toOrderResponse(v)
	}
	handler.jsonResponse(ctx, w, http.StatusOK, out)
}

// --- Helpers ---

func toOrderResponse(v ports.OrderView) orderResponse {
	resp := orderResponse{
		ID:            v.ID,
		TableNumber:   v.TableNumber,
		Status:        v.Status,
		PaymentStatus: v.PaymentStatus,
		TotalAmount:   v.TotalAmount.ToFloat2(),
		CreatedAt:     v.CreatedAt,
		CompletedAt:   v.CompletedAt,
		Items:         make([]orderItemResponse, len(v.Items)),
	}
	for i, item := range v.Items {
		resp.Items[i] = orderItemResponse{
			ID:         item.ID,
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			Notes:      item.Notes,
			Status:     item.Status,
			Name:       item.Name,
			Price:      item.Price.ToFloat2(),
			ImagePath:  item.ImagePath,
		}
	}
	return resp
}

// mapServiceError distinguishes not-found, infrastructure, and validation errors.
func (handler *HTTPHandler) mapServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrOrderItemNotFound):
		handler.httpError(ctx, w, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, ErrMenuLookup):
		handler.httpError(ctx, w, http.StatusInternalServerError, err.Error(), err)
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			handler.httpError(ctx, w, http.StatusInternalServerError, "database error", err)
			return
		}
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
	}
}

// withReqID stamps the context with the inbound request id, or a fresh one.
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

// httpError sends a JSON error response with a message.
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

// jsonResponse encodes data to the HTTP response.
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
