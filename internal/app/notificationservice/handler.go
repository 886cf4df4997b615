package notificationservice

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"dinesync/internal/shared/logger"
)

// HTTPHandler exposes device registration and ad-hoc notification pushes.
type HTTPHandler struct {
	svc      *Service
	registry *DeviceRegistry
	logger   *logger.Logger
}

// NewHTTPHandler wires an HTTP handler around the notification service.
func NewHTTPHandler(svc *Service, registry *DeviceRegistry, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, registry: registry, logger: log}
}

// Register mounts the notification routes on the provided mux.
func (handler *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/devices", handler.registerDevice)
	mux.HandleFunc("DELETE /api/devices/{device_id}", handler.unregisterDevice)
	mux.HandleFunc("GET /api/devices", handler.listDevices)
	mux.HandleFunc("POST /api/notify/table/{table_number}", handler.notifyTable)
	mux.HandleFunc("POST /api/notify/role/{role}", handler.notifyRole)
	mux.HandleFunc("GET /health", handler.health)
}

type registerDeviceRequest struct {
	DeviceID    string `json:"device_id"`
	Role        string `json:"role"`
	TableNumber int    `json:"table_number"`
}

type notifyRequest struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

func (handler *HTTPHandler) registerDevice(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req registerDeviceRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	if req.DeviceID == "" || req.Role == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "device_id and role are required",
			errors.New("missing device_id or role"))
		return
	}
	if req.Role == RoleCustomer && req.TableNumber < 1 {
		handler.httpError(ctx, w, http.StatusBadRequest, "customer devices require a table_number",
			errors.New("missing table_number"))
		return
	}

	handler.registry.Register(Device{
		ID:          req.DeviceID,
		Role:        req.Role,
		TableNumber: req.TableNumber,
	})

	handler.logger.Info(ctx, "device_registered", "device registered", map[string]any{
		"device_id":    req.DeviceID,
		"role":         req.Role,
		"table_number": req.TableNumber,
	})

	handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{"message": "Device registered"})
}

func (handler *HTTPHandler) unregisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	handler.registry.Unregister(r.PathValue("device_id"))
	handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{"message": "Device unregistered"})
}

func (handler *HTTPHandler) listDevices(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	devices := handler.registry.Snapshot()
	out := make([]map[string]any, len(devices))
	for i, d := range devices {
		out[i] = map[string]any{
			"device_id":    d.ID,
			"role":         d.Role,
			"table_number": d.TableNumber,
			"last_active":  d.LastActive,
		}
	}
	handler.jsonResponse(ctx, w, http.StatusOK, out)
}

func (handler *HTTPHandler) notifyTable(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	tableNumber, err := strconv.Atoi(r.PathValue("table_number"))
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid table number", err)
		return
	}

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}
	if req.Event == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "event is required", errors.New("missing event"))
		return
	}

	sent := handler.svc.NotifyTable(tableNumber, req.Event, req.Data)
	handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{"devices_notified": sent})
}

func (handler *HTTPHandler) notifyRole(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}
	if req.Event == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "event is required", errors.New("missing event"))
		return
	}

	sent := handler.svc.NotifyRole(r.PathValue("role"), req.Event, req.Data)
	handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{"devices_notified": sent})
}

func (handler *HTTPHandler) health(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)
	handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{
		"status":  "ok",
		"devices": len(handler.registry.Snapshot()),
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
	handler.logger.Error(ctx, "request_failed", msg, err)
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
