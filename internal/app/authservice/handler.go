package authservice

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dinesync/internal/ports"
	"dinesync/internal/shared/logger"
)

// HTTPHandler exposes table authentication.
type HTTPHandler struct {
	svc    ports.TokenService
	logger *logger.Logger
}

// NewHTTPHandler wires an HTTP handler around the token service.
func NewHTTPHandler(svc ports.TokenService, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, logger: log}
}

// Register mounts the auth routes on the provided mux.
func (handler *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/table", handler.authenticateTable)
}

type authenticateTableRequest struct {
	TableNumber int `json:"table_number"`
}

type authenticateTableResponse struct {
	AuthToken   string    `json:"auth_token"`
	TableNumber int       `json:"table_number"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (handler *HTTPHandler) authenticateTable(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	var req authenticateTableRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	if req.TableNumber < 1 {
		handler.httpError(ctx, w, http.StatusBadRequest, "Valid table number is required",
			errors.New("missing table_number"))
		return
	}

	issued, err := handler.svc.IssueToken(ctx, req.TableNumber)
	if err != nil {
		handler.httpError(ctx, w, http.StatusInternalServerError, "failed to authenticate table", err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, authenticateTableResponse{
		AuthToken:   issued.Token,
		TableNumber: issued.TableNumber,
		ExpiresAt:   issued.ExpiresAt,
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
	if status >= 500 {
		action = "http_internal_error"
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
