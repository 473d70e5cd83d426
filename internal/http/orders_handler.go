package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopdash/ordercore/domain"
	"github.com/shopdash/ordercore/internal/orders"
	"go.uber.org/zap"
)

const maxBulkOrderIDs = 500

type OrderService interface {
	GetOrder(ctx context.Context, id uuid.UUID, userID string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID, userID string) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, paymentStatus *domain.PaymentStatus) (*domain.Order, error)
	BulkUpdateOrderStatus(ctx context.Context, ids []string, status domain.OrderStatus) (*orders.BulkResult, error)
}

type OrdersHandler struct {
	service OrderService
	timeout time.Duration
	log     *zap.Logger
}

func NewOrdersHandler(service OrderService, timeout time.Duration, log *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		service: service,
		timeout: timeout,
		log:     log,
	}
}

type UpdateStatusRequestDTO struct {
	Status        string  `json:"status"`
	PaymentStatus *string `json:"paymentStatus,omitempty"`
}

type BulkStatusRequestDTO struct {
	OrderIDs []string `json:"orderIds"`
	Status   string   `json:"status"`
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	list, err := h.service.ListOrders(ctx, getUserIDFromContext(r.Context()))
	if err != nil {
		handleError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, list)
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	order, err := h.service.GetOrder(ctx, id, getUserIDFromContext(r.Context()))
	if err != nil {
		handleError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// POST /api/v1/orders/{order_id}/cancel
func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	order, err := h.service.CancelOrder(ctx, id, getUserIDFromContext(r.Context()))
	if err != nil {
		handleError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// PATCH /api/v1/admin/orders/{order_id}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Status == "" && req.PaymentStatus == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "status or paymentStatus is required")
		return
	}

	var paymentStatus *domain.PaymentStatus
	if req.PaymentStatus != nil {
		ps := domain.PaymentStatus(*req.PaymentStatus)
		paymentStatus = &ps
	}

	order, err := h.service.UpdateOrderStatus(ctx, id, domain.OrderStatus(req.Status), paymentStatus)
	if err != nil {
		handleError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// POST /api/v1/admin/orders/bulk-status
func (h *OrdersHandler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req BulkStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if len(req.OrderIDs) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "orderIds must not be empty")
		return
	}
	if len(req.OrderIDs) > maxBulkOrderIDs {
		respondError(w, http.StatusBadRequest, "invalid_request", "too many orderIds")
		return
	}

	result, err := h.service.BulkUpdateOrderStatus(ctx, req.OrderIDs, domain.OrderStatus(req.Status))
	if err != nil {
		handleError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "order_id")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "missing_order_id", "order_id is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
