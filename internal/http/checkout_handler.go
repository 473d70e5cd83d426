package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopdash/ordercore/domain"
	"go.uber.org/zap"
)

type CheckoutService interface {
	GetCheckoutSummary(ctx context.Context, userID string) (*domain.CheckoutSummary, error)
	CompleteCheckout(ctx context.Context, req domain.CheckoutRequest) (*domain.Order, error)
}

type CheckoutHandler struct {
	service CheckoutService
	timeout time.Duration
	log     *zap.Logger
}

func NewCheckoutHandler(service CheckoutService, timeout time.Duration, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		timeout: timeout,
		log:     log,
	}
}

type CheckoutRequestDTO struct {
	ShippingAddress domain.Address  `json:"shippingAddress"`
	BillingAddress  *domain.Address `json:"billingAddress,omitempty"`
	PaymentMethod   string          `json:"paymentMethod"`
	CouponCode      string          `json:"couponCode,omitempty"`
}

// GET /api/v1/checkout/summary
func (h *CheckoutHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	summary, err := h.service.GetCheckoutSummary(ctx, getUserIDFromContext(r.Context()))
	if err != nil {
		handleError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.service.CompleteCheckout(ctx, domain.CheckoutRequest{
		UserID:          getUserIDFromContext(r.Context()),
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		CouponCode:      req.CouponCode,
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}
