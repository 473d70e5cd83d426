package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopdash/ordercore/internal/catalog"
	"github.com/shopdash/ordercore/internal/checkout"
	"github.com/shopdash/ordercore/internal/deals"
	"github.com/shopdash/ordercore/internal/inventory"
	"github.com/shopdash/ordercore/internal/orders"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{checkout.ErrEmptyCart, http.StatusBadRequest, "empty_cart"},
	{checkout.ErrEmptyCheckout, http.StatusBadRequest, "empty_checkout"},
	{checkout.ErrInvalidAddress, http.StatusBadRequest, "invalid_address"},
	{checkout.ErrInvalidPaymentMethod, http.StatusBadRequest, "invalid_payment_method"},
	{orders.ErrUnknownStatus, http.StatusBadRequest, "invalid_status"},
	{orders.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{checkout.ErrInvalidCartItem, http.StatusConflict, "invalid_cart_item"},
	{inventory.ErrInsufficientStock, http.StatusConflict, "insufficient_stock"},
	{deals.ErrUsageLimitExceeded, http.StatusConflict, "usage_limit_exceeded"},
	{orders.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{orders.ErrConcurrentUpdate, http.StatusConflict, "concurrent_update"},
	{catalog.ErrUnavailable, http.StatusServiceUnavailable, "catalog_unavailable"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
}

// handleError renders a service error. Messages of typed errors reach the client verbatim.
func handleError(w http.ResponseWriter, log *zap.Logger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			respondJSON(w, m.status, ErrorResponse{
				Error:   userMessage(err, m.target),
				Code:    m.code,
				Details: details(err),
			})
			return
		}
	}

	log.Error("request failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

func userMessage(err, sentinel error) string {
	var (
		stockErr *inventory.InsufficientStockError
		usageErr *deals.UsageLimitExceededError
		addrErr  *checkout.InvalidAddressError
		itemErr  *checkout.InvalidCartItemError
		transErr *orders.InvalidTransitionError
	)
	switch {
	case errors.As(err, &stockErr):
		return stockErr.Error()
	case errors.As(err, &usageErr):
		return usageErr.Error()
	case errors.As(err, &addrErr):
		return addrErr.Error()
	case errors.As(err, &itemErr):
		return itemErr.Error()
	case errors.As(err, &transErr):
		return transErr.Error()
	}
	return sentinel.Error()
}

func details(err error) string {
	var addrErr *checkout.InvalidAddressError
	if errors.As(err, &addrErr) {
		return strings.Join(addrErr.Missing, ",")
	}
	return ""
}
