package orders

import (
	"errors"
	"fmt"

	"github.com/shopdash/ordercore/domain"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnknownStatus     = errors.New("unknown status")
)

// InvalidTransitionError reports a status change the state machine refuses.
// Field is "status" or "paymentStatus".
type InvalidTransitionError struct {
	Field  string
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("cannot change %s from %s to %s", e.Field, e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

var lifecycle = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:    {domain.OrderStatusConfirmed, domain.OrderStatusCancelled},
	domain.OrderStatusConfirmed:  {domain.OrderStatusProcessing},
	domain.OrderStatusProcessing: {domain.OrderStatusShipped, domain.OrderStatusCancelled},
	domain.OrderStatusShipped:    {domain.OrderStatusDelivered},
}

var paymentFlow = map[domain.PaymentStatus][]domain.PaymentStatus{
	domain.PaymentStatusPending: {domain.PaymentStatusPaid, domain.PaymentStatusFailed},
	domain.PaymentStatusFailed:  {domain.PaymentStatusPending, domain.PaymentStatusPaid},
	domain.PaymentStatusPaid:    {domain.PaymentStatusRefunded},
}

func CanTransition(from, to domain.OrderStatus) bool {
	return contains(lifecycle[from], to)
}

func CanTransitionPayment(from, to domain.PaymentStatus) bool {
	return contains(paymentFlow[from], to)
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// nextState validates moving order to status and, when non-nil, to paymentStatus.
// An empty status keeps the current one. Unchanged fields are not checked.
func nextState(order *domain.Order, status domain.OrderStatus, paymentStatus *domain.PaymentStatus) (domain.OrderStatus, domain.PaymentStatus, error) {
	toStatus, toPayment := order.Status, order.PaymentStatus

	if status != "" && status != order.Status {
		if !status.IsValid() {
			return "", "", fmt.Errorf("%w: %q", ErrUnknownStatus, status)
		}
		if !CanTransition(order.Status, status) {
			return "", "", &InvalidTransitionError{Field: "status", From: order.Status.String(), To: status.String()}
		}
		toStatus = status
	}

	if paymentStatus != nil && *paymentStatus != order.PaymentStatus {
		if !paymentStatus.IsValid() {
			return "", "", fmt.Errorf("%w: %q", ErrUnknownStatus, *paymentStatus)
		}
		if !CanTransitionPayment(order.PaymentStatus, *paymentStatus) {
			return "", "", &InvalidTransitionError{
				Field: "paymentStatus", From: order.PaymentStatus.String(), To: paymentStatus.String(),
			}
		}
		toPayment = *paymentStatus
	}

	if toStatus == domain.OrderStatusDelivered && order.Status != domain.OrderStatusDelivered &&
		toPayment != domain.PaymentStatusPaid && order.PaymentMethod != domain.PaymentMethodCashOnDelivery {
		return "", "", &InvalidTransitionError{
			Field:  "status",
			From:   order.Status.String(),
			To:     toStatus.String(),
			Reason: fmt.Sprintf("payment is %s", toPayment),
		}
	}

	return toStatus, toPayment, nil
}
