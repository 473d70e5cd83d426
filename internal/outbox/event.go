package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopdash/ordercore/domain"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderCancelled     = "order.cancelled"
	EventOrderStatusChanged = "order.status_changed"
)

type Event struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     json.RawMessage
	CreatedAt   time.Time
}

// Appender records an event. Postgres appenders join the transaction carried by ctx.
type Appender interface {
	Append(ctx context.Context, event Event) error
}

type Store interface {
	Appender
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*Event, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}

type orderPayload struct {
	OrderID        string               `json:"order_id"`
	UserID         string               `json:"user_id"`
	Status         domain.OrderStatus   `json:"status"`
	PaymentStatus  domain.PaymentStatus `json:"payment_status"`
	PreviousStatus domain.OrderStatus   `json:"previous_status,omitempty"`
	Items          []domain.OrderItem   `json:"items"`
	TotalAmount    float64              `json:"total_amount"`
	DiscountAmount float64              `json:"discount_amount"`
	CouponCode     string               `json:"coupon_code,omitempty"`
	Currency       string               `json:"currency"`
	OccurredAt     time.Time            `json:"occurred_at"`
}

// NewOrderEvent builds an event describing the order's current state.
// previous is the lifecycle status before the change, empty for creation.
func NewOrderEvent(eventType string, order *domain.Order, previous domain.OrderStatus) (Event, error) {
	payload, err := json.Marshal(orderPayload{
		OrderID:        order.ID.String(),
		UserID:         order.UserID,
		Status:         order.Status,
		PaymentStatus:  order.PaymentStatus,
		PreviousStatus: previous,
		Items:          order.Items,
		TotalAmount:    order.TotalAmount,
		DiscountAmount: order.DiscountAmount,
		CouponCode:     order.CouponCode,
		Currency:       order.Currency,
		OccurredAt:     order.UpdatedAt,
	})
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		AggregateID: order.ID.String(),
		EventType:   eventType,
		Payload:     payload,
	}, nil
}
