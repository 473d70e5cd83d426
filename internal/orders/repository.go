package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopdash/ordercore/domain"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrConcurrentUpdate = errors.New("order was modified concurrently")
)

// StatusChange moves an order from one status pair to another.
// It is applied only while the stored order still holds the From values.
type StatusChange struct {
	ID          uuid.UUID
	FromStatus  domain.OrderStatus
	FromPayment domain.PaymentStatus
	ToStatus    domain.OrderStatus
	ToPayment   domain.PaymentStatus
	At          time.Time
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// GetOrderForUpdate reads the order and, inside a transaction, locks it until commit.
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	// UpdateStatus returns ErrConcurrentUpdate when the stored statuses no longer match the change's From values.
	UpdateStatus(ctx context.Context, change StatusChange) error
}
