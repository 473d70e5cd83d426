package orders

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopdash/ordercore/domain"
)

// MemoryRepository implements OrderRepository with in-memory storage
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.Order
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (r *MemoryRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = clone(order)
	return nil
}

func (r *MemoryRepository) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return clone(o), nil
}

// GetOrderForUpdate does not lock. UpdateStatus is a compare-and-set, so of two racing writers only one flips the status.
func (r *MemoryRepository) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.GetOrderByID(ctx, id)
}

func (r *MemoryRepository) ListOrdersByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, clone(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, c StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[c.ID]
	if !ok {
		return ErrOrderNotFound
	}
	if o.Status != c.FromStatus || o.PaymentStatus != c.FromPayment {
		return ErrConcurrentUpdate
	}
	o.Status = c.ToStatus
	o.PaymentStatus = c.ToPayment
	o.UpdatedAt = c.At
	return nil
}

func clone(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp
}
