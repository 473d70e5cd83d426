package deals

import (
	"context"
	"sync"

	"github.com/shopdash/ordercore/domain"
)

// MemoryCounter implements Counter with in-memory storage
type MemoryCounter struct {
	mu    sync.Mutex
	deals map[int64]*domain.Deal
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{deals: make(map[int64]*domain.Deal)}
}

// SetDeal registers a deal's cap and current usage.
func (c *MemoryCounter) SetDeal(dealID int64, maxUses, usedCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deals[dealID] = &domain.Deal{ID: dealID, MaxUses: maxUses, UsedCount: usedCount}
}

func (c *MemoryCounter) IncrementUsage(_ context.Context, dealID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.deals[dealID]
	if !ok {
		return ErrDealNotFound
	}
	if !d.HasCapacity() {
		return &UsageLimitExceededError{DealID: dealID, MaxUses: d.MaxUses}
	}
	d.UsedCount++
	return nil
}

func (c *MemoryCounter) ReleaseUsage(_ context.Context, dealID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.deals[dealID]
	if !ok {
		return ErrDealNotFound
	}
	if d.UsedCount == 0 {
		return ErrNoUsageToRelease
	}
	d.UsedCount--
	return nil
}

func (c *MemoryCounter) Usage(_ context.Context, dealID int64) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.deals[dealID]
	if !ok {
		return 0, ErrDealNotFound
	}
	return d.UsedCount, nil
}
