package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/shopdash/ordercore/domain"
)

// StockReader supplies live stock levels to the in-memory catalog.
type StockReader interface {
	Stock(ctx context.Context, productID int64) (int, error)
}

// MemoryCatalog holds products and deals in memory. Stock is read from the ledger
// on every lookup so the catalog never holds a stale copy.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
	deals    map[int64]domain.Deal
	stock    StockReader
}

func NewMemoryCatalog(stock StockReader) *MemoryCatalog {
	return &MemoryCatalog{
		products: make(map[int64]domain.Product),
		deals:    make(map[int64]domain.Deal),
		stock:    stock,
	}
}

func (c *MemoryCatalog) PutProduct(p domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

func (c *MemoryCatalog) RemoveProduct(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, id)
}

func (c *MemoryCatalog) PutDeal(d domain.Deal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deals[d.ID] = d
}

func (c *MemoryCatalog) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	c.mu.RLock()
	p, ok := c.products[id]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrProductNotFound
	}

	if c.stock != nil {
		stock, err := c.stock.Stock(ctx, id)
		if err != nil {
			return nil, err
		}
		p.Stock = stock
	}
	return &p, nil
}

func (c *MemoryCatalog) GetDeal(_ context.Context, code string) (*domain.Deal, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.deals {
		if strings.EqualFold(d.Code, code) {
			return &d, nil
		}
	}
	return nil, nil
}

func (c *MemoryCatalog) GetDealByID(_ context.Context, id int64) (*domain.Deal, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.deals[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}
