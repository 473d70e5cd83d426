package inventory

import (
	"context"
	"sync"
)

// MemoryStore implements Ledger with in-memory storage
type MemoryStore struct {
	mu     sync.RWMutex
	stocks map[int64]int // productID -> units on hand
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stocks: make(map[int64]int)}
}

func (s *MemoryStore) Decrement(_ context.Context, productID int64, qty int) error {
	if err := validateQuantity(qty); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stock, exists := s.stocks[productID]
	if !exists {
		return ErrProductNotFound
	}
	if stock < qty {
		return &InsufficientStockError{ProductID: productID, Requested: qty, Available: stock}
	}

	s.stocks[productID] = stock - qty
	return nil
}

func (s *MemoryStore) Increment(_ context.Context, productID int64, qty int) error {
	if err := validateQuantity(qty); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stocks[productID]; !exists {
		return ErrProductNotFound
	}
	s.stocks[productID] += qty
	return nil
}

func (s *MemoryStore) Stock(_ context.Context, productID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stock, exists := s.stocks[productID]
	if !exists {
		return 0, ErrProductNotFound
	}
	return stock, nil
}

// SetStock sets the stock level for a product (used for initialization)
func (s *MemoryStore) SetStock(productID int64, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stocks[productID] = quantity
}
