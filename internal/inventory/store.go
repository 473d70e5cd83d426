package inventory

import (
	"context"
	"errors"
	"fmt"
)

// Common errors returned by the ledger
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// InsufficientStockError reports how many units were left when a decrement was refused.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock. Available: %d", e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Ledger is the only writer of product stock.
type Ledger interface {
	// Decrement atomically removes qty units from the product's stock.
	// Returns *InsufficientStockError when fewer than qty units are left; stock is unchanged in that case.
	Decrement(ctx context.Context, productID int64, qty int) error

	// Increment returns qty units to the product's stock. There is no upper bound.
	Increment(ctx context.Context, productID int64, qty int) error

	// Stock returns the current stock level of a product.
	Stock(ctx context.Context, productID int64) (int, error)
}

func validateQuantity(qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}
	return nil
}
