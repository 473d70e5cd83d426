package cart

import (
	"context"
	"errors"

	"github.com/shopdash/ordercore/domain"
)

var ErrCartNotFound = errors.New("cart not found")

type CartRepository interface {
	// GetActiveCart returns the user's active cart, or ErrCartNotFound.
	GetActiveCart(ctx context.Context, userID string) (*domain.Cart, error)

	// ClearCart empties the cart, drops its discount envelope and marks it inactive.
	ClearCart(ctx context.Context, cartID string) error

	// SaveCart inserts or replaces a cart document.
	SaveCart(ctx context.Context, cart *domain.Cart) error
}
