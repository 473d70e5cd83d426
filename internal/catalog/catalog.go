package catalog

import (
	"context"
	"errors"

	"github.com/shopdash/ordercore/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrUnavailable     = errors.New("catalog unavailable")
)

// Catalog is the read side of products and deals.
type Catalog interface {
	// GetProduct returns the live product state, or ErrProductNotFound.
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)

	// GetDeal returns the deal with the given code, or nil when there is none.
	GetDeal(ctx context.Context, code string) (*domain.Deal, error)

	// GetDealByID returns the deal with the given id, or nil when there is none.
	GetDealByID(ctx context.Context, id int64) (*domain.Deal, error)
}
