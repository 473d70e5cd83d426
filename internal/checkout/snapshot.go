package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopdash/ordercore/domain"
	"github.com/shopdash/ordercore/internal/catalog"
)

const (
	ReasonProductMissing     = "Product no longer exists"
	ReasonProductUnavailable = "Product is currently unavailable"
	ReasonBadQuantity        = "Quantity must be at least 1"
)

func insufficientStockReason(available int) string {
	return fmt.Sprintf("Insufficient stock. Available: %d", available)
}

// SnapshotReader resolves cart lines against the live catalog. It never mutates stock.
type SnapshotReader struct {
	catalog catalog.Catalog
	now     func() time.Time
}

func NewSnapshotReader(c catalog.Catalog) *SnapshotReader {
	return &SnapshotReader{catalog: c, now: time.Now}
}

// Read classifies every line of c as valid or invalid. Totals cover valid lines only.
// A nil or empty cart fails with ErrEmptyCart; a cart whose lines are all invalid does not.
func (r *SnapshotReader) Read(ctx context.Context, c *domain.Cart) (*domain.CartSnapshot, error) {
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	snapshot := &domain.CartSnapshot{
		CartID:       c.ID.Hex(),
		UserID:       c.UserID,
		Items:        make([]domain.CartSnapshotItem, 0, len(c.Items)),
		InvalidItems: make([]domain.InvalidCartItem, 0),
		Discount:     c.Discount,
		CapturedAt:   r.now(),
	}

	var total float64
	for _, line := range c.Items {
		product, err := r.catalog.GetProduct(ctx, line.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			snapshot.InvalidItems = append(snapshot.InvalidItems, domain.InvalidCartItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Kind:      domain.InvalidItemMissing,
				Reason:    ReasonProductMissing,
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get product %d: %w", line.ProductID, err)
		}

		if invalid, ok := classify(product, line.Quantity); !ok {
			snapshot.InvalidItems = append(snapshot.InvalidItems, invalid)
			continue
		}

		price := product.EffectivePrice()
		itemTotal := domain.RoundMoney(price * float64(line.Quantity))
		snapshot.Items = append(snapshot.Items, domain.CartSnapshotItem{
			ProductID:       product.ID,
			ProductName:     product.Name,
			Quantity:        line.Quantity,
			PriceAtPurchase: price,
			ItemTotal:       itemTotal,
		})
		total += itemTotal
		snapshot.TotalItems += line.Quantity
	}
	snapshot.TotalAmount = domain.RoundMoney(total)

	return snapshot, nil
}

func classify(p *domain.Product, qty int) (domain.InvalidCartItem, bool) {
	invalid := domain.InvalidCartItem{ProductID: p.ID, ProductName: p.Name, Quantity: qty}
	switch {
	case qty < 1:
		invalid.Kind = domain.InvalidItemBadQuantity
		invalid.Reason = ReasonBadQuantity
	case !p.IsSellable():
		invalid.Kind = domain.InvalidItemUnavailable
		invalid.Reason = ReasonProductUnavailable
	case p.Stock < qty:
		invalid.Kind = domain.InvalidItemInsufficientStock
		invalid.Reason = insufficientStockReason(p.Stock)
		invalid.Available = p.Stock
	default:
		return invalid, true
	}
	return invalid, false
}
