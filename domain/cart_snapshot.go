package domain

import "time"

// CartSnapshotItem is a cart line resolved against the live catalog.
type CartSnapshotItem struct {
	ProductID       int64   `json:"productId"`
	ProductName     string  `json:"productName"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"priceAtPurchase"`
	ItemTotal       float64 `json:"itemTotal"`
}

type InvalidItemKind string

const (
	InvalidItemMissing           InvalidItemKind = "missing"
	InvalidItemUnavailable       InvalidItemKind = "unavailable"
	InvalidItemInsufficientStock InvalidItemKind = "insufficient_stock"
	InvalidItemBadQuantity       InvalidItemKind = "bad_quantity"
)

// InvalidCartItem is a cart line that cannot be bought right now.
// Available is set for insufficient stock.
type InvalidCartItem struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	Kind        InvalidItemKind `json:"kind"`
	Reason      string          `json:"reason"`
	Available   int             `json:"available,omitempty"`
}

// CartSnapshot represents the full cart state at checkout time.
// Totals cover valid items only.
type CartSnapshot struct {
	CartID       string             `json:"cartId"`
	UserID       string             `json:"userId"`
	Items        []CartSnapshotItem `json:"items"`
	InvalidItems []InvalidCartItem  `json:"invalidItems"`
	TotalAmount  float64            `json:"totalAmount"`
	TotalItems   int                `json:"totalItems"`
	Discount     *AppliedDiscount   `json:"appliedDiscount,omitempty"`
	CapturedAt   time.Time          `json:"capturedAt"`
}

func (s *CartSnapshot) HasInvalidItems() bool {
	return len(s.InvalidItems) > 0
}
