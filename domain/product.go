package domain

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusArchived ProductStatus = "archived"
)

// Product is the catalog view of a product. Stock is owned by the inventory ledger.
type Product struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Price         float64       `json:"price"`
	DiscountPrice *float64      `json:"discountPrice,omitempty"`
	Stock         int           `json:"stock"`
	Status        ProductStatus `json:"status"`
}

// EffectivePrice is the unit price a buyer pays right now.
func (p *Product) EffectivePrice() float64 {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

func (p *Product) IsSellable() bool {
	return p.Status == ProductStatusActive
}
