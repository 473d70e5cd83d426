package checkout

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopdash/ordercore/domain"
)

// OrderDraft is everything the factory needs to build an order.
type OrderDraft struct {
	UserID          string
	Items           []domain.CartSnapshotItem
	ShippingAddress domain.Address
	BillingAddress  *domain.Address
	PaymentMethod   domain.PaymentMethod
	Discount        Discount
	Currency        string
}

// BuildOrder validates the draft and returns a pending order. It has no side effects.
func BuildOrder(d OrderDraft, now time.Time) (*domain.Order, error) {
	if len(d.Items) == 0 {
		return nil, ErrEmptyCheckout
	}
	if err := validateAddress(d.ShippingAddress); err != nil {
		return nil, err
	}
	if !d.PaymentMethod.IsValid() {
		return nil, ErrInvalidPaymentMethod
	}

	items := make([]domain.OrderItem, 0, len(d.Items))
	var original float64
	for _, it := range d.Items {
		items = append(items, domain.OrderItem{
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
			ItemTotal:       it.ItemTotal,
		})
		original += it.ItemTotal
	}
	original = domain.RoundMoney(original)

	discount := d.Discount.Amount
	if discount > original {
		discount = original
	}

	billing := d.ShippingAddress
	if d.BillingAddress != nil {
		billing = *d.BillingAddress
	}

	return &domain.Order{
		ID:              uuid.New(),
		UserID:          d.UserID,
		Items:           items,
		ShippingAddress: d.ShippingAddress,
		BillingAddress:  billing,
		PaymentMethod:   d.PaymentMethod,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		OriginalAmount:  original,
		DiscountAmount:  domain.RoundMoney(discount),
		TotalAmount:     domain.RoundMoney(original - discount),
		CouponCode:      d.Discount.Code,
		Currency:        d.Currency,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func validateAddress(a domain.Address) error {
	var missing []string
	if strings.TrimSpace(a.AddressLine1) == "" {
		missing = append(missing, "addressLine1")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.Country) == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return &InvalidAddressError{Missing: missing}
	}
	return nil
}
