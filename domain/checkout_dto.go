package domain

type CheckoutRequest struct {
	UserID          string
	ShippingAddress Address
	BillingAddress  *Address
	PaymentMethod   PaymentMethod
	CouponCode      string
}

type CheckoutSummary struct {
	Items          []CartSnapshotItem `json:"items"`
	InvalidItems   []InvalidCartItem  `json:"invalidItems"`
	Subtotal       float64            `json:"subtotal"`
	TotalItems     int                `json:"totalItems"`
	DiscountAmount float64            `json:"discountAmount"`
	FinalTotal     float64            `json:"finalTotal"`
	AppliedCoupon  string             `json:"appliedCoupon,omitempty"`
}
