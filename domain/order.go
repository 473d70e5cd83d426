package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is a frozen copy of a cart line. It never refers back to the live product price.
type OrderItem struct {
	ProductID       int64   `json:"productId"`
	ProductName     string  `json:"productName"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"priceAtPurchase"`
	ItemTotal       float64 `json:"itemTotal"`
}

type Address struct {
	FullName     string `json:"fullName,omitempty"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
	Country      string `json:"country"`
	Phone        string `json:"phone,omitempty"`
}

type Order struct {
	ID              uuid.UUID     `json:"id"`
	UserID          string        `json:"userId"`
	Items           []OrderItem   `json:"items"`
	ShippingAddress Address       `json:"shippingAddress"`
	BillingAddress  Address       `json:"billingAddress"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	Status          OrderStatus   `json:"status"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	OriginalAmount  float64       `json:"originalAmount"`
	DiscountAmount  float64       `json:"discountAmount"`
	TotalAmount     float64       `json:"totalAmount"`
	CouponCode      string        `json:"couponCode,omitempty"`
	Currency        string        `json:"currency"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

func (o *Order) TotalQuantity() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}
