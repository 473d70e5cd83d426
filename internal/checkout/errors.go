package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrEmptyCheckout        = errors.New("no purchasable items to checkout")
	ErrInvalidAddress       = errors.New("invalid shipping address")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidCartItem      = errors.New("cart contains items that cannot be purchased")
)

// InvalidAddressError names every required field left empty.
type InvalidAddressError struct {
	Missing []string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("Shipping address is missing required fields: %s", strings.Join(e.Missing, ", "))
}

func (e *InvalidAddressError) Is(target error) bool {
	return target == ErrInvalidAddress
}

// InvalidCartItemError is returned when a line is no longer purchasable for a reason other than stock.
type InvalidCartItemError struct {
	ProductID   int64
	ProductName string
	Reason      string
}

func (e *InvalidCartItemError) Error() string {
	if e.ProductName != "" {
		return fmt.Sprintf("%s: %s", e.ProductName, e.Reason)
	}
	return fmt.Sprintf("Product %d: %s", e.ProductID, e.Reason)
}

func (e *InvalidCartItemError) Is(target error) bool {
	return target == ErrInvalidCartItem
}
