package checkout

import (
	"testing"

	"github.com/shopdash/ordercore/domain"
	"github.com/stretchr/testify/assert"
)

func TestApplyDiscount(t *testing.T) {
	envelope := &domain.AppliedDiscount{Code: "SPRING", Amount: 15}

	tests := []struct {
		name     string
		envelope *domain.AppliedDiscount
		coupon   string
		subtotal float64
		want     Discount
	}{
		{"no envelope", nil, "SPRING", 100, Discount{FinalAmount: 100}},
		{"no coupon", envelope, "", 100, Discount{FinalAmount: 100}},
		{"different coupon", envelope, "SUMMER", 100, Discount{FinalAmount: 100}},
		{"exact match", envelope, "SPRING", 100, Discount{Code: "SPRING", Amount: 15, FinalAmount: 85}},
		{"case and spaces ignored", envelope, "  spring ", 100, Discount{Code: "SPRING", Amount: 15, FinalAmount: 85}},
		{"capped at subtotal", envelope, "SPRING", 9.99, Discount{Code: "SPRING", Amount: 9.99, FinalAmount: 0}},
		{"negative envelope amount", &domain.AppliedDiscount{Code: "BAD", Amount: -5}, "BAD", 10, Discount{Code: "BAD", Amount: 0, FinalAmount: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyDiscount(tt.envelope, tt.coupon, tt.subtotal)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got.FinalAmount, 0.0)
		})
	}
}

func TestPreviewDiscount(t *testing.T) {
	assert.Equal(t, Discount{FinalAmount: 50}, PreviewDiscount(nil, 50))
	assert.Equal(t,
		Discount{Code: "SPRING", Amount: 15, FinalAmount: 35},
		PreviewDiscount(&domain.AppliedDiscount{Code: "SPRING", Amount: 15}, 50))
}
