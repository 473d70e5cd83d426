package checkout

import (
	"math"
	"strings"

	"github.com/shopdash/ordercore/domain"
)

type Discount struct {
	Code        string
	Amount      float64
	FinalAmount float64
}

// ApplyDiscount applies the cart's discount envelope when couponCode matches its code.
// The envelope was validated when it was attached, so no date or usage checks happen here.
// The discount never exceeds the subtotal.
func ApplyDiscount(envelope *domain.AppliedDiscount, couponCode string, subtotal float64) Discount {
	subtotal = math.Max(0, subtotal)
	if !codeMatches(envelope, couponCode) {
		return Discount{FinalAmount: domain.RoundMoney(subtotal)}
	}

	amount := math.Min(math.Max(0, envelope.Amount), subtotal)
	return Discount{
		Code:        envelope.Code,
		Amount:      domain.RoundMoney(amount),
		FinalAmount: domain.RoundMoney(math.Max(0, subtotal-amount)),
	}
}

// PreviewDiscount applies the envelope as attached, for summaries shown before checkout.
func PreviewDiscount(envelope *domain.AppliedDiscount, subtotal float64) Discount {
	if envelope == nil {
		return ApplyDiscount(nil, "", subtotal)
	}
	return ApplyDiscount(envelope, envelope.Code, subtotal)
}

func codeMatches(envelope *domain.AppliedDiscount, couponCode string) bool {
	if envelope == nil || envelope.Code == "" {
		return false
	}
	code := strings.TrimSpace(couponCode)
	return code != "" && strings.EqualFold(code, envelope.Code)
}
