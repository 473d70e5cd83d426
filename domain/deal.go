package domain

import "time"

// UnlimitedUses marks a deal without a redemption cap.
const UnlimitedUses = -1

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
	DiscountTypeBuyXGetY   DiscountType = "buy_x_get_y"
)

type Deal struct {
	ID            int64        `json:"id"`
	Code          string       `json:"code"`
	DiscountType  DiscountType `json:"discountType"`
	DiscountValue float64      `json:"discountValue"`
	StartDate     time.Time    `json:"startDate"`
	EndDate       time.Time    `json:"endDate"`
	MaxUses       int          `json:"maxUses"`
	UsedCount     int          `json:"usedCount"`
}

func (d *Deal) IsUnlimited() bool {
	return d.MaxUses == UnlimitedUses
}

// HasCapacity reports whether one more redemption fits under the cap.
func (d *Deal) HasCapacity() bool {
	return d.IsUnlimited() || d.UsedCount < d.MaxUses
}
