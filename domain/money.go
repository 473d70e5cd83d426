package domain

import "math"

// RoundMoney rounds an amount to whole cents.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
