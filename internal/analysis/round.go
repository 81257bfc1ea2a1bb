package analysis

import (
	"github.com/shopspring/decimal"
)

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// scale multiplies v by factor in decimal arithmetic and rounds the product
// to two places.
func scale(v, factor float64) float64 {
	f, _ := decimal.NewFromFloat(v).Mul(decimal.NewFromFloat(factor)).Round(2).Float64()
	return f
}
