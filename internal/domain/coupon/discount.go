package coupon

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// PercentageDiscount returns subtotal * percent / 100 rounded half-up to two
// decimal places. Negative results are clamped to zero.
func PercentageDiscount(subtotal decimal.Decimal, percent int) decimal.Decimal {
	amount := subtotal.Mul(decimal.NewFromInt(int64(percent))).Div(hundred)
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount.Round(2)
}
