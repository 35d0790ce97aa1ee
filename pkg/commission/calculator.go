package commission

import (
	"github.com/shopspring/decimal"
)

// precision matches the wallet's atomic unit resolution.
const precision = 12

// Amount computes the commission due on a paid amount at the given
// percentage rate, truncated to atomic-unit resolution.
func Amount(paid, percent decimal.Decimal) decimal.Decimal {
	return paid.Mul(percent).Div(decimal.NewFromInt(100)).Truncate(precision)
}
