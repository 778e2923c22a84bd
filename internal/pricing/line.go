package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/travel-backoffice/internal/numfmt"
)

// LineTotal multiplies a unit price by a quantity and truncates the result to
// two decimal places. Malformed prices count as 0.
func LineTotal(price string, quantity int) float64 {
	return Round2(numfmt.ToFloat(price) * float64(quantity))
}

// Round2 truncates v toward zero at two decimal digits.
func Round2(v float64) float64 {
	v = numfmt.Finite(v)
	if v == 0 {
		return 0
	}
	return decimal.NewFromFloat(v).Truncate(2).InexactFloat64()
}
