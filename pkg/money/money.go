package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round rounds to cents, halves away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percent returns base*pct/100 without rounding.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// ApplyDiscount returns price reduced by pct percent, rounded to cents.
func ApplyDiscount(price, pct decimal.Decimal) decimal.Decimal {
	if pct.IsZero() {
		return Round(price)
	}
	return Round(price.Mul(hundred.Sub(pct)).Div(hundred))
}

func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
