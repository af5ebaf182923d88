package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Round applies the billing rounding policy: half-up to two decimal places.
// Every order amount is rounded exactly once, at order-creation time.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Total computes base + perUnit*quantity, rounded.
func Total(base, perUnit decimal.Decimal, quantity int) decimal.Decimal {
	return Round(base.Add(perUnit.Mul(decimal.NewFromInt(int64(quantity)))))
}

// Convert applies a conversion rate to an amount, rounded.
func Convert(amount, rate decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(rate))
}

// Format renders an amount with its currency code for admin tables,
// e.g. "USD 49.00".
func Format(amount decimal.Decimal, currency string) string {
	return fmt.Sprintf("%s %s", currency, amount.StringFixed(2))
}
