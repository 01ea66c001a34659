// Package money converts between integer cents, which is how amounts are
// stored, and decimal values used on the wire and in provider payloads.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FromCents returns the decimal value of an amount in cents.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ToCents converts a decimal amount into cents, rounding half away from zero.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// Parse reads a decimal string such as "25.00" into cents. Amounts with more
// than two fractional digits are rejected rather than rounded.
func Parse(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("amount is required")
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if amount.Exponent() < -2 && !amount.Equal(amount.Round(2)) {
		return 0, fmt.Errorf("amount %q has more than two decimal places", value)
	}
	return ToCents(amount), nil
}

// Format renders cents as a fixed two-decimal string.
func Format(cents int64) string {
	return FromCents(cents).StringFixed(2)
}

// Amount is a JSON-friendly money value carrying both representations.
type Amount struct {
	Cents   int64  `json:"cents"`
	Decimal string `json:"amount"`
}

// NewAmount builds an Amount from cents.
func NewAmount(cents int64) Amount {
	return Amount{Cents: cents, Decimal: Format(cents)}
}
