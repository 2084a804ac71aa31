package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Line is a priced cart or order line.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Subtotal sums price times quantity over lines.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// ShippingFee is free once the subtotal is strictly above freeOver.
func ShippingFee(subtotal, fee, freeOver decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(freeOver) {
		return decimal.Zero
	}
	return fee
}

// ParsePrice accepts "1,234.56" or "1234.56" and rounds to 2 decimal places.
func ParsePrice(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidPrice)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: must not be negative", ErrInvalidPrice)
	}
	return d.Round(2), nil
}

// FormatPeso renders an amount as ₱1,234.50.
func FormatPeso(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString("₱")
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
