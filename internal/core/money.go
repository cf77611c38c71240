// Package core holds the studio's domain types and their validation rules.
//
// This file contains parsing and formatting of quetzal amounts. Amounts are
// decimal.Decimal values rounded to two places.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a non-negative amount such as "1250", "1,250.50" or "99,9".
//
// A single comma with at most two digits after it is taken as the decimal
// separator; otherwise commas are thousands separators. The result is rounded
// half-up to cents.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Q")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, invalid("monto", "el monto es obligatorio")
	}

	if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		if i := strings.Index(s, ","); len(s)-i-1 <= 2 {
			s = s[:i] + "." + s[i+1:]
		}
	}
	s = strings.ReplaceAll(s, ",", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalid("monto", "el monto debe ser un número válido")
	}
	if d.IsNegative() {
		return decimal.Zero, invalid("monto", "el monto no puede ser negativo")
	}
	return d.Round(2), nil
}

// FormatQuetzales renders an amount as "Q1,250.00".
func FormatQuetzales(d decimal.Decimal) string {
	neg := d.IsNegative()
	fixed := d.Abs().StringFixed(2)

	intPart, frac := fixed, ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, frac = fixed[:i], fixed[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := "Q" + b.String() + frac
	if neg {
		return "-" + out
	}
	return out
}

// SumPrices adds up service prices.
func SumPrices(services []Service) decimal.Decimal {
	total := decimal.Zero
	for _, s := range services {
		total = total.Add(s.Price)
	}
	return total
}

// AverageScore returns the mean review score rounded to one decimal, or 0
// when there are no reviews.
func AverageScore(reviews []Review) decimal.Decimal {
	if len(reviews) == 0 {
		return decimal.Zero
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Score
	}
	return decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(reviews)))).Round(1)
}
