package entity

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// NormalizeAmount converts a gateway amount into minor currency units.
// Integers are taken as already minor units; decimals are major units scaled by 100.
func NormalizeAmount(raw any) *int64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case int:
		n := int64(v)
		return &n
	case int64:
		return &v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		if v == math.Trunc(v) {
			n := int64(v)
			return &n
		}
		return scaleMajorUnits(decimal.NewFromFloat(v))
	case json.Number:
		return normalizeAmountString(v.String(), true)
	case string:
		return normalizeAmountString(v, false)
	default:
		return nil
	}
}

// normalizeAmountString treats JSON numbers like numbers, so 12.0 is twelve minor units,
// while strings with a decimal point are always major units.
func normalizeAmountString(raw string, numeric bool) *int64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	decimalMarks := "."
	if numeric {
		decimalMarks = ".eE"
	}
	if !strings.ContainsAny(trimmed, decimalMarks) {
		n, ok := ParseLeadingInt(trimmed)
		if !ok {
			return nil
		}
		return &n
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil
	}
	if numeric && d.IsInteger() {
		n := d.IntPart()
		return &n
	}
	return scaleMajorUnits(d)
}

func scaleMajorUnits(d decimal.Decimal) *int64 {
	n := d.Mul(hundred).Round(0).IntPart()
	return &n
}

// FormatMinorUnits renders minor units as a fixed two-decimal major amount, e.g. 1250 -> "12.50 USD"
func FormatMinorUnits(amount *int64, currency string) string {
	if amount == nil {
		return "n/a"
	}

	formatted := decimal.New(*amount, -2).StringFixed(2)
	if currency == "" {
		return formatted
	}
	return formatted + " " + currency
}
