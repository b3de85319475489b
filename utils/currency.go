package utils

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

const MoneyPlaces = 2

// RoundMoney rounds half away from zero to two places.
// Only final totals go through here. Tax and discount are summed unrounded.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// MoneyJSON renders an amount as a JSON number with exactly two decimals.
func MoneyJSON(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(MoneyPlaces))
}

func MoneyJSONPtr(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := MoneyJSON(*d)
	return &n
}

// FormatCurrency renders 1234567.5 as "1,234,567.50".
func FormatCurrency(amount decimal.Decimal) string {
	formatted := amount.StringFixed(MoneyPlaces)

	sign := ""
	if strings.HasPrefix(formatted, "-") {
		sign = "-"
		formatted = formatted[1:]
	}

	parts := strings.SplitN(formatted, ".", 2)
	integerPart := parts[0]

	var groups []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integerPart[start:i]}, groups...)
	}

	return sign + strings.Join(groups, ",") + "." + parts[1]
}
