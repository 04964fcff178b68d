package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseLocaleCurrency parses amounts written with either "," or "." as the
// decimal separator. When both appear the last one is the decimal separator.
// A lone comma is decimal only if exactly two digits follow it ("12,50"),
// otherwise it separates thousands ("1,234"). Anything unparseable is zero.
func ParseLocaleCurrency(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, " ", "")

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")
	switch {
	case hasDot && hasComma:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		parts := strings.Split(s, ",")
		if len(parts[len(parts)-1]) == 2 {
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
