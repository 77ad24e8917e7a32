package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var currencyJunk = regexp.MustCompile(`[$€£¥\s]`)

// ParseCurrency parses a currency string into a float64, handling "$1,234.56",
// European "1.234,56", bare numbers, and parenthesized negatives "(123.45)".
// Unparseable values contribute 0.
func ParseCurrency(value string) float64 {
	if value == "" {
		return 0
	}

	trimmed := strings.TrimSpace(value)
	negative := strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")")
	if negative {
		trimmed = strings.Trim(trimmed, "()")
	}

	trimmed = currencyJunk.ReplaceAllString(trimmed, "")

	hasComma := strings.Contains(trimmed, ",")
	hasDot := strings.Contains(trimmed, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(trimmed, ",") > strings.LastIndex(trimmed, ".") {
			// European: 1.234,56
			trimmed = strings.ReplaceAll(trimmed, ".", "")
			trimmed = strings.ReplaceAll(trimmed, ",", ".")
		} else {
			// US: 1,234.56
			trimmed = strings.ReplaceAll(trimmed, ",", "")
		}
	case hasComma:
		// 1,234 is US thousands, 1,23 is a European decimal.
		last := strings.LastIndex(trimmed, ",")
		if len(trimmed)-last-1 == 3 {
			trimmed = strings.ReplaceAll(trimmed, ",", "")
		} else {
			trimmed = strings.ReplaceAll(trimmed, ",", ".")
		}
	}

	result, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		fmt.Printf("[Validation] WARNING: could not parse currency value: %s\n", value)
		return 0
	}
	if negative {
		return -result
	}
	return result
}

// amount normalizes an untyped invoice amount field for validation math.
func amount(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		return ParseCurrency(n)
	default:
		return ParseCurrency(fmt.Sprint(v))
	}
}
