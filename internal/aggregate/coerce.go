package aggregate

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// CoerceNumber converts a heterogeneous amount representation to a float64.
// Finite numbers pass through; nil contributes 0; everything else is reduced
// to its textual form, stripped of every character that is not a digit, '.'
// or '-', and parsed, falling back to 0 when the result is not finite.
// Total and confidence summarization share this single coercion so the two
// cannot drift apart.
func CoerceNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		if isFinite(n) {
			return n
		}
		return 0
	case float32:
		if isFinite(float64(n)) {
			return float64(n)
		}
		return 0
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		return parseLoose(n.String())
	case string:
		return parseLoose(n)
	default:
		return parseLoose(fmt.Sprint(v))
	}
}

func parseLoose(s string) float64 {
	s = nonNumeric.ReplaceAllString(s, "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(f) {
		return 0
	}
	return f
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FormatAmount renders a total as a decimal string with thousands grouping
// and exactly two fractional digits, no currency symbol.
func FormatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]

	var b strings.Builder
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(intPart[i])
	}
	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
