package survey

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// NumericStats summarises the numeric answers to one field.
type NumericStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Avg    float64 `json:"avg"`
	Median float64 `json:"median"`
	Total  float64 `json:"total"`
	Count  int     `json:"count"`
}

// numericPrefix matches the leading number left after stripping.
var numericPrefix = regexp.MustCompile(`^-?(?:\d+\.?\d*|\.\d+)`)

// CoerceNumber returns v as a finite number. Numbers pass through; strings
// are stripped of everything but digits, '-' and '.' and their leading
// number is parsed. Every other kind is rejected.
func CoerceNumber(v Value) (float64, bool) {
	switch v.Kind() {
	case KindNumber:
		n, _ := v.Num()
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case KindString:
		s, _ := v.Str()
		return parseNumericString(s)
	default:
		return 0, false
	}
}

func parseNumericString(s string) (float64, bool) {
	stripped := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' || r == '.' {
			return r
		}
		return -1
	}, s)
	m := numericPrefix.FindString(stripped)
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// CalculateNumericStats summarises the coercible values of field across
// rows. It returns nil when no value coerces, which is distinct from a
// result whose values are all zero.
func CalculateNumericStats(rows []Row, field string) *NumericStats {
	var values []float64
	for _, row := range rows {
		v, ok := row[field]
		if !ok {
			continue
		}
		if n, ok := CoerceNumber(v); ok {
			values = append(values, n)
		}
	}
	if len(values) == 0 {
		return nil
	}

	sort.Float64s(values)
	total := 0.0
	for _, n := range values {
		total += n
	}

	return &NumericStats{
		Min:    values[0],
		Max:    values[len(values)-1],
		Avg:    total / float64(len(values)),
		Median: median(values),
		Total:  total,
		Count:  len(values),
	}
}

// median expects sorted, non-empty input.
func median(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
