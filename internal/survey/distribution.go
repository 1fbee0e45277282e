package survey

import (
	"sort"
	"strconv"
)

// MaxBuckets caps the number of buckets a distribution returns.
const MaxBuckets = 10

// Bucket is one entry of a categorical distribution.
type Bucket struct {
	Name       string `json:"name"`
	Value      int    `json:"value"`
	Percentage string `json:"percentage"`
}

// recordLabelKeys are checked in order when a record value is counted.
var recordLabelKeys = []string{"value", "label", "text"}

// CalculateDistribution counts the observed values of field across rows.
// List values contribute one observation per element. Null and empty
// strings are not observations. Percentages are relative to the total
// number of observations. Buckets are ordered by count, descending, with
// ties kept in first-seen order, and capped at MaxBuckets.
func CalculateDistribution(rows []Row, field string) []Bucket {
	counts := make(map[string]int)
	verbatim := make(map[string]bool)
	var order []string
	total := 0

	observe := func(v Value) {
		key, ok := observationKey(v)
		if !ok {
			return
		}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
			verbatim[key] = isJSONKey(v)
		}
		counts[key]++
		total++
	}

	for _, row := range rows {
		v, ok := row[field]
		if !ok {
			continue
		}
		if v.Kind() == KindList {
			for _, item := range v.Items() {
				observe(item)
			}
			continue
		}
		observe(v)
	}

	buckets := []Bucket{}
	if total == 0 {
		return buckets
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > MaxBuckets {
		order = order[:MaxBuckets]
	}

	for _, key := range order {
		c := counts[key]
		name := key
		if !verbatim[key] {
			name = FormatValueLabel(field, key)
		}
		buckets = append(buckets, Bucket{
			Name:       TruncateLabel(name),
			Value:      c,
			Percentage: formatPercentage(c, total),
		})
	}
	return buckets
}

// CountObservations returns the number of observations CalculateDistribution
// would count for field.
func CountObservations(rows []Row, field string) int {
	n := 0
	for _, row := range rows {
		v, ok := row[field]
		if !ok {
			continue
		}
		if v.Kind() == KindList {
			for _, item := range v.Items() {
				if _, ok := observationKey(item); ok {
					n++
				}
			}
			continue
		}
		if _, ok := observationKey(v); ok {
			n++
		}
	}
	return n
}

// observationKey stringifies v for counting. ok is false for values that
// are not observations.
func observationKey(v Value) (string, bool) {
	switch v.Kind() {
	case KindNull:
		return "", false
	case KindString:
		s, _ := v.Str()
		if s == "" {
			return "", false
		}
		return s, true
	case KindNumber:
		n, _ := v.Num()
		return formatNumber(n), true
	case KindBool:
		b, _ := v.Boolean()
		return strconv.FormatBool(b), true
	case KindRecord:
		return recordLabel(v), true
	case KindList:
		return v.compactJSON(), true
	default:
		return "", false
	}
}

// isJSONKey reports whether the observation key of v is compact JSON text,
// which is shown as-is.
func isJSONKey(v Value) bool {
	switch v.Kind() {
	case KindList:
		return true
	case KindRecord:
		_, ok := recordText(v)
		return !ok
	default:
		return false
	}
}

// recordLabel extracts a display string from a structured answer: a common
// label key, else the first string property, else the compact JSON.
func recordLabel(v Value) string {
	if s, ok := recordText(v); ok {
		return s
	}
	return v.compactJSON()
}

// recordText finds the display string of a record. ok is false when the
// record has no usable property.
func recordText(v Value) (string, bool) {
	for _, key := range recordLabelKeys {
		inner, ok := v.Get(key)
		if !ok {
			continue
		}
		switch inner.Kind() {
		case KindString:
			if s, _ := inner.Str(); s != "" {
				return s, true
			}
		case KindNumber:
			n, _ := inner.Num()
			return formatNumber(n), true
		case KindBool:
			b, _ := inner.Boolean()
			return strconv.FormatBool(b), true
		}
	}
	for _, f := range v.Fields() {
		if s, ok := f.Value.Str(); ok {
			return s, true
		}
	}
	return "", false
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func formatPercentage(count, total int) string {
	return strconv.FormatFloat(float64(count)*100/float64(total), 'f', 1, 64)
}
