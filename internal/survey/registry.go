// Package survey holds the year-keyed survey schemas, the field visibility
// gate and the pure aggregation functions over response rows.
package survey

import "sort"

// Section is a named, ordered grouping of field keys for one survey year.
type Section struct {
	ID     int      `json:"id"`
	Title  string   `json:"title"`
	Fields []string `json:"fields"`
}

// registry maps a survey year to its section layout. Each year is an
// independent value; nothing is shared or inherited between years.
var registry = map[int][]Section{
	2021: sections2021,
	2022: sections2022,
	2023: sections2023,
	2024: sections2024,
}

// SupportedYears returns the survey years with a registered layout, ascending.
func SupportedYears() []int {
	years := make([]int, 0, len(registry))
	for y := range registry {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// IsSupportedYear reports whether year has a registered layout.
func IsSupportedYear(year int) bool {
	_, ok := registry[year]
	return ok
}

// Sections returns a copy of the section layout for year.
func Sections(year int) ([]Section, bool) {
	secs, ok := registry[year]
	if !ok {
		return nil, false
	}
	out := make([]Section, len(secs))
	for i, s := range secs {
		out[i] = Section{ID: s.ID, Title: s.Title, Fields: append([]string(nil), s.Fields...)}
	}
	return out, true
}

// Fields returns every field of year in section order.
func Fields(year int) []string {
	var fields []string
	for _, s := range registry[year] {
		fields = append(fields, s.Fields...)
	}
	return fields
}

// HasField reports whether field is declared for year.
func HasField(year int, field string) bool {
	for _, s := range registry[year] {
		for _, f := range s.Fields {
			if f == field {
				return true
			}
		}
	}
	return false
}
