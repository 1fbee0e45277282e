package survey

// metadataFields are bookkeeping columns that never render as answers.
var metadataFields = map[string]struct{}{
	"id":                {},
	"user_id":           {},
	"created_at":        {},
	"updated_at":        {},
	"submission_status": {},
	"completed_at":      {},
	"form_data":         {},
}

// IsMetadataField reports whether field is a bookkeeping column.
func IsMetadataField(field string) bool {
	_, ok := metadataFields[field]
	return ok
}

// ComposeSections returns the registry sections of year restricted to the
// fields that are present in row and visible to role. Sections left empty
// are dropped; registry order is kept. An unknown year yields an empty list.
func ComposeSections(row Row, year int, role Role, gate VisibilityChecker) []Section {
	out := []Section{}
	for _, sec := range registry[year] {
		var fields []string
		for _, f := range sec.Fields {
			if IsMetadataField(f) {
				continue
			}
			if !row.Has(f) {
				continue
			}
			if gate == nil || !gate.IsVisible(f, year, role) {
				continue
			}
			fields = append(fields, f)
		}
		if len(fields) == 0 {
			continue
		}
		out = append(out, Section{ID: sec.ID, Title: sec.Title, Fields: fields})
	}
	return out
}

// FieldView is a composed field ready for display.
type FieldView struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value Value  `json:"value"`
}

// SectionView is a composed section with labels and values attached.
type SectionView struct {
	ID     int         `json:"id"`
	Title  string      `json:"title"`
	Fields []FieldView `json:"fields"`
}

// DescribeSections composes row like ComposeSections and attaches the
// question label and raw value of every surviving field.
func DescribeSections(row Row, year int, role Role, gate VisibilityChecker) []SectionView {
	secs := ComposeSections(row, year, role, gate)
	out := make([]SectionView, 0, len(secs))
	for _, sec := range secs {
		view := SectionView{ID: sec.ID, Title: sec.Title, Fields: make([]FieldView, 0, len(sec.Fields))}
		for _, f := range sec.Fields {
			view.Fields = append(view.Fields, FieldView{
				Key:   f,
				Label: QuestionLabel(f, year),
				Value: row[f],
			})
		}
		out = append(out, view)
	}
	return out
}
