package survey

// AnalysisKind names the summary chosen for a field.
type AnalysisKind string

const (
	AnalysisNumeric     AnalysisKind = "numeric"
	AnalysisCategorical AnalysisKind = "categorical"
	AnalysisEmpty       AnalysisKind = "empty"
)

// FieldAnalysis is the cohort summary of one field.
type FieldAnalysis struct {
	Field        string        `json:"field"`
	Label        string        `json:"label"`
	Kind         AnalysisKind  `json:"kind"`
	Observations int           `json:"observations"`
	Buckets      []Bucket      `json:"buckets,omitempty"`
	Stats        *NumericStats `json:"stats,omitempty"`
}

// ClassifyField inspects the observed values of field and picks the
// summary that fits them. A field is numeric only when every observed
// value is a scalar that coerces to a number.
func ClassifyField(rows []Row, field string) AnalysisKind {
	observed := 0
	numeric := true
	for _, row := range rows {
		v, ok := row[field]
		if !ok {
			continue
		}
		switch v.Kind() {
		case KindNull:
			continue
		case KindString:
			if s, _ := v.Str(); s == "" {
				continue
			}
		case KindList:
			if CountObservations([]Row{{field: v}}, field) == 0 {
				continue
			}
			observed++
			numeric = false
			continue
		}
		observed++
		if _, ok := CoerceNumber(v); !ok {
			numeric = false
		}
	}

	switch {
	case observed == 0:
		return AnalysisEmpty
	case numeric:
		return AnalysisNumeric
	default:
		return AnalysisCategorical
	}
}

// Analyze summarises field for year across rows, choosing between a
// distribution and numeric statistics from the observed value shapes.
func Analyze(rows []Row, year int, field string) FieldAnalysis {
	fa := FieldAnalysis{
		Field:        field,
		Label:        QuestionLabel(field, year),
		Kind:         ClassifyField(rows, field),
		Observations: CountObservations(rows, field),
	}
	switch fa.Kind {
	case AnalysisNumeric:
		fa.Stats = CalculateNumericStats(rows, field)
	case AnalysisCategorical:
		fa.Buckets = CalculateDistribution(rows, field)
	}
	return fa
}
