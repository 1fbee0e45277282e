package types

import (
	"encoding/json"
	"time"

	"github.com/fundnetwork/memberportal/internal/survey"
)

// Submission statuses of a survey response.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// SubmissionStatuses lists every accepted submission status.
var SubmissionStatuses = []string{StatusInProgress, StatusCompleted}

// SurveyResponse is one stored survey submission.
type SurveyResponse struct {
	ID               string     `json:"id"`
	SurveyYear       int        `json:"survey_year"`
	UserID           string     `json:"user_id"`
	SubmissionStatus string     `json:"submission_status"`
	Data             survey.Row `json:"data"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// Row returns the answers merged with the bookkeeping columns, the shape
// the section composer and aggregators consume.
func (r SurveyResponse) Row() survey.Row {
	row := make(survey.Row, len(r.Data)+7)
	for k, v := range r.Data {
		row[k] = v
	}
	row["id"] = survey.String(r.ID)
	row["user_id"] = survey.String(r.UserID)
	row["submission_status"] = survey.String(r.SubmissionStatus)
	row["created_at"] = survey.String(r.CreatedAt.Format(time.RFC3339))
	row["updated_at"] = survey.String(r.UpdatedAt.Format(time.RFC3339))
	if r.CompletedAt != nil {
		row["completed_at"] = survey.String(r.CompletedAt.Format(time.RFC3339))
	} else {
		row["completed_at"] = survey.Null()
	}
	return row
}

// Rows converts responses into composer rows.
func Rows(responses []SurveyResponse) []survey.Row {
	rows := make([]survey.Row, len(responses))
	for i, r := range responses {
		rows[i] = r.Row()
	}
	return rows
}

// NewSurveyResponse is the input for storing a response (without generated fields).
type NewSurveyResponse struct {
	SurveyYear       int        `json:"survey_year"`
	UserID           string     `json:"user_id"`
	SubmissionStatus string     `json:"submission_status"`
	Data             survey.Row `json:"data"`
}

// ResponseFilter narrows a cohort fetch.
type ResponseFilter struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// StoreStats holds aggregate store statistics.
type StoreStats struct {
	ResponseCount     int64         `json:"response_count"`
	ResponsesByYear   map[int]int64 `json:"responses_by_year"`
	VisibilityEntries int64         `json:"visibility_entries"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status            string           `json:"status"`
	Version           string           `json:"version"`
	ResponseCount     int64            `json:"response_count"`
	ResponsesByYear   map[string]int64 `json:"responses_by_year"`
	VisibilityEntries int64            `json:"visibility_entries"`
	SupportedYears    []int            `json:"supported_years"`
}

// SurveyYearInfo summarises one registered survey year.
type SurveyYearInfo struct {
	Year         int `json:"year"`
	SectionCount int `json:"section_count"`
	FieldCount   int `json:"field_count"`
}

// SurveysResponse lists the registered survey years.
type SurveysResponse struct {
	Years []SurveyYearInfo `json:"years"`
}

// SectionField is a registry field with its question label.
type SectionField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// RegistrySection is a static section layout with labels.
type RegistrySection struct {
	ID     int            `json:"id"`
	Title  string         `json:"title"`
	Fields []SectionField `json:"fields"`
}

// SectionsResponse is the static layout of one survey year.
type SectionsResponse struct {
	Year     int               `json:"year"`
	Sections []RegistrySection `json:"sections"`
}

// ResponseSectionsResponse is one response composed for the caller's role.
type ResponseSectionsResponse struct {
	Year       int                  `json:"year"`
	ResponseID string               `json:"response_id"`
	Role       string               `json:"role"`
	Sections   []survey.SectionView `json:"sections"`
}

// ImportResponseRequest is the body of a response import.
type ImportResponseRequest struct {
	UserID           string          `json:"user_id"`
	SubmissionStatus string          `json:"submission_status"`
	Data             json.RawMessage `json:"data"`
}

// ImportResponseResult acknowledges a stored response.
type ImportResponseResult struct {
	ID               string    `json:"id"`
	SurveyYear       int       `json:"survey_year"`
	SubmissionStatus string    `json:"submission_status"`
	CreatedAt        time.Time `json:"created_at"`
}

// DistributionResponse is a categorical summary of one field.
type DistributionResponse struct {
	Year         int             `json:"year"`
	Field        string          `json:"field"`
	Label        string          `json:"label"`
	Status       string          `json:"status,omitempty"`
	Respondents  int             `json:"respondents"`
	Observations int             `json:"observations"`
	Buckets      []survey.Bucket `json:"buckets"`
}

// NumericStatsResponse is a numeric summary of one field. Stats is null
// when no answer coerced to a number.
type NumericStatsResponse struct {
	Year        int                  `json:"year"`
	Field       string               `json:"field"`
	Label       string               `json:"label"`
	Status      string               `json:"status,omitempty"`
	Respondents int                  `json:"respondents"`
	Stats       *survey.NumericStats `json:"stats"`
}

// CohortReport summarises every field of a survey year that the requesting
// role may see.
type CohortReport struct {
	Year        int                    `json:"year"`
	Role        string                 `json:"role"`
	Status      string                 `json:"status,omitempty"`
	GeneratedAt time.Time              `json:"generated_at"`
	Respondents int                    `json:"respondents"`
	Fields      []survey.FieldAnalysis `json:"fields"`
}

// VisibilityResponse is the full visibility matrix.
type VisibilityResponse struct {
	Entries []survey.FieldVisibility `json:"entries"`
}

// VisibilityUpdateRequest replaces the listed matrix entries.
type VisibilityUpdateRequest struct {
	Entries []survey.FieldVisibility `json:"entries"`
}

// VisibilityUpdateResult acknowledges a visibility update.
type VisibilityUpdateResult struct {
	Updated int `json:"updated"`
}

// ReportLinkResponse points at the last published cohort report.
type ReportLinkResponse struct {
	Year      int       `json:"year"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MarshalJSON ensures nil slices in DistributionResponse marshal as [] not null.
func (d DistributionResponse) MarshalJSON() ([]byte, error) {
	if d.Buckets == nil {
		d.Buckets = []survey.Bucket{}
	}
	type Alias DistributionResponse
	return json.Marshal(Alias(d))
}

// MarshalJSON ensures nil slices in ResponseSectionsResponse marshal as [] not null.
func (r ResponseSectionsResponse) MarshalJSON() ([]byte, error) {
	if r.Sections == nil {
		r.Sections = []survey.SectionView{}
	}
	type Alias ResponseSectionsResponse
	return json.Marshal(Alias(r))
}

// MarshalJSON ensures nil slices in CohortReport marshal as [] not null.
func (c CohortReport) MarshalJSON() ([]byte, error) {
	if c.Fields == nil {
		c.Fields = []survey.FieldAnalysis{}
	}
	type Alias CohortReport
	return json.Marshal(Alias(c))
}

// MarshalJSON ensures nil slices in VisibilityResponse marshal as [] not null.
func (v VisibilityResponse) MarshalJSON() ([]byte, error) {
	if v.Entries == nil {
		v.Entries = []survey.FieldVisibility{}
	}
	type Alias VisibilityResponse
	return json.Marshal(Alias(v))
}

// MarshalJSON ensures nil maps in HealthResponse marshal as {} not null.
func (h HealthResponse) MarshalJSON() ([]byte, error) {
	if h.ResponsesByYear == nil {
		h.ResponsesByYear = map[string]int64{}
	}
	if h.SupportedYears == nil {
		h.SupportedYears = []int{}
	}
	type Alias HealthResponse
	return json.Marshal(Alias(h))
}
