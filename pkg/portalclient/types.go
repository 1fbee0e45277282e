package portalclient

import (
	"github.com/fundnetwork/memberportal/internal/survey"
	"github.com/fundnetwork/memberportal/internal/types"
)

// Wire types shared with the server.
type (
	HealthResponse           = types.HealthResponse
	SurveysResponse          = types.SurveysResponse
	SectionsResponse         = types.SectionsResponse
	ResponseSectionsResponse = types.ResponseSectionsResponse
	ImportResponseRequest    = types.ImportResponseRequest
	ImportResponseResult     = types.ImportResponseResult
	DistributionResponse     = types.DistributionResponse
	NumericStatsResponse     = types.NumericStatsResponse
	CohortReport             = types.CohortReport
	ReportLinkResponse       = types.ReportLinkResponse
	VisibilityResponse       = types.VisibilityResponse
	VisibilityUpdateRequest  = types.VisibilityUpdateRequest
	VisibilityUpdateResult   = types.VisibilityUpdateResult
	FieldVisibility          = survey.FieldVisibility
)

// Problem is an RFC 7807 error body.
type Problem struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail"`
	Instance string         `json:"instance,omitempty"`
	Errors   []ProblemField `json:"errors,omitempty"`
}

// ProblemField is one field-level validation failure.
type ProblemField struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
