package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fundnetwork/memberportal/internal/analytics"
	"github.com/fundnetwork/memberportal/internal/events"
	"github.com/fundnetwork/memberportal/internal/export"
	"github.com/fundnetwork/memberportal/internal/store"
	"github.com/fundnetwork/memberportal/internal/survey"
	"github.com/fundnetwork/memberportal/internal/types"
	"github.com/fundnetwork/memberportal/internal/validation"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ChangeSource hands out change subscriptions for the event stream.
type ChangeSource interface {
	Subscribe() (<-chan events.Change, func())
}

// Handler implements the API handlers
type Handler struct {
	store     store.Store
	analytics *analytics.Service
	reports   export.Publisher
	changes   ChangeSource
	keys      Keys
	version   string
}

// NewHandler creates a new Handler.
func NewHandler(s store.Store, svc *analytics.Service, reports export.Publisher, changes ChangeSource, keys Keys, version string) *Handler {
	return &Handler{
		store:     s,
		analytics: svc,
		reports:   reports,
		changes:   changes,
		keys:      keys,
		version:   version,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// pathYear reads the {year} URL parameter. Any integer is accepted; years
// without a registered survey produce empty results downstream.
func pathYear(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Survey year must be an integer")
		return 0, false
	}
	return year, true
}

// parseFilter reads the status and limit query parameters.
func parseFilter(r *http.Request) (types.ResponseFilter, []validation.ValidationError) {
	var (
		c      validation.Collector
		filter types.ResponseFilter
	)
	q := r.URL.Query()

	filter.Status = q.Get("status")
	c.Add(validation.ValidateStatusFilter("status", filter.Status))

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			c.Add(&validation.ValidationError{Field: "limit", Message: "must be an integer"})
		} else {
			c.Add(validation.ValidateIntRange("limit", limit, 1, validation.MaxCohortLimit))
			filter.Limit = limit
		}
	}
	return filter, c.Errors()
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		slog.Error("health check failed", "error", err)
		WriteProblem(w, r, http.StatusServiceUnavailable, "Store unavailable")
		return
	}

	byYear := make(map[string]int64, len(stats.ResponsesByYear))
	for year, n := range stats.ResponsesByYear {
		byYear[strconv.Itoa(year)] = n
	}

	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:            "healthy",
		Version:           h.version,
		ResponseCount:     stats.ResponseCount,
		ResponsesByYear:   byYear,
		VisibilityEntries: stats.VisibilityEntries,
		SupportedYears:    survey.SupportedYears(),
	})
}

// ListSurveys handles GET /api/v1/surveys
func (h *Handler) ListSurveys(w http.ResponseWriter, r *http.Request) {
	years := survey.SupportedYears()
	resp := types.SurveysResponse{Years: make([]types.SurveyYearInfo, 0, len(years))}
	for _, year := range years {
		secs, _ := survey.Sections(year)
		resp.Years = append(resp.Years, types.SurveyYearInfo{
			Year:         year,
			SectionCount: len(secs),
			FieldCount:   len(survey.Fields(year)),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSections handles GET /api/v1/surveys/{year}/sections
func (h *Handler) GetSections(w http.ResponseWriter, r *http.Request) {
	year, ok := pathYear(w, r)
	if !ok {
		return
	}

	secs, _ := survey.Sections(year)
	resp := types.SectionsResponse{Year: year, Sections: make([]types.RegistrySection, 0, len(secs))}
	for _, s := range secs {
		fields := make([]types.SectionField, 0, len(s.Fields))
		for _, f := range s.Fields {
			fields = append(fields, types.SectionField{Key: f, Label: survey.QuestionLabel(f, year)})
		}
		resp.Sections = append(resp.Sections, types.RegistrySection{ID: s.ID, Title: s.Title, Fields: fields})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetResponseSections handles GET /api/v1/surveys/{year}/responses/{id}/sections
func (h *Handler) GetResponseSections(w http.ResponseWriter, r *http.Request) {
	year, ok := pathYear(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if verr := validation.ValidateULID("id", id); verr != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{*verr})
		return
	}
	role := RoleFromContext(r.Context())

	sections, err := h.analytics.ResponseSections(r.Context(), year, id, role)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, types.ResponseSectionsResponse{
		Year:       year,
		ResponseID: id,
		Role:       string(role),
		Sections:   sections,
	})
}

// ImportResponse handles POST /api/v1/surveys/{year}/responses
func (h *Handler) ImportResponse(w http.ResponseWriter, r *http.Request) {
	year, verr := validation.ParseYear("year", chi.URLParam(r, "year"))
	if verr != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{*verr})
		return
	}

	var req types.ImportResponseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if errs := validation.ValidateImportRequest(year, req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	row, err := survey.ParseRow(req.Data)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid response data")
		return
	}

	resp, err := h.store.SubmitResponse(r.Context(), types.NewSurveyResponse{
		SurveyYear:       year,
		UserID:           req.UserID,
		SubmissionStatus: req.SubmissionStatus,
		Data:             row,
	})
	if err != nil {
		slog.Error("import failed", "error", err, "year", year)
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, types.ImportResponseResult{
		ID:               resp.ID,
		SurveyYear:       resp.SurveyYear,
		SubmissionStatus: resp.SubmissionStatus,
		CreatedAt:        resp.CreatedAt,
	})
}

// analyticsQuery reads the year, field and filter of an analytics request.
func analyticsQuery(w http.ResponseWriter, r *http.Request) (analytics.Query, bool) {
	year, ok := pathYear(w, r)
	if !ok {
		return analytics.Query{}, false
	}

	field := r.URL.Query().Get("field")
	filter, errs := parseFilter(r)
	if verr := validation.ValidateFieldName("field", field); verr != nil {
		errs = append([]validation.ValidationError{*verr}, errs...)
	}
	if len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Query contains invalid parameters", errs)
		return analytics.Query{}, false
	}

	return analytics.Query{
		Year:   year,
		Field:  field,
		Role:   RoleFromContext(r.Context()),
		Filter: filter,
	}, true
}

// Distribution handles GET /api/v1/surveys/{year}/analytics/distribution
func (h *Handler) Distribution(w http.ResponseWriter, r *http.Request) {
	q, ok := analyticsQuery(w, r)
	if !ok {
		return
	}
	resp, err := h.analytics.Distribution(r.Context(), q)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// NumericStats handles GET /api/v1/surveys/{year}/analytics/stats
func (h *Handler) NumericStats(w http.ResponseWriter, r *http.Request) {
	q, ok := analyticsQuery(w, r)
	if !ok {
		return
	}
	resp, err := h.analytics.NumericStats(r.Context(), q)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Summary handles GET /api/v1/surveys/{year}/analytics/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	year, ok := pathYear(w, r)
	if !ok {
		return
	}
	filter, errs := parseFilter(r)
	if len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Query contains invalid parameters", errs)
		return
	}

	report, err := h.analytics.CohortReport(r.Context(), year, RoleFromContext(r.Context()), filter)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ReportLink handles GET /api/v1/surveys/{year}/report
func (h *Handler) ReportLink(w http.ResponseWriter, r *http.Request) {
	year, verr := validation.ParseYear("year", chi.URLParam(r, "year"))
	if verr != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{*verr})
		return
	}

	url, expires, err := h.reports.PresignedURL(r.Context(), year)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ReportLinkResponse{Year: year, URL: url, ExpiresAt: expires})
}

// ListVisibility handles GET /api/v1/visibility
func (h *Handler) ListVisibility(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ListVisibility(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.VisibilityResponse{Entries: entries})
}

// UpdateVisibility handles PUT /api/v1/visibility
func (h *Handler) UpdateVisibility(w http.ResponseWriter, r *http.Request) {
	var req types.VisibilityUpdateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := validation.ValidateVisibilityUpdate(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	n, err := h.store.UpsertVisibility(r.Context(), req.Entries)
	if err != nil {
		slog.Error("visibility update failed", "error", err, "entries", len(req.Entries))
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.VisibilityUpdateResult{Updated: n})
}
