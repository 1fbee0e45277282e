package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fundnetwork/memberportal/internal/survey"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(RoleMiddleware(h.keys))

			// Any role, including anonymous viewers
			r.Get("/surveys", h.ListSurveys)
			r.Get("/surveys/{year}/sections", h.GetSections)
			r.Get("/surveys/{year}/responses/{id}/sections", h.GetResponseSections)
			r.Get("/events", h.Events)

			// Cohort analytics
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(survey.RoleMember, survey.RoleAdmin))
				r.Get("/surveys/{year}/analytics/distribution", h.Distribution)
				r.Get("/surveys/{year}/analytics/stats", h.NumericStats)
				r.Get("/surveys/{year}/analytics/summary", h.Summary)
			})

			// Administration
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(survey.RoleAdmin))
				r.Post("/surveys/{year}/responses", h.ImportResponse)
				r.Get("/surveys/{year}/report", h.ReportLink)
				r.Get("/visibility", h.ListVisibility)
				r.Put("/visibility", h.UpdateVisibility)
			})
		})
	})

	return r
}
