// Package analytics binds the response store to the survey composer and
// aggregators. It decides which rows and fields a caller may see and never
// interprets answer values itself.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fundnetwork/memberportal/internal/survey"
	"github.com/fundnetwork/memberportal/internal/types"
)

var (
	// ErrUnknownField is returned when a field is not in the year's registry.
	ErrUnknownField = errors.New("field is not part of this survey year")
	// ErrFieldHidden is returned when the caller's role may not see a field.
	ErrFieldHidden = errors.New("field is not visible to this role")
	// ErrForbidden is returned when the caller's role may not run cohort analytics.
	ErrForbidden = errors.New("cohort analytics require a member or admin role")
)

// Source is the slice of the store the service reads from.
type Source interface {
	ListResponses(ctx context.Context, year int, filter types.ResponseFilter) ([]types.SurveyResponse, error)
	GetResponse(ctx context.Context, year int, id string) (*types.SurveyResponse, error)
	ListVisibility(ctx context.Context) ([]survey.FieldVisibility, error)
}

// Query selects a cohort field.
type Query struct {
	Year   int
	Field  string
	Role   survey.Role
	Filter types.ResponseFilter
}

// Service answers composition and cohort questions.
type Service struct {
	source Source
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a Service. A nil logger discards output.
func NewService(source Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		source: source,
		logger: logger.With("component", "analytics"),
		now:    time.Now,
	}
}

// Gate loads the visibility matrix.
func (s *Service) Gate(ctx context.Context) (*survey.Gate, error) {
	entries, err := s.source.ListVisibility(ctx)
	if err != nil {
		return nil, fmt.Errorf("load visibility: %w", err)
	}
	return survey.NewGate(entries), nil
}

// ResponseSections fetches one response and the visibility matrix
// concurrently and composes the response for role. An unsupported year
// yields no sections.
func (s *Service) ResponseSections(ctx context.Context, year int, id string, role survey.Role) ([]survey.SectionView, error) {
	if !survey.IsSupportedYear(year) {
		return []survey.SectionView{}, nil
	}

	var (
		resp *types.SurveyResponse
		gate *survey.Gate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.source.GetResponse(gctx, year, id)
		if err != nil {
			return fmt.Errorf("load response: %w", err)
		}
		resp = r
		return nil
	})
	g.Go(func() error {
		gt, err := s.Gate(gctx)
		gate = gt
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return survey.DescribeSections(resp.Row(), year, role, gate), nil
}

func authorize(role survey.Role) error {
	if role != survey.RoleAdmin && role != survey.RoleMember {
		return ErrForbidden
	}
	return nil
}

// cohort fetches the rows of q and, for non-admin callers, checks that the
// field is visible. Both reads run concurrently.
func (s *Service) cohort(ctx context.Context, q Query) ([]survey.Row, error) {
	if q.Field != "" && !survey.HasField(q.Year, q.Field) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, q.Field)
	}

	var (
		responses []types.SurveyResponse
		gate      *survey.Gate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.source.ListResponses(gctx, q.Year, q.Filter)
		if err != nil {
			return fmt.Errorf("load cohort: %w", err)
		}
		responses = r
		return nil
	})
	if q.Role != survey.RoleAdmin && q.Field != "" {
		g.Go(func() error {
			gt, err := s.Gate(gctx)
			gate = gt
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if gate != nil && !gate.IsVisible(q.Field, q.Year, q.Role) {
		return nil, fmt.Errorf("%w: %s", ErrFieldHidden, q.Field)
	}

	s.logger.Debug("cohort loaded",
		"year", q.Year,
		"field", q.Field,
		"role", string(q.Role),
		"rows", len(responses),
	)
	return types.Rows(responses), nil
}

// Distribution returns the top answer buckets of a field.
func (s *Service) Distribution(ctx context.Context, q Query) (*types.DistributionResponse, error) {
	out := &types.DistributionResponse{
		Year:    q.Year,
		Field:   q.Field,
		Label:   survey.QuestionLabel(q.Field, q.Year),
		Status:  q.Filter.Status,
		Buckets: []survey.Bucket{},
	}
	if err := authorize(q.Role); err != nil {
		return nil, err
	}
	if !survey.IsSupportedYear(q.Year) {
		return out, nil
	}

	rows, err := s.cohort(ctx, q)
	if err != nil {
		return nil, err
	}
	out.Respondents = len(rows)
	out.Observations = survey.CountObservations(rows, q.Field)
	out.Buckets = survey.CalculateDistribution(rows, q.Field)
	return out, nil
}

// NumericStats returns min, max, mean and median of a field.
func (s *Service) NumericStats(ctx context.Context, q Query) (*types.NumericStatsResponse, error) {
	out := &types.NumericStatsResponse{
		Year:   q.Year,
		Field:  q.Field,
		Label:  survey.QuestionLabel(q.Field, q.Year),
		Status: q.Filter.Status,
	}
	if err := authorize(q.Role); err != nil {
		return nil, err
	}
	if !survey.IsSupportedYear(q.Year) {
		return out, nil
	}

	rows, err := s.cohort(ctx, q)
	if err != nil {
		return nil, err
	}
	out.Respondents = len(rows)
	out.Stats = survey.CalculateNumericStats(rows, q.Field)
	return out, nil
}

// CohortReport analyses every registry field of year that role may see.
// Admins see every field; members see the fields their matrix entry allows.
func (s *Service) CohortReport(ctx context.Context, year int, role survey.Role, filter types.ResponseFilter) (*types.CohortReport, error) {
	report := &types.CohortReport{
		Year:        year,
		Role:        string(role),
		Status:      filter.Status,
		GeneratedAt: s.now().UTC(),
		Fields:      []survey.FieldAnalysis{},
	}
	if err := authorize(role); err != nil {
		return nil, err
	}
	if !survey.IsSupportedYear(year) {
		return report, nil
	}

	var (
		responses []types.SurveyResponse
		gate      *survey.Gate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.source.ListResponses(gctx, year, filter)
		if err != nil {
			return fmt.Errorf("load cohort: %w", err)
		}
		responses = r
		return nil
	})
	if role != survey.RoleAdmin {
		g.Go(func() error {
			gt, err := s.Gate(gctx)
			gate = gt
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := types.Rows(responses)
	report.Respondents = len(rows)
	for _, field := range survey.Fields(year) {
		if survey.IsMetadataField(field) {
			continue
		}
		if gate != nil && !gate.IsVisible(field, year, role) {
			continue
		}
		report.Fields = append(report.Fields, survey.Analyze(rows, year, field))
	}

	s.logger.Debug("cohort report built",
		"year", year,
		"role", string(role),
		"respondents", report.Respondents,
		"fields", len(report.Fields),
	)
	return report, nil
}
