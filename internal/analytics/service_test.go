package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/fundnetwork/memberportal/internal/store"
	"github.com/fundnetwork/memberportal/internal/survey"
	"github.com/fundnetwork/memberportal/internal/types"
)

// fakeSource serves fixed responses and visibility entries.
type fakeSource struct {
	mu            sync.Mutex
	responses     map[int][]types.SurveyResponse
	visibility    []survey.FieldVisibility
	listErr       error
	visErr        error
	lastFilter    types.ResponseFilter
	visibilityHit int
}

func (f *fakeSource) ListResponses(_ context.Context, year int, filter types.ResponseFilter) ([]types.SurveyResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []types.SurveyResponse
	for _, r := range f.responses[year] {
		if filter.Status == "" || r.SubmissionStatus == filter.Status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) GetResponse(_ context.Context, year int, id string) (*types.SurveyResponse, error) {
	for _, r := range f.responses[year] {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeSource) ListVisibility(context.Context) ([]survey.FieldVisibility, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visibilityHit++
	return f.visibility, f.visErr
}

func response(id, status string, data survey.Row) types.SurveyResponse {
	return types.SurveyResponse{ID: id, SurveyYear: 2023, UserID: "user-" + id, SubmissionStatus: status, Data: data}
}

func newFixture() *fakeSource {
	return &fakeSource{
		responses: map[int][]types.SurveyResponse{
			2023: {
				response("r1", types.StatusCompleted, survey.Row{
					"fund_name":          survey.String("Acme"),
					"legal_domicile":     survey.String("mauritius"),
					"portfolio_count":    survey.Number(4),
					"geographic_markets": survey.List(survey.String("kenya"), survey.String("uganda")),
				}),
				response("r2", types.StatusCompleted, survey.Row{
					"fund_name":       survey.String("Beta"),
					"legal_domicile":  survey.String("mauritius"),
					"portfolio_count": survey.String("8"),
				}),
				response("r3", types.StatusInProgress, survey.Row{
					"legal_domicile": survey.String("kenya"),
				}),
			},
		},
		visibility: []survey.FieldVisibility{
			{FieldName: "legal_domicile", SurveyYear: 2023, ViewerVisible: true, MemberVisible: true, AdminVisible: true},
			{FieldName: "portfolio_count", SurveyYear: 2023, MemberVisible: true, AdminVisible: true},
			{FieldName: "fund_name", SurveyYear: 2023, AdminVisible: true},
		},
	}
}

func TestService_ResponseSections_ByRole(t *testing.T) {
	svc := NewService(newFixture(), nil)
	ctx := context.Background()

	keys := func(views []survey.SectionView) []string {
		var out []string
		for _, v := range views {
			for _, f := range v.Fields {
				out = append(out, f.Key)
			}
		}
		return out
	}

	tests := []struct {
		role survey.Role
		want []string
	}{
		{survey.RoleAdmin, []string{"fund_name", "legal_domicile", "portfolio_count"}},
		{survey.RoleMember, []string{"legal_domicile", "portfolio_count"}},
		{survey.RoleViewer, []string{"legal_domicile"}},
		{survey.RoleUnknown, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			views, err := svc.ResponseSections(ctx, 2023, "r1", tt.role)
			if err != nil {
				t.Fatalf("ResponseSections() error = %v", err)
			}
			got := keys(views)
			// Registry order decides the sequence; compare as sets of keys in order.
			if diff := cmp.Diff(sortedCopy(tt.want), sortedCopy(got)); diff != "" {
				t.Errorf("visible fields mismatch (-want +got):\n%s", diff)
			}
			for _, k := range got {
				if survey.IsMetadataField(k) {
					t.Errorf("metadata field %q leaked", k)
				}
			}
		})
	}
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func TestService_ResponseSections_Errors(t *testing.T) {
	ctx := context.Background()

	svc := NewService(newFixture(), nil)
	if _, err := svc.ResponseSections(ctx, 2023, "missing", survey.RoleAdmin); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing response error = %v, want ErrNotFound", err)
	}

	views, err := svc.ResponseSections(ctx, 1999, "r1", survey.RoleAdmin)
	if err != nil || views == nil || len(views) != 0 {
		t.Errorf("unsupported year = %v, %v, want empty non-nil", views, err)
	}

	boom := errors.New("visibility table locked")
	src := newFixture()
	src.visErr = boom
	svc = NewService(src, nil)
	if _, err := svc.ResponseSections(ctx, 2023, "r1", survey.RoleAdmin); !errors.Is(err, boom) {
		t.Errorf("visibility failure error = %v", err)
	}
}

func TestService_Distribution(t *testing.T) {
	svc := NewService(newFixture(), nil)

	got, err := svc.Distribution(context.Background(), Query{Year: 2023, Field: "legal_domicile", Role: survey.RoleMember})
	if err != nil {
		t.Fatalf("Distribution() error = %v", err)
	}

	want := []survey.Bucket{
		{Name: "Mauritius", Value: 2, Percentage: "66.7"},
		{Name: "Kenya", Value: 1, Percentage: "33.3"},
	}
	if diff := cmp.Diff(want, got.Buckets); diff != "" {
		t.Errorf("buckets mismatch (-want +got):\n%s", diff)
	}
	if got.Respondents != 3 || got.Observations != 3 {
		t.Errorf("respondents/observations = %d/%d", got.Respondents, got.Observations)
	}
	if got.Label != survey.QuestionLabel("legal_domicile", 2023) {
		t.Errorf("label = %q", got.Label)
	}
}

func TestService_Distribution_StatusFilterPassedThrough(t *testing.T) {
	src := newFixture()
	svc := NewService(src, nil)

	got, err := svc.Distribution(context.Background(), Query{
		Year: 2023, Field: "legal_domicile", Role: survey.RoleAdmin,
		Filter: types.ResponseFilter{Status: types.StatusInProgress, Limit: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	if src.lastFilter.Status != types.StatusInProgress || src.lastFilter.Limit != 10 {
		t.Errorf("filter = %+v", src.lastFilter)
	}
	if len(got.Buckets) != 1 || got.Buckets[0].Name != "Kenya" || got.Buckets[0].Percentage != "100.0" {
		t.Errorf("buckets = %+v", got.Buckets)
	}
}

func TestService_Distribution_Access(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		query Query
		want  error
	}{
		{"viewer forbidden", Query{Year: 2023, Field: "legal_domicile", Role: survey.RoleViewer}, ErrForbidden},
		{"unknown role forbidden", Query{Year: 2023, Field: "legal_domicile", Role: survey.RoleUnknown}, ErrForbidden},
		{"unknown field", Query{Year: 2023, Field: "shoe_size", Role: survey.RoleAdmin}, ErrUnknownField},
		{"hidden from member", Query{Year: 2023, Field: "fund_name", Role: survey.RoleMember}, ErrFieldHidden},
		{"no matrix entry fails closed", Query{Year: 2023, Field: "hurdle_rate", Role: survey.RoleMember}, ErrFieldHidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newFixture(), nil)
			if _, err := svc.Distribution(ctx, tt.query); !errors.Is(err, tt.want) {
				t.Errorf("Distribution() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestService_Distribution_AdminSkipsMatrix(t *testing.T) {
	src := newFixture()
	svc := NewService(src, nil)

	got, err := svc.Distribution(context.Background(), Query{Year: 2023, Field: "fund_name", Role: survey.RoleAdmin})
	if err != nil {
		t.Fatalf("Distribution() error = %v", err)
	}
	if len(got.Buckets) != 2 {
		t.Errorf("buckets = %+v", got.Buckets)
	}
	if src.visibilityHit != 0 {
		t.Errorf("admin query loaded the matrix %d times", src.visibilityHit)
	}
}

func TestService_Distribution_UnsupportedYearIsEmpty(t *testing.T) {
	svc := NewService(newFixture(), nil)

	got, err := svc.Distribution(context.Background(), Query{Year: 2030, Field: "legal_domicile", Role: survey.RoleAdmin})
	if err != nil {
		t.Fatalf("Distribution() error = %v", err)
	}
	if got.Buckets == nil || len(got.Buckets) != 0 || got.Respondents != 0 {
		t.Errorf("Distribution(2030) = %+v, want empty", got)
	}
}

func TestService_Distribution_FetchFailure(t *testing.T) {
	boom := errors.New("pool exhausted")
	src := newFixture()
	src.listErr = boom
	svc := NewService(src, nil)

	if _, err := svc.Distribution(context.Background(), Query{Year: 2023, Field: "legal_domicile", Role: survey.RoleAdmin}); !errors.Is(err, boom) {
		t.Errorf("Distribution() error = %v, want wrapped fetch error", err)
	}
}

func TestService_NumericStats(t *testing.T) {
	svc := NewService(newFixture(), nil)

	got, err := svc.NumericStats(context.Background(), Query{Year: 2023, Field: "portfolio_count", Role: survey.RoleMember})
	if err != nil {
		t.Fatalf("NumericStats() error = %v", err)
	}
	want := &survey.NumericStats{Min: 4, Max: 8, Avg: 6, Median: 6, Total: 12, Count: 2}
	if diff := cmp.Diff(want, got.Stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	if got.Respondents != 3 {
		t.Errorf("respondents = %d", got.Respondents)
	}

	none, err := svc.NumericStats(context.Background(), Query{Year: 2023, Field: "legal_domicile", Role: survey.RoleMember})
	if err != nil {
		t.Fatal(err)
	}
	if none.Stats != nil {
		t.Errorf("non-numeric field stats = %+v, want nil", none.Stats)
	}
}

func TestService_CohortReport(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	fieldsOf := func(r *types.CohortReport) map[string]survey.AnalysisKind {
		out := map[string]survey.AnalysisKind{}
		for _, f := range r.Fields {
			out[f.Field] = f.Kind
		}
		return out
	}

	svc := NewService(newFixture(), nil)
	svc.now = func() time.Time { return fixed }

	admin, err := svc.CohortReport(ctx, 2023, survey.RoleAdmin, types.ResponseFilter{})
	if err != nil {
		t.Fatalf("CohortReport(admin) error = %v", err)
	}
	if len(admin.Fields) != len(survey.Fields(2023)) {
		t.Errorf("admin report fields = %d, want every registry field (%d)", len(admin.Fields), len(survey.Fields(2023)))
	}
	kinds := fieldsOf(admin)
	if kinds["portfolio_count"] != survey.AnalysisNumeric || kinds["legal_domicile"] != survey.AnalysisCategorical || kinds["hurdle_rate"] != survey.AnalysisEmpty {
		t.Errorf("admin kinds = %v", kinds)
	}
	if !admin.GeneratedAt.Equal(fixed) || admin.Respondents != 3 {
		t.Errorf("admin report header = %+v", admin)
	}

	member, err := svc.CohortReport(ctx, 2023, survey.RoleMember, types.ResponseFilter{})
	if err != nil {
		t.Fatalf("CohortReport(member) error = %v", err)
	}
	want := map[string]survey.AnalysisKind{
		"legal_domicile":  survey.AnalysisCategorical,
		"portfolio_count": survey.AnalysisNumeric,
	}
	if diff := cmp.Diff(want, fieldsOf(member)); diff != "" {
		t.Errorf("member report mismatch (-want +got):\n%s", diff)
	}

	if _, err := svc.CohortReport(ctx, 2023, survey.RoleViewer, types.ResponseFilter{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("viewer report error = %v, want ErrForbidden", err)
	}

	empty, err := svc.CohortReport(ctx, 2019, survey.RoleAdmin, types.ResponseFilter{})
	if err != nil || len(empty.Fields) != 0 {
		t.Errorf("unsupported year report = %+v, %v", empty, err)
	}
}
