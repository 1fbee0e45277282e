package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/fundnetwork/memberportal/internal/analytics"
	"github.com/fundnetwork/memberportal/internal/events"
	"github.com/fundnetwork/memberportal/internal/export"
	"github.com/fundnetwork/memberportal/internal/store"
	"github.com/fundnetwork/memberportal/internal/survey"
	"github.com/fundnetwork/memberportal/internal/types"
)

// fakeReports implements export.Publisher for testing.
type fakeReports struct {
	url     string
	expires time.Time
}

func (f *fakeReports) Publish(context.Context, int, []byte) error { return nil }

func (f *fakeReports) PresignedURL(_ context.Context, year int) (string, time.Time, error) {
	return f.url, f.expires, nil
}

type testEnv struct {
	router   http.Handler
	store    *store.SQLStore
	notifier *events.Notifier
	ids      []string
}

// newTestEnv wires the router to a seeded temp-dir sqlite store.
func newTestEnv(t *testing.T, reports export.Publisher) *testEnv {
	t.Helper()
	notifier := events.New()
	t.Cleanup(notifier.Close)

	s, err := store.Open(context.Background(), store.Options{
		Driver:    store.DialectSQLite,
		Path:      filepath.Join(t.TempDir(), "api.db"),
		Publisher: notifier,
	})
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	seeded, err := s.SubmitResponses(ctx, []types.NewSurveyResponse{
		{SurveyYear: 2023, UserID: "u1", SubmissionStatus: types.StatusCompleted, Data: survey.Row{
			"fund_name":       survey.String("Acme"),
			"legal_domicile":  survey.String("mauritius"),
			"portfolio_count": survey.Number(4),
		}},
		{SurveyYear: 2023, UserID: "u2", SubmissionStatus: types.StatusCompleted, Data: survey.Row{
			"fund_name":       survey.String("Beta"),
			"legal_domicile":  survey.String("mauritius"),
			"portfolio_count": survey.String("8"),
		}},
		{SurveyYear: 2023, UserID: "u3", SubmissionStatus: types.StatusInProgress, Data: survey.Row{
			"legal_domicile": survey.String("kenya"),
		}},
	})
	if err != nil {
		t.Fatalf("seed responses: %v", err)
	}
	if _, err := s.UpsertVisibility(ctx, []survey.FieldVisibility{
		{FieldName: "legal_domicile", SurveyYear: 2023, ViewerVisible: true, MemberVisible: true, AdminVisible: true},
		{FieldName: "portfolio_count", SurveyYear: 2023, MemberVisible: true, AdminVisible: true},
		{FieldName: "fund_name", SurveyYear: 2023, AdminVisible: true},
	}); err != nil {
		t.Fatalf("seed visibility: %v", err)
	}

	if reports == nil {
		reports = export.NoopPublisher{}
	}
	h := NewHandler(s, analytics.NewService(s, nil), reports, notifier, testKeys, "test")

	env := &testEnv{router: NewRouter(h), store: s, notifier: notifier}
	for _, r := range seeded {
		env.ids = append(env.ids, r.ID)
	}
	return env
}

func (e *testEnv) do(t *testing.T, method, path, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/v1/health", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	resp := decode[types.HealthResponse](t, w)
	if resp.Status != "healthy" || resp.Version != "test" {
		t.Errorf("health = %+v", resp)
	}
	if resp.ResponseCount != 3 || resp.ResponsesByYear["2023"] != 3 || resp.VisibilityEntries != 3 {
		t.Errorf("counts = %+v", resp)
	}
	if diff := cmp.Diff(survey.SupportedYears(), resp.SupportedYears); diff != "" {
		t.Errorf("supported years mismatch (-want +got):\n%s", diff)
	}
}

func TestHealth_UnknownTokenStillAllowed(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/v1/health", "not-a-key", "")

	if w.Code != http.StatusOK {
		t.Errorf("health must not require auth, status = %d", w.Code)
	}
}

func TestListSurveys(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := decode[types.SurveysResponse](t, env.do(t, http.MethodGet, "/api/v1/surveys", "", ""))

	if len(resp.Years) != len(survey.SupportedYears()) {
		t.Fatalf("years = %+v", resp.Years)
	}
	for _, y := range resp.Years {
		if y.SectionCount == 0 || y.FieldCount == 0 {
			t.Errorf("year %d has empty layout: %+v", y.Year, y)
		}
	}
}

func TestGetSections(t *testing.T) {
	env := newTestEnv(t, nil)

	t.Run("supported year", func(t *testing.T) {
		resp := decode[types.SectionsResponse](t, env.do(t, http.MethodGet, "/api/v1/surveys/2023/sections", "", ""))
		if resp.Year != 2023 || len(resp.Sections) == 0 {
			t.Fatalf("sections = %+v", resp)
		}
		for _, s := range resp.Sections {
			for _, f := range s.Fields {
				if f.Label == "" {
					t.Errorf("field %q has no label", f.Key)
				}
			}
		}
	})

	t.Run("unsupported year is empty", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/surveys/1999/sections", "", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if !strings.Contains(w.Body.String(), `"sections":[]`) {
			t.Errorf("body = %s, want empty sections array", w.Body.String())
		}
	})

	t.Run("non-numeric year", func(t *testing.T) {
		if w := env.do(t, http.MethodGet, "/api/v1/surveys/latest/sections", "", ""); w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func sectionKeys(views []survey.SectionView) []string {
	var out []string
	for _, v := range views {
		for _, f := range v.Fields {
			out = append(out, f.Key)
		}
	}
	return out
}

func TestGetResponseSections_ByRole(t *testing.T) {
	env := newTestEnv(t, nil)
	path := "/api/v1/surveys/2023/responses/" + env.ids[0] + "/sections"

	tests := []struct {
		name    string
		key     string
		role    string
		present []string
		absent  []string
	}{
		{"viewer", "", "viewer", []string{"legal_domicile"}, []string{"fund_name", "portfolio_count"}},
		{"member", testMemberKey, "member", []string{"legal_domicile", "portfolio_count"}, []string{"fund_name"}},
		{"admin", testAdminKey, "admin", []string{"fund_name", "legal_domicile", "portfolio_count"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, path, tt.key, "")
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
			}
			resp := decode[types.ResponseSectionsResponse](t, w)
			if resp.Role != tt.role || resp.ResponseID != env.ids[0] {
				t.Errorf("resp = %+v", resp)
			}
			got := strings.Join(sectionKeys(resp.Sections), ",")
			for _, k := range tt.present {
				if !strings.Contains(got, k) {
					t.Errorf("missing %q in %s", k, got)
				}
			}
			for _, k := range tt.absent {
				if strings.Contains(got, k) {
					t.Errorf("%q should be hidden, got %s", k, got)
				}
			}
			for _, k := range sectionKeys(resp.Sections) {
				if survey.IsMetadataField(k) {
					t.Errorf("metadata field %q leaked", k)
				}
			}
		})
	}
}

func TestGetResponseSections_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/v1/surveys/2023/responses/01HV0000000000000000000000/sections", "", "")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetResponseSections_MalformedID(t *testing.T) {
	// Given: A store that only holds ULID keyed responses
	env := newTestEnv(t, nil)

	// When: The id segment is not a ULID
	w := env.do(t, http.MethodGet, "/api/v1/surveys/2023/responses/not-a-ulid/sections", testAdminKey, "")

	// Then: The request is rejected as a field error before any lookup
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 (body %s)", w.Code, w.Body.String())
	}
	p := decode[ProblemWithErrors](t, w)
	if len(p.Errors) != 1 || p.Errors[0].Field != "id" {
		t.Errorf("errors = %+v, want one error on id", p.Errors)
	}
}

func TestDistribution(t *testing.T) {
	env := newTestEnv(t, nil)
	base := "/api/v1/surveys/2023/analytics/distribution"

	t.Run("member sees visible field", func(t *testing.T) {
		w := env.do(t, http.MethodGet, base+"?field=legal_domicile", testMemberKey, "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		resp := decode[types.DistributionResponse](t, w)
		if resp.Respondents != 3 || len(resp.Buckets) != 2 {
			t.Fatalf("resp = %+v", resp)
		}
		if resp.Buckets[0].Value != 2 {
			t.Errorf("top bucket = %+v, want count 2", resp.Buckets[0])
		}
		if resp.Label == "" {
			t.Error("label should be resolved")
		}
	})

	t.Run("status filter", func(t *testing.T) {
		resp := decode[types.DistributionResponse](t, env.do(t, http.MethodGet, base+"?field=legal_domicile&status=completed", testMemberKey, ""))
		if resp.Respondents != 2 || len(resp.Buckets) != 1 || resp.Status != types.StatusCompleted {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("limit", func(t *testing.T) {
		resp := decode[types.DistributionResponse](t, env.do(t, http.MethodGet, base+"?field=legal_domicile&limit=1", testAdminKey, ""))
		if resp.Respondents != 1 {
			t.Errorf("respondents = %d, want 1", resp.Respondents)
		}
	})

	t.Run("unsupported year is empty", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/surveys/1999/analytics/distribution?field=legal_domicile", testMemberKey, "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), `"buckets":[]`) {
			t.Errorf("body = %s", w.Body.String())
		}
	})

	errorCases := []struct {
		name  string
		query string
		key   string
		want  int
	}{
		{"viewer", "?field=legal_domicile", "", http.StatusUnauthorized},
		{"hidden from member", "?field=fund_name", testMemberKey, http.StatusForbidden},
		{"unknown field", "?field=no_such_field", testMemberKey, http.StatusNotFound},
		{"missing field", "", testMemberKey, http.StatusUnprocessableEntity},
		{"malformed field", "?field=Bad-Field", testMemberKey, http.StatusUnprocessableEntity},
		{"bad status", "?field=legal_domicile&status=archived", testMemberKey, http.StatusUnprocessableEntity},
		{"bad limit", "?field=legal_domicile&limit=lots", testMemberKey, http.StatusUnprocessableEntity},
		{"limit out of range", "?field=legal_domicile&limit=0", testMemberKey, http.StatusUnprocessableEntity},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, base+tt.query, tt.key, "")
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestDistribution_AdminBypassesGate(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/v1/surveys/2023/analytics/distribution?field=fund_name", testAdminKey, "")

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestNumericStats(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/v1/surveys/2023/analytics/stats?field=portfolio_count&status=completed", testMemberKey, "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	resp := decode[types.NumericStatsResponse](t, w)
	want := &survey.NumericStats{Min: 4, Max: 8, Avg: 6, Median: 6, Total: 12, Count: 2}
	if diff := cmp.Diff(want, resp.Stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestNumericStats_NoNumbersIsNull(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/v1/surveys/2023/analytics/stats?field=legal_domicile", testMemberKey, "")

	if !strings.Contains(w.Body.String(), `"stats":null`) {
		t.Errorf("body = %s, want null stats", w.Body.String())
	}
}

func TestSummary_ByRole(t *testing.T) {
	env := newTestEnv(t, nil)

	fields := func(r types.CohortReport) map[string]bool {
		out := make(map[string]bool)
		for _, f := range r.Fields {
			out[f.Field] = true
		}
		return out
	}

	member := decode[types.CohortReport](t, env.do(t, http.MethodGet, "/api/v1/surveys/2023/analytics/summary", testMemberKey, ""))
	if got := fields(member); !got["legal_domicile"] || !got["portfolio_count"] || got["fund_name"] {
		t.Errorf("member fields = %v", got)
	}

	admin := decode[types.CohortReport](t, env.do(t, http.MethodGet, "/api/v1/surveys/2023/analytics/summary?status=completed", testAdminKey, ""))
	if got := fields(admin); !got["fund_name"] {
		t.Errorf("admin fields = %v", got)
	}
	if admin.Respondents != 2 || admin.Role != "admin" {
		t.Errorf("admin report = %+v", admin)
	}
}

func TestImportResponse(t *testing.T) {
	env := newTestEnv(t, nil)
	changes, cancel := env.notifier.Subscribe()
	defer cancel()

	body := `{"user_id":"u9","submission_status":"completed","data":{"legal_domicile":"kenya","portfolio_count":3,"id":"ignored"}}`
	w := env.do(t, http.MethodPost, "/api/v1/surveys/2023/responses", testAdminKey, body)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	result := decode[types.ImportResponseResult](t, w)
	if len(result.ID) != 26 || result.SurveyYear != 2023 || result.SubmissionStatus != types.StatusCompleted {
		t.Errorf("result = %+v", result)
	}

	select {
	case c := <-changes:
		if c.Table != events.TableResponses || c.Year != 2023 {
			t.Errorf("change = %+v", c)
		}
	case <-time.After(time.Second):
		t.Error("import did not publish a change")
	}

	health := decode[types.HealthResponse](t, env.do(t, http.MethodGet, "/api/v1/health", "", ""))
	if health.ResponseCount != 4 {
		t.Errorf("response count = %d, want 4", health.ResponseCount)
	}
}

func TestImportResponse_Errors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name      string
		path      string
		key       string
		body      string
		want      int
		wantField string
	}{
		{"member forbidden", "/api/v1/surveys/2023/responses", testMemberKey, `{}`, http.StatusForbidden, ""},
		{"viewer unauthorized", "/api/v1/surveys/2023/responses", "", `{}`, http.StatusUnauthorized, ""},
		{"bad json", "/api/v1/surveys/2023/responses", testAdminKey, `{`, http.StatusBadRequest, ""},
		{"unsupported year", "/api/v1/surveys/2019/responses", testAdminKey, `{}`, http.StatusUnprocessableEntity, "year"},
		{"unknown data key", "/api/v1/surveys/2023/responses", testAdminKey,
			`{"user_id":"u","submission_status":"completed","data":{"bogus_key":1}}`, http.StatusUnprocessableEntity, "data.bogus_key"},
		{"missing user", "/api/v1/surveys/2023/responses", testAdminKey,
			`{"submission_status":"completed","data":{}}`, http.StatusUnprocessableEntity, "user_id"},
		{"number out of range", "/api/v1/surveys/2023/responses", testAdminKey,
			`{"user_id":"u9","submission_status":"completed","data":{"portfolio_count":1e400}}`, http.StatusUnprocessableEntity, "data.portfolio_count"},
		{"nested number out of range", "/api/v1/surveys/2023/responses", testAdminKey,
			`{"user_id":"u9","submission_status":"completed","data":{"sector_focus":["agri",-1e999]}}`, http.StatusUnprocessableEntity, "data.sector_focus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, tt.key, tt.body)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
			if tt.wantField == "" {
				return
			}
			p := decode[ProblemWithErrors](t, w)
			found := false
			for _, e := range p.Errors {
				if e.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("errors = %+v, want field %q", p.Errors, tt.wantField)
			}
		})
	}
}

func TestVisibility_ListAndUpdate(t *testing.T) {
	env := newTestEnv(t, nil)

	list := decode[types.VisibilityResponse](t, env.do(t, http.MethodGet, "/api/v1/visibility", testAdminKey, ""))
	if len(list.Entries) != 3 {
		t.Fatalf("entries = %+v", list.Entries)
	}

	body := `{"entries":[{"field_name":"fund_name","survey_year":2023,"viewer_visible":false,"member_visible":true,"admin_visible":true}]}`
	w := env.do(t, http.MethodPut, "/api/v1/visibility", testAdminKey, body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if got := decode[types.VisibilityUpdateResult](t, w); got.Updated != 1 {
		t.Errorf("updated = %d, want 1", got.Updated)
	}

	// The member now sees fund_name
	if w := env.do(t, http.MethodGet, "/api/v1/surveys/2023/analytics/distribution?field=fund_name", testMemberKey, ""); w.Code != http.StatusOK {
		t.Errorf("member distribution after update: status = %d", w.Code)
	}
}

func TestVisibility_Errors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		key  string
		body string
		want int
	}{
		{"member forbidden", testMemberKey, `{"entries":[]}`, http.StatusForbidden},
		{"bad json", testAdminKey, `nope`, http.StatusBadRequest},
		{"empty", testAdminKey, `{"entries":[]}`, http.StatusUnprocessableEntity},
		{"unknown field", testAdminKey, `{"entries":[{"field_name":"no_such_field","survey_year":2023}]}`, http.StatusUnprocessableEntity},
		{"duplicate", testAdminKey, `{"entries":[{"field_name":"fund_name","survey_year":2023},{"field_name":"fund_name","survey_year":2023}]}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := env.do(t, http.MethodPut, "/api/v1/visibility", tt.key, tt.body); w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}

	if w := env.do(t, http.MethodGet, "/api/v1/visibility", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous list status = %d, want 401", w.Code)
	}
}

func TestReportLink(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		env := newTestEnv(t, nil)
		if w := env.do(t, http.MethodGet, "/api/v1/surveys/2023/report", testAdminKey, ""); w.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", w.Code)
		}
	})

	t.Run("configured", func(t *testing.T) {
		expires := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		env := newTestEnv(t, &fakeReports{url: "https://s3.example/reports/2023", expires: expires})

		w := env.do(t, http.MethodGet, "/api/v1/surveys/2023/report", testAdminKey, "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		want := types.ReportLinkResponse{Year: 2023, URL: "https://s3.example/reports/2023", ExpiresAt: expires}
		if diff := cmp.Diff(want, decode[types.ReportLinkResponse](t, w)); diff != "" {
			t.Errorf("report link mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unsupported year", func(t *testing.T) {
		env := newTestEnv(t, nil)
		if w := env.do(t, http.MethodGet, "/api/v1/surveys/2030/report", testAdminKey, ""); w.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", w.Code)
		}
	})
}

func TestEvents_StreamsChanges(t *testing.T) {
	// Given: A running server with an open event stream
	env := newTestEnv(t, nil)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events", nil)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	reader := bufio.NewReader(resp.Body)
	if line, err := reader.ReadString('\n'); err != nil || !strings.HasPrefix(line, ": connected") {
		t.Fatalf("first line = %q, err %v", line, err)
	}

	// When: A visibility change is committed
	if _, err := env.store.UpsertVisibility(context.Background(), []survey.FieldVisibility{
		{FieldName: "fund_name", SurveyYear: 2022, AdminVisible: true},
	}); err != nil {
		t.Fatalf("UpsertVisibility: %v", err)
	}

	// Then: A change event names the table and year
	var eventLine, dataLine string
	for dataLine == "" {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		switch {
		case strings.HasPrefix(line, "event: "):
			eventLine = strings.TrimSpace(line)
		case strings.HasPrefix(line, "data: "):
			dataLine = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
	if eventLine != "event: change" {
		t.Errorf("event line = %q", eventLine)
	}
	var got changeEvent
	if err := json.Unmarshal([]byte(dataLine), &got); err != nil {
		t.Fatalf("decode data %q: %v", dataLine, err)
	}
	if got.Table != events.TableVisibility || got.Year != 2022 || got.At.IsZero() {
		t.Errorf("change = %+v", got)
	}
}
