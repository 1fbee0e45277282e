package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/fundnetwork/memberportal/internal/events"
	"github.com/fundnetwork/memberportal/internal/survey"
	"github.com/fundnetwork/memberportal/internal/types"
)

// Supported dialects. Values double as goose dialect names.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// DefaultCohortLimit caps a cohort fetch when no limit is configured.
const DefaultCohortLimit = 500

func init() {
	// modernc registers as "sqlite", which sqlx does not map to a bindvar style.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Options configures Open.
type Options struct {
	Driver      string
	Path        string // sqlite database file
	URL         string // postgres connection string
	CohortLimit int
	Publisher   ChangePublisher
}

// SQLStore implements Store over database/sql. Queries are written with ?
// placeholders and rebound for the active dialect.
type SQLStore struct {
	db          *sqlx.DB
	dialect     string
	cohortLimit int
	publisher   ChangePublisher
	now         func() time.Time
}

var _ Store = (*SQLStore)(nil)

// Open connects to the configured database and applies pending migrations.
func Open(ctx context.Context, opts Options) (*SQLStore, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch opts.Driver {
	case DialectSQLite:
		db, err = openSQLite(opts.Path)
	case DialectPostgres:
		db, err = sqlx.Open("pgx", opts.URL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStore, opts.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db.DB, opts.Driver); err != nil {
		db.Close()
		return nil, err
	}

	return newSQLStore(db, opts.Driver, opts), nil
}

// NewSQLiteStore opens a sqlite store at dbPath with default options.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	return Open(context.Background(), Options{Driver: DialectSQLite, Path: dbPath})
}

func openSQLite(dbPath string) (*sqlx.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	// Pragmas go in the DSN so that every pooled connection gets them.
	dsn := "file:" + dbPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=synchronous(NORMAL)"
	return sqlx.Open("sqlite", dsn)
}

func newSQLStore(db *sqlx.DB, dialect string, opts Options) *SQLStore {
	limit := opts.CohortLimit
	if limit <= 0 {
		limit = DefaultCohortLimit
	}
	pub := opts.Publisher
	if pub == nil {
		pub = nopPublisher{}
	}
	return &SQLStore{
		db:          db,
		dialect:     dialect,
		cohortLimit: limit,
		publisher:   pub,
		now:         time.Now,
	}
}

// Dialect returns the active SQL dialect.
func (s *SQLStore) Dialect() string {
	return s.dialect
}

// CohortLimit returns the maximum number of rows a cohort fetch returns.
func (s *SQLStore) CohortLimit() int {
	return s.cohortLimit
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

const responseColumns = `id, survey_year, user_id, submission_status, data, created_at, updated_at, completed_at`

type responseRecord struct {
	ID               string         `db:"id"`
	SurveyYear       int            `db:"survey_year"`
	UserID           string         `db:"user_id"`
	SubmissionStatus string         `db:"submission_status"`
	Data             string         `db:"data"`
	CreatedAt        string         `db:"created_at"`
	UpdatedAt        string         `db:"updated_at"`
	CompletedAt      sql.NullString `db:"completed_at"`
}

func (rec responseRecord) toResponse() (types.SurveyResponse, error) {
	row, err := survey.ParseRow([]byte(rec.Data))
	if err != nil {
		return types.SurveyResponse{}, fmt.Errorf("response %s: %w", rec.ID, ErrCorruptResponse)
	}
	resp := types.SurveyResponse{
		ID:               rec.ID,
		SurveyYear:       rec.SurveyYear,
		UserID:           rec.UserID,
		SubmissionStatus: rec.SubmissionStatus,
		Data:             row,
	}
	if t, err := time.Parse(time.RFC3339, rec.CreatedAt); err == nil {
		resp.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, rec.UpdatedAt); err == nil {
		resp.UpdatedAt = t
	}
	if rec.CompletedAt.Valid {
		if t, err := time.Parse(time.RFC3339, rec.CompletedAt.String); err == nil {
			resp.CompletedAt = &t
		}
	}
	return resp, nil
}

// ListResponses returns up to the cohort limit of responses for year,
// optionally restricted to one submission status.
func (s *SQLStore) ListResponses(ctx context.Context, year int, filter types.ResponseFilter) ([]types.SurveyResponse, error) {
	limit := filter.Limit
	if limit <= 0 || limit > s.cohortLimit {
		limit = s.cohortLimit
	}

	q := `SELECT ` + responseColumns + ` FROM survey_responses WHERE survey_year = ?`
	args := []any{year}
	if filter.Status != "" {
		q += ` AND submission_status = ?`
		args = append(args, filter.Status)
	}
	q += ` ORDER BY created_at, id LIMIT ?`
	args = append(args, limit)

	var recs []responseRecord
	if err := s.db.SelectContext(ctx, &recs, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}

	out := make([]types.SurveyResponse, 0, len(recs))
	for _, rec := range recs {
		resp, err := rec.toResponse()
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

// GetResponse retrieves one response of year by ID.
func (s *SQLStore) GetResponse(ctx context.Context, year int, id string) (*types.SurveyResponse, error) {
	var rec responseRecord
	q := `SELECT ` + responseColumns + ` FROM survey_responses WHERE id = ? AND survey_year = ?`
	if err := s.db.GetContext(ctx, &rec, s.db.Rebind(q), id, year); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query response: %w", err)
	}

	resp, err := rec.toResponse()
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitResponse stores a single response.
func (s *SQLStore) SubmitResponse(ctx context.Context, resp types.NewSurveyResponse) (*types.SurveyResponse, error) {
	stored, err := s.SubmitResponses(ctx, []types.NewSurveyResponse{resp})
	if err != nil {
		return nil, err
	}
	return &stored[0], nil
}

// SubmitResponses stores responses in one transaction, assigning IDs and
// timestamps. Completed responses are stamped as completed now.
func (s *SQLStore) SubmitResponses(ctx context.Context, resps []types.NewSurveyResponse) ([]types.SurveyResponse, error) {
	if len(resps) == 0 {
		return []types.SurveyResponse{}, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := s.db.Rebind(`
		INSERT INTO survey_responses (` + responseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)

	now := s.now().UTC().Truncate(time.Second)
	nowStr := now.Format(time.RFC3339)
	stored := make([]types.SurveyResponse, 0, len(resps))

	for i, r := range resps {
		if !survey.IsSupportedYear(r.SurveyYear) {
			return nil, fmt.Errorf("response %d: %w: %d", i, ErrUnsupportedYear, r.SurveyYear)
		}
		data := r.Data
		if data == nil {
			data = survey.Row{}
		}
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode response %d: %w", i, err)
		}

		resp := types.SurveyResponse{
			ID:               ulid.Make().String(),
			SurveyYear:       r.SurveyYear,
			UserID:           r.UserID,
			SubmissionStatus: r.SubmissionStatus,
			Data:             data,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		var completedAt sql.NullString
		if r.SubmissionStatus == types.StatusCompleted {
			completed := now
			resp.CompletedAt = &completed
			completedAt = sql.NullString{String: nowStr, Valid: true}
		}

		_, err = tx.ExecContext(ctx, insert,
			resp.ID, resp.SurveyYear, resp.UserID, resp.SubmissionStatus,
			string(encoded), nowStr, nowStr, completedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert response %d: %w", i, err)
		}
		stored = append(stored, resp)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	years := make([]int, 0, 1)
	for _, r := range stored {
		years = appendUnique(years, r.SurveyYear)
	}
	s.publish(events.TableResponses, years)

	return stored, nil
}

type visibilityRecord struct {
	FieldName     string `db:"field_name"`
	SurveyYear    int    `db:"survey_year"`
	ViewerVisible int    `db:"viewer_visible"`
	MemberVisible int    `db:"member_visible"`
	AdminVisible  int    `db:"admin_visible"`
}

// ListVisibility reads the whole visibility matrix.
func (s *SQLStore) ListVisibility(ctx context.Context) ([]survey.FieldVisibility, error) {
	var recs []visibilityRecord
	err := s.db.SelectContext(ctx, &recs, `
		SELECT field_name, survey_year, viewer_visible, member_visible, admin_visible
		FROM field_visibility
		ORDER BY survey_year, field_name
	`)
	if err != nil {
		return nil, fmt.Errorf("query visibility: %w", err)
	}

	out := make([]survey.FieldVisibility, len(recs))
	for i, rec := range recs {
		out[i] = survey.FieldVisibility{
			FieldName:     rec.FieldName,
			SurveyYear:    rec.SurveyYear,
			ViewerVisible: rec.ViewerVisible != 0,
			MemberVisible: rec.MemberVisible != 0,
			AdminVisible:  rec.AdminVisible != 0,
		}
	}
	return out, nil
}

// UpsertVisibility inserts or replaces matrix entries keyed by
// (field_name, survey_year) and returns the number written.
func (s *SQLStore) UpsertVisibility(ctx context.Context, entries []survey.FieldVisibility) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := s.db.Rebind(`
		INSERT INTO field_visibility (field_name, survey_year, viewer_visible, member_visible, admin_visible, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (field_name, survey_year) DO UPDATE SET
			viewer_visible = excluded.viewer_visible,
			member_visible = excluded.member_visible,
			admin_visible = excluded.admin_visible,
			updated_at = excluded.updated_at
	`)
	nowStr := s.now().UTC().Format(time.RFC3339)

	years := make([]int, 0, 1)
	for _, e := range entries {
		_, err := tx.ExecContext(ctx, upsert,
			e.FieldName, e.SurveyYear,
			boolInt(e.ViewerVisible), boolInt(e.MemberVisible), boolInt(e.AdminVisible),
			nowStr,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert visibility %s/%d: %w", e.FieldName, e.SurveyYear, err)
		}
		years = appendUnique(years, e.SurveyYear)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	s.publish(events.TableVisibility, years)
	return len(entries), nil
}

// GetStats returns response counts per year and the matrix size.
func (s *SQLStore) GetStats(ctx context.Context) (*types.StoreStats, error) {
	var counts []struct {
		Year  int   `db:"survey_year"`
		Count int64 `db:"n"`
	}
	err := s.db.SelectContext(ctx, &counts, `
		SELECT survey_year, COUNT(*) AS n
		FROM survey_responses
		GROUP BY survey_year
		ORDER BY survey_year
	`)
	if err != nil {
		return nil, fmt.Errorf("count responses: %w", err)
	}

	stats := &types.StoreStats{ResponsesByYear: make(map[int]int64, len(counts))}
	for _, c := range counts {
		stats.ResponsesByYear[c.Year] = c.Count
		stats.ResponseCount += c.Count
	}

	if err := s.db.GetContext(ctx, &stats.VisibilityEntries, `SELECT COUNT(*) FROM field_visibility`); err != nil {
		return nil, fmt.Errorf("count visibility: %w", err)
	}
	return stats, nil
}

func (s *SQLStore) publish(table string, years []int) {
	at := s.now().UTC()
	for _, y := range years {
		s.publisher.Publish(events.Change{Table: table, Year: y, At: at})
	}
}

func appendUnique(years []int, y int) []int {
	for _, existing := range years {
		if existing == y {
			return years
		}
	}
	return append(years, y)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
