package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fundnetwork/memberportal/internal/analytics"
	"github.com/fundnetwork/memberportal/internal/api"
	"github.com/fundnetwork/memberportal/internal/events"
	"github.com/fundnetwork/memberportal/internal/store"
	"github.com/fundnetwork/memberportal/internal/worker"
	"github.com/fundnetwork/memberportal/pkg/portalclient"
)

const (
	adminKey  = "e2e-admin-key"
	memberKey = "e2e-member-key"
)

// portalEnv is an in-process server backed by a temp-dir SQLite store.
type portalEnv struct {
	server   *httptest.Server
	store    *store.SQLStore
	notifier *events.Notifier
	service  *analytics.Service
	reports  *recordingReports

	admin  *portalclient.Client
	member *portalclient.Client
	viewer *portalclient.Client
}

func setupPortalEnv(t *testing.T) *portalEnv {
	t.Helper()

	notifier := events.New()
	db, err := store.Open(context.Background(), store.Options{
		Driver:    store.DialectSQLite,
		Path:      filepath.Join(t.TempDir(), "portal.db"),
		Publisher: notifier,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	svc := analytics.NewService(db, nil)
	reports := newRecordingReports()
	keys := api.Keys{Admin: adminKey, Members: []string{memberKey}}
	handler := api.NewHandler(db, svc, reports, notifier, keys, "e2e")
	server := httptest.NewServer(api.NewRouter(handler))

	t.Cleanup(func() {
		notifier.Close()
		server.Close()
		db.Close()
	})

	return &portalEnv{
		server:   server,
		store:    db,
		notifier: notifier,
		service:  svc,
		reports:  reports,
		admin:    newClient(t, server.URL, adminKey),
		member:   newClient(t, server.URL, memberKey),
		viewer:   newClient(t, server.URL, ""),
	}
}

func newClient(t *testing.T, baseURL, key string) *portalclient.Client {
	t.Helper()
	c, err := portalclient.New(portalclient.Config{BaseURL: baseURL, APIKey: key, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

// startRefresher runs the report refresh worker against the env until the
// test ends.
func (e *portalEnv) startRefresher(t *testing.T, debounce time.Duration) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r := worker.NewRefreshCoordinator(e.service, e.reports, e.notifier, 0, debounce)
	go func() {
		defer close(done)
		r.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

// importResponse stores one response through the admin API and returns its ID.
func (e *portalEnv) importResponse(t *testing.T, year int, userID, status string, data map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	res, err := e.admin.ImportResponse(context.Background(), year, portalclient.ImportResponseRequest{
		UserID:           userID,
		SubmissionStatus: status,
		Data:             raw,
	})
	if err != nil {
		t.Fatalf("import response for %s: %v", userID, err)
	}
	return res.ID
}

// setVisibility replaces matrix entries through the admin API.
func (e *portalEnv) setVisibility(t *testing.T, entries ...portalclient.FieldVisibility) {
	t.Helper()
	if _, err := e.admin.UpdateVisibility(context.Background(), entries); err != nil {
		t.Fatalf("update visibility: %v", err)
	}
}

// recordingReports is an in-memory report publisher.
type recordingReports struct {
	mu        sync.Mutex
	published map[int][][]byte
	notify    chan int
}

func newRecordingReports() *recordingReports {
	return &recordingReports{
		published: make(map[int][][]byte),
		notify:    make(chan int, 64),
	}
}

func (r *recordingReports) Publish(_ context.Context, year int, report []byte) error {
	r.mu.Lock()
	r.published[year] = append(r.published[year], report)
	r.mu.Unlock()
	select {
	case r.notify <- year:
	default:
	}
	return nil
}

func (r *recordingReports) PresignedURL(_ context.Context, year int) (string, time.Time, error) {
	return fmt.Sprintf("https://reports.example.test/%d/report.json", year), time.Now().Add(time.Hour), nil
}

func (r *recordingReports) count(year int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.published[year])
}

func (r *recordingReports) latest(year int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	reports := r.published[year]
	if len(reports) == 0 {
		return nil
	}
	return reports[len(reports)-1]
}

// waitForPublish blocks until a report for year is published after the call.
func (r *recordingReports) waitForPublish(t *testing.T, year int, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case y := <-r.notify:
			if y == year {
				return
			}
		case <-deadline:
			t.Fatalf("no report published for %d within %s", year, timeout)
		}
	}
}

// drain discards pending publish notifications.
func (r *recordingReports) drain() {
	for {
		select {
		case <-r.notify:
		default:
			return
		}
	}
}
