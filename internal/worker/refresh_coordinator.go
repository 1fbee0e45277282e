package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fundnetwork/memberportal/internal/events"
	"github.com/fundnetwork/memberportal/internal/export"
	"github.com/fundnetwork/memberportal/internal/survey"
	"github.com/fundnetwork/memberportal/internal/types"
)

// ReportBuilder builds cohort reports.
type ReportBuilder interface {
	CohortReport(ctx context.Context, year int, role survey.Role, filter types.ResponseFilter) (*types.CohortReport, error)
}

// ChangeSource hands out change subscriptions.
type ChangeSource interface {
	Subscribe() (<-chan events.Change, func())
}

// RefreshCoordinator keeps the published admin cohort reports current. It
// collects change events for a debounce window and then rebuilds the report
// of every affected year once. A full refresh also runs on start and on
// every interval tick.
type RefreshCoordinator struct {
	reports   ReportBuilder
	publisher export.Publisher
	changes   ChangeSource
	interval  time.Duration
	debounce  time.Duration
	filter    types.ResponseFilter
}

// NewRefreshCoordinator creates a coordinator. A zero interval disables the
// periodic refresh. Published reports cover completed responses.
func NewRefreshCoordinator(
	reports ReportBuilder,
	publisher export.Publisher,
	changes ChangeSource,
	interval time.Duration,
	debounce time.Duration,
) *RefreshCoordinator {
	return &RefreshCoordinator{
		reports:   reports,
		publisher: publisher,
		changes:   changes,
		interval:  interval,
		debounce:  debounce,
		filter:    types.ResponseFilter{Status: types.StatusCompleted},
	}
}

// Run starts the coordinator loop and blocks until ctx is cancelled.
func (c *RefreshCoordinator) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "refresh-coordinator",
		"action", "worker_started",
		"interval", c.interval.String(),
		"debounce", c.debounce.String(),
	)

	changes, cancel := c.changes.Subscribe()
	defer cancel()

	var tick <-chan time.Time
	if c.interval > 0 {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var (
		pending  = make(map[int]struct{})
		timer    *time.Timer
		debounce <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	c.refreshYears(ctx, survey.SupportedYears())

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "refresh-coordinator",
				"action", "worker_stopped",
				"reason", "context_cancelled",
			)
			return

		case <-tick:
			c.refreshYears(ctx, survey.SupportedYears())

		case change, ok := <-changes:
			if !ok {
				// Notifier closed; keep serving ticks until shutdown.
				changes = nil
				continue
			}
			if !survey.IsSupportedYear(change.Year) {
				continue
			}
			pending[change.Year] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(c.debounce)
				debounce = timer.C
			}

		case <-debounce:
			years := make([]int, 0, len(pending))
			for y := range pending {
				years = append(years, y)
			}
			sort.Ints(years)
			pending = make(map[int]struct{})
			timer, debounce = nil, nil

			c.refreshYears(ctx, years)
		}
	}
}

// refreshYears rebuilds and publishes the reports of years.
func (c *RefreshCoordinator) refreshYears(ctx context.Context, years []int) {
	var succeeded, failed int
	for _, year := range years {
		if ctx.Err() != nil {
			return
		}
		if err := c.RefreshYear(ctx, year); err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("report refresh failed",
				"component", "worker",
				"worker", "refresh-coordinator",
				"action", "refresh_failed",
				"year", year,
				"error", err,
			)
			failed++
			continue
		}
		succeeded++
	}

	slog.Info("report refresh cycle completed",
		"component", "worker",
		"worker", "refresh-coordinator",
		"action", "cycle_complete",
		"total", len(years),
		"succeeded", succeeded,
		"failed", failed,
	)
}

// RefreshYear rebuilds the admin cohort report of year and publishes it.
func (c *RefreshCoordinator) RefreshYear(ctx context.Context, year int) error {
	report, err := c.reports.CohortReport(ctx, year, survey.RoleAdmin, c.filter)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := c.publisher.Publish(ctx, year, data); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}

	slog.Debug("report published",
		"component", "worker",
		"worker", "refresh-coordinator",
		"action", "report_published",
		"year", year,
		"respondents", report.Respondents,
		"bytes", len(data),
	)
	return nil
}
