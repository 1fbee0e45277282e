package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fundnetwork/memberportal/internal/analytics"
	"github.com/fundnetwork/memberportal/internal/api"
	"github.com/fundnetwork/memberportal/internal/config"
	"github.com/fundnetwork/memberportal/internal/events"
	"github.com/fundnetwork/memberportal/internal/export"
	"github.com/fundnetwork/memberportal/internal/store"
	"github.com/fundnetwork/memberportal/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:          "memberportal",
	Short:        "Member portal survey analytics service",
	Long:         "Serves survey sections, field visibility and cohort analytics for the member portal. Subcommands work against the configured database without running the server.",
	SilenceUsage: true,
	RunE:         run,
	Version:      Version,
}

func init() {
	rootCmd.AddCommand(surveyCmd)
	rootCmd.AddCommand(responsesCmd)
	rootCmd.AddCommand(visibilityCmd)
}

func run(cmd *cobra.Command, args []string) error {
	// 1. Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 3. Initialize logger
	logger := newLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)
	slog.Info("configuration loaded")
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	// 4. Change notifier and store (migrations applied on open)
	notifier := events.New()
	db, err := store.Open(ctx, store.Options{
		Driver:      cfg.Database.Driver,
		Path:        cfg.Database.Path,
		URL:         cfg.Database.URL,
		CohortLimit: cfg.Analytics.CohortLimit,
		Publisher:   notifier,
	})
	if err != nil {
		return err
	}
	slog.Info("store initialized", "driver", cfg.Database.Driver)

	// 5. Analytics and report export
	svc := analytics.NewService(db, logger)
	reports, err := export.New(cfg.Export)
	if err != nil {
		db.Close()
		return err
	}
	slog.Info("report export initialized", "enabled", cfg.Export.Bucket != "")

	// 6. Initialize HTTP router
	keys := api.Keys{Admin: cfg.Auth.AdminKey, Members: cfg.Auth.MemberKeys}
	handler := api.NewHandler(db, svc, reports, notifier, keys, Version)
	router := api.NewRouter(handler)
	slog.Info("router initialized")

	// 7. Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	// 8. Workers
	var wg sync.WaitGroup
	if cfg.Export.Bucket != "" {
		refresher := worker.NewRefreshCoordinator(svc, reports, notifier,
			cfg.Worker.RefreshInterval.Std(), cfg.Worker.RefreshDebounce.Std())
		startWorker(ctx, &wg, "refresh-coordinator", refresher.Run)
	}

	// 9. Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		// Any error other than ErrServerClosed is a real failure and triggers shutdown.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	// 10. Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// 11. Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout.Std())
	defer shutdownCancel()

	// 11a. End event streams, then stop HTTP server (drains in-flight requests)
	notifier.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// 11b. Wait for workers to complete
	wg.Wait()

	// 11c. Close store
	if err := db.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// newLogger builds the process logger from the log config.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		start := time.Now()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name, "uptime", time.Since(start).Round(time.Second).String())
	}()
}
