package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/pressync/internal/api"
	"github.com/hyperengineering/pressync/internal/config"
	"github.com/hyperengineering/pressync/internal/history"
	"github.com/hyperengineering/pressync/internal/sync"
	"github.com/hyperengineering/pressync/internal/wp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the CSV upload form with streamed batch progress",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	var hist *history.Store
	if cfg.History.Path != "" {
		store, err := history.NewStore(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open run history: %w", err)
		}
		defer store.Close()
		hist = store
		slog.Info("run history opened", "path", cfg.History.Path)
	}

	handler := api.NewHandler(cfg, hist, newBatchRunner(hist), pingSite, Version)
	router := api.NewRouter(handler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: time.Duration(cfg.Server.ReadTimeout),
		// No WriteTimeout: progress streams stay open for the whole batch.
	}

	go func() {
		slog.Info("server starting", "address", addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// newBatchRunner builds the production BatchRunner: a fresh client and driver
// per upload, so concurrent uploads share nothing.
func newBatchRunner(hist *history.Store) api.BatchRunner {
	return func(ctx context.Context, siteName string, site config.SiteConfig,
		mode sync.Mode, rows []sync.Row, progress sync.ProgressFunc) (*sync.Summary, error) {

		client := wp.NewClient(site.BaseURL, site.Username, site.AppPassword,
			wp.WithTimeout(time.Duration(cfg.Sync.RequestTimeout)))

		var recorder sync.Recorder
		if hist != nil {
			recorder = hist
		}

		driver := sync.NewDriver(sync.DriverConfig{
			API:           client,
			Mode:          mode,
			Site:          siteName,
			DefaultStatus: site.DefaultStatus,
			WriteDelay:    time.Duration(cfg.Sync.WriteDelay),
			Progress:      progress,
			LogDir:        cfg.Sync.LogDir,
			Recorder:      recorder,
		})
		return driver.Run(ctx, rows)
	}
}

// pingSite probes a site's REST API with a short-lived client.
func pingSite(ctx context.Context, site config.SiteConfig) error {
	client := wp.NewClient(site.BaseURL, site.Username, site.AppPassword,
		wp.WithTimeout(10*time.Second))
	return client.Ping(ctx)
}
