package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sheetnotify/internal/app"
	"github.com/JonMunkholm/sheetnotify/internal/config"
	"github.com/JonMunkholm/sheetnotify/internal/logging"
	"github.com/JonMunkholm/sheetnotify/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded", "config", cfg.String())

	// Build the source, sender and service once for the process lifetime
	ctx := context.Background()
	a, err := app.New(ctx, cfg, slog.Default())
	if err != nil {
		slog.Error("failed to initialise service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(a.Service, cfg, a.Metrics.Handler())

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		if err := a.Service.StartScheduler(jobCtx, cfg.Schedule.Core()); err != nil {
			slog.Error("scheduler failed", "error", err)
		}
	}()

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop the scheduler so no new run starts
		cancelJobs()
		<-schedulerDone

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Stop accepting requests; in-flight handlers finish first
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Wait for an active run to finish (with timeout)
		if st := a.Service.Status(); st.Running {
			slog.Info("waiting for active run to complete", "since", st.RunningSince)
			if err := a.Service.WaitForRuns(shutdownCtx); err != nil {
				slog.Warn("run did not complete in time", "error", err)
			} else {
				slog.Info("active run completed")
			}
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}
