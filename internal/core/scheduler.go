package core

// scheduler.go runs reconciliation on a cron schedule.
//
// Scheduled runs go through Service.Execute like HTTP-triggered ones, so they
// share the run guard: a tick that fires while another run is active is
// logged and skipped rather than queued behind it.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduleConfig holds the cron schedule for automatic runs.
type ScheduleConfig struct {
	Spec     string // cron expression, seconds optional; empty disables scheduling
	Timezone string // IANA zone name (default: Local)
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateSchedule reports whether spec and timezone are usable.
func ValidateSchedule(cfg ScheduleConfig) error {
	if cfg.Spec == "" {
		return nil
	}
	if _, err := cronParser.Parse(cfg.Spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", cfg.Spec, err)
	}
	if _, err := loadLocation(cfg.Timezone); err != nil {
		return err
	}
	return nil
}

// StartScheduler runs Execute on every schedule tick until ctx is cancelled.
// It returns immediately if no schedule is configured.
func (s *Service) StartScheduler(ctx context.Context, cfg ScheduleConfig) error {
	if cfg.Spec == "" {
		return nil
	}
	loc, err := loadLocation(cfg.Timezone)
	if err != nil {
		return err
	}

	c := cron.New(cron.WithParser(cronParser), cron.WithLocation(loc))
	if _, err := c.AddFunc(cfg.Spec, func() { s.runScheduled(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.Spec, err)
	}

	slog.Info("run scheduler started", "spec", cfg.Spec, "timezone", loc.String())
	c.Start()

	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	slog.Info("run scheduler stopped")
	return nil
}

// runScheduled performs one scheduled run.
func (s *Service) runScheduled(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()

	result, err := s.Execute(ContextWithTrigger(ctx, TriggerSchedule))
	switch {
	case errors.Is(err, ErrRunInProgress):
		slog.Info("scheduled run skipped: another run is active")
	case err != nil:
		slog.Error("scheduled run failed", "error", err)
	default:
		slog.Info("scheduled run completed",
			"processed", result.Processed,
			"failed", len(result.Failures),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}
